package analysis

import (
	"fmt"

	"pytidy/internal/ast"
)

// complexExpressions flags long boolean chains, deeply nested expressions
// and deeply nested loops.
type complexExpressions struct{ base }

func (complexExpressions) Visit(ctx *Context, id ast.NodeID) {
	tree := ctx.Tree
	cfg := ctx.Config
	n := tree.Get(id)
	switch {
	case n.Kind == ast.For || n.Kind == ast.While:
		if d := ctx.LoopDepth(); d == cfg.MaxLoopDepth+1 {
			ctx.Report(ctx.AtTok(n.First, fmt.Sprintf("loop nested %d levels deep (max %d)", d, cfg.MaxLoopDepth)))
		}
	case n.Kind == ast.BoolOp && !boolOperand(tree, id):
		if ops := BoolOperands(tree, id); ops > cfg.MaxBoolOperands {
			ctx.Warn(id, fmt.Sprintf("boolean expression has %d operands (max %d)", ops, cfg.MaxBoolOperands))
		}
	}
	if ExprRoot(tree, id) {
		if d := tree.Depth(id); d > cfg.MaxExpressionDepth {
			ctx.Warn(id, fmt.Sprintf("expression nested %d levels deep (max %d)", d, cfg.MaxExpressionDepth))
		}
	}
}

// BoolOperands counts the leaves of a tree of and/or operations, looking
// through parentheses.
func BoolOperands(tree *ast.Tree, id ast.NodeID) int {
	switch tree.Kind(id) {
	case ast.BoolOp:
		n := 0
		for _, c := range tree.Children(id) {
			n += BoolOperands(tree, c)
		}
		return n
	case ast.Paren:
		if kids := tree.Children(id); len(kids) == 1 && tree.Kind(kids[0]) == ast.BoolOp {
			return BoolOperands(tree, kids[0])
		}
	}
	return 1
}

// boolOperand reports whether the BoolOp is itself an operand of an
// enclosing BoolOp, possibly through parentheses.
func boolOperand(tree *ast.Tree, id ast.NodeID) bool {
	p := tree.Parent(id)
	if tree.Kind(p) == ast.Paren {
		p = tree.Parent(p)
	}
	return tree.Kind(p) == ast.BoolOp
}

// ExprRoot reports whether id is the outermost node of an expression.
func ExprRoot(tree *ast.Tree, id ast.NodeID) bool {
	if !tree.Kind(id).IsExpr() {
		return false
	}
	switch p := tree.Kind(tree.Parent(id)); {
	case p.IsExpr(), p == ast.Keyword, p == ast.Comprehension:
		return false
	}
	return true
}
