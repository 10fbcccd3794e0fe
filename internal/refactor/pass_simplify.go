package refactor

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"pytidy/internal/ast"
	"pytidy/internal/source"
	"pytidy/internal/token"
)

// simplifyPass rewrites expressions into equivalent simpler ones.
type simplifyPass struct{}

func (simplifyPass) Name() string { return "simplify" }

func (simplifyPass) Plan(ctx *Context) []Change {
	tree := ctx.Tree
	var changes []Change
	tree.Inspect(tree.Root, func(id ast.NodeID) bool {
		ctx.Spend(1)
		var (
			text, rule string
			ok         bool
		)
		switch tree.Kind(id) {
		case ast.UnaryOp:
			text, rule, ok = simplifyNot(tree, id)
		case ast.BoolOp:
			text, rule, ok = simplifyBoolOp(tree, id)
		case ast.IfExp:
			text, rule, ok = simplifyIfExp(tree, id)
		case ast.BinOp:
			text, rule, ok = foldInts(tree, id)
		case ast.Paren:
			text, rule, ok = dropParens(ctx, id)
		}
		if !ok {
			return true
		}
		old := tree.Text(id)
		changes = append(changes, Change{
			Action: Action{
				Kind:        SimplifyExpression,
				Pass:        "simplify",
				Line:        ctx.Line(id),
				Params:      map[string]string{"rule": rule, "from": old, "to": strings.TrimSpace(text)},
				Description: fmt.Sprintf("simplified '%s' to '%s'", old, strings.TrimSpace(text)),
			},
			Edits: []TextEdit{ctx.replaceNode(id, text)},
		})
		return true
	})
	return changes
}

// unparen strips any number of enclosing parentheses.
func unparen(tree *ast.Tree, id ast.NodeID) ast.NodeID {
	for tree.Kind(id) == ast.Paren {
		id = tree.Children(id)[0]
	}
	return id
}

func boolConst(tree *ast.Tree, id ast.NodeID) (value, ok bool) {
	n := tree.Get(unparen(tree, id))
	if n.Kind != ast.Constant {
		return false, false
	}
	switch n.Op {
	case token.KwTrue:
		return true, true
	case token.KwFalse:
		return false, true
	}
	return false, false
}

func pyBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// simplifyNot handles not True, not False, not (a in b) and not (a is b).
func simplifyNot(tree *ast.Tree, id ast.NodeID) (string, string, bool) {
	n := tree.Get(id)
	if n.Op != token.KwNot {
		return "", "", false
	}
	operand := n.Children[0]
	if v, ok := boolConst(tree, operand); ok {
		return pyBool(!v), "not-constant", true
	}
	cmp := tree.Get(unparen(tree, operand))
	if cmp.Kind != ast.Compare || len(cmp.Ops) != 1 {
		return "", "", false
	}
	neg, ok := cmp.Ops[0].Negate()
	if !ok {
		return "", "", false
	}
	left, right := tree.Text(cmp.Children[0]), tree.Text(cmp.Children[1])
	return left + " " + neg.String() + " " + right, "negated-comparison", true
}

// simplifyBoolOp drops a leading True/False operand.
func simplifyBoolOp(tree *ast.Tree, id ast.NodeID) (string, string, bool) {
	n := tree.Get(id)
	v, ok := boolConst(tree, n.Children[0])
	if !ok {
		return "", "", false
	}
	and := n.Op == token.KwAnd
	if v != and {
		// False and x / True or x
		return pyBool(v), "short-circuit", true
	}
	rest := tree.File.Text(source.Span{Start: tree.Get(n.Children[1]).Span.Start, End: n.Span.End})
	return rest, "boolean-identity", true
}

func simplifyIfExp(tree *ast.Tree, id ast.NodeID) (string, string, bool) {
	v, ok := boolConst(tree, tree.Child(id, ast.RoleTest))
	if !ok {
		return "", "", false
	}
	pick := tree.Child(id, ast.RoleOrElse)
	if v {
		pick = tree.Child(id, ast.RoleBody)
	}
	return tree.Text(pick), "constant-condition", true
}

// foldInts evaluates an operation on two non-negative integer literals
// when the result is a non-negative int64.
func foldInts(tree *ast.Tree, id ast.NodeID) (string, string, bool) {
	n := tree.Get(id)
	a, okA := intLiteral(tree, n.Children[0])
	b, okB := intLiteral(tree, n.Children[1])
	if !okA || !okB {
		return "", "", false
	}
	var r int64
	switch n.Op {
	case token.Plus:
		if a > math.MaxInt64-b {
			return "", "", false
		}
		r = a + b
	case token.Minus:
		r = a - b
	case token.Star:
		hi, lo := bits.Mul64(uint64(a), uint64(b))
		if hi != 0 || lo > math.MaxInt64 {
			return "", "", false
		}
		r = int64(lo)
	case token.DoubleSlash:
		if b == 0 {
			return "", "", false
		}
		r = a / b
	case token.Percent:
		if b == 0 {
			return "", "", false
		}
		r = a % b
	case token.DoubleStar:
		if b > 62 {
			return "", "", false
		}
		r = 1
		for i := int64(0); i < b; i++ {
			hi, lo := bits.Mul64(uint64(r), uint64(a))
			if hi != 0 || lo > math.MaxInt64 {
				return "", "", false
			}
			r = int64(lo)
		}
	case token.Shl:
		if b > 62 || a > math.MaxInt64>>b {
			return "", "", false
		}
		r = a << b
	case token.Shr:
		if b > 63 {
			r = 0
		} else {
			r = a >> b
		}
	case token.Amp:
		r = a & b
	case token.Pipe:
		r = a | b
	case token.Caret:
		r = a ^ b
	default:
		return "", "", false
	}
	if r < 0 {
		return "", "", false
	}
	return strconv.FormatInt(r, 10), "constant-folding", true
}

func intLiteral(tree *ast.Tree, id ast.NodeID) (int64, bool) {
	n := tree.Get(id)
	if n.Kind != ast.Constant || n.Op != token.Number {
		return 0, false
	}
	text := strings.ReplaceAll(strings.ToLower(n.Value), "_", "")
	if len(text) > 1 && text[0] == '0' && text[1] >= '0' && text[1] <= '9' {
		return 0, false
	}
	v, err := strconv.ParseInt(text, 0, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// dropParens removes parentheses around atoms and around whole
// statement-level expressions written on one line.
func dropParens(ctx *Context, id ast.NodeID) (string, string, bool) {
	tree := ctx.Tree
	n := tree.Get(id)
	if strings.ContainsAny(tree.Text(id), "\r\n") {
		return "", "", false
	}
	inner := tree.Get(n.Children[0])
	parent := tree.Get(n.Parent)
	switch inner.Kind {
	case ast.NamedExpr, ast.Tuple, ast.Yield, ast.YieldFrom, ast.Starred, ast.GeneratorExp:
		return "", "", false
	}
	if inner.Kind == ast.Constant && inner.Op == token.String && parent.Kind == ast.ExprStmt {
		return "", "", false
	}
	if inner.Kind == ast.Constant && inner.Op == token.Number && parent.Kind == ast.Attribute {
		return "", "", false
	}
	rule := ""
	switch {
	case isAtom(inner.Kind):
		rule = "redundant-parentheses"
	case statementLevel(tree, id):
		rule = "statement-parentheses"
	default:
		return "", "", false
	}

	text := tree.Text(n.Children[0])
	content := ctx.File.Content
	if s := n.Span.Start; s > 0 && isIdentByte(content[s-1]) && isIdentByte(text[0]) {
		text = " " + text
	}
	if e := n.Span.End; int(e) < len(content) && isIdentByte(content[e]) && isIdentByte(text[len(text)-1]) {
		text += " "
	}
	return text, rule, true
}

func isAtom(k ast.Kind) bool {
	switch k {
	case ast.Name, ast.Constant, ast.Attribute, ast.Subscript, ast.Call, ast.List, ast.Dict, ast.Set,
		ast.ListComp, ast.SetComp, ast.DictComp, ast.Paren:
		return true
	default:
		return false
	}
}

// statementLevel reports a parenthesized expression that is the whole
// value of a statement or the test of an if or while.
func statementLevel(tree *ast.Tree, id ast.NodeID) bool {
	n := tree.Get(id)
	p := tree.Get(n.Parent)
	switch p.Kind {
	case ast.ExprStmt, ast.Return:
		return true
	case ast.Assign, ast.AugAssign, ast.AnnAssign:
		return n.Role == ast.RoleValue
	case ast.If, ast.While:
		return n.Role == ast.RoleTest
	default:
		return false
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80
}
