package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"pytidy/internal/ast"
	"pytidy/internal/token"
)

type magicNumbers struct{ base }

func (magicNumbers) Visit(ctx *Context, id ast.NodeID) {
	tree := ctx.Tree
	n := tree.Get(id)
	if n.Kind != ast.Constant || n.Op != token.Number {
		return
	}
	v, ok := NumberValue(n.Value)
	if !ok {
		return
	}
	at, text := id, n.Value
	if p := tree.Get(n.Parent); p != nil && p.Kind == ast.UnaryOp && p.Op == token.Minus {
		v, at, text = -v, n.Parent, "-"+n.Value
	}
	if ctx.Config.MagicNumberWhitelist.Contains(v) || InConstantBinding(tree, at) {
		return
	}
	ctx.Report(ctx.At(at, fmt.Sprintf("magic number %s; consider a named constant", text)).WithSymbol(text))
}

// NumberValue parses a numeric literal as written in source.
func NumberValue(lit string) (float64, bool) {
	s := strings.ReplaceAll(lit, "_", "")
	s = strings.TrimRight(s, "jJ")
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return float64(i), true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return 0, false
}

// InConstantBinding reports whether id lies in the value of an assignment
// whose targets are all UPPER_CASE names.
func InConstantBinding(tree *ast.Tree, id ast.NodeID) bool {
	child := id
	for cur := tree.Parent(id); cur.IsValid(); child, cur = cur, tree.Parent(cur) {
		k := tree.Kind(cur)
		if k != ast.Assign && k != ast.AnnAssign {
			if k.IsStmt() {
				return false
			}
			continue
		}
		if tree.Get(child).Role != ast.RoleValue {
			return false
		}
		targets := tree.ChildrenWith(cur, ast.RoleTarget)
		if len(targets) == 0 {
			return false
		}
		for _, t := range targets {
			tn := tree.Get(t)
			if tn.Kind != ast.Name || !IsConstantName(tn.Name) {
				return false
			}
		}
		return true
	}
	return false
}

// IsConstantName reports UPPER_CASE identifiers with at least one letter.
func IsConstantName(name string) bool {
	letter := false
	for _, r := range name {
		switch {
		case unicode.IsUpper(r):
			letter = true
		case r == '_' || unicode.IsDigit(r):
		default:
			return false
		}
	}
	return letter
}
