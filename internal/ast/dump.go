package ast

import (
	"fmt"
	"strings"
)

// Dump renders the subtree as an indented S-expression, one node per line.
func (t *Tree) Dump(id NodeID) string {
	var b strings.Builder
	t.dump(&b, id, 0)
	return b.String()
}

func (t *Tree) dump(b *strings.Builder, id NodeID, depth int) {
	n := t.Get(id)
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Kind.String())
	if n.Role != RoleNone {
		fmt.Fprintf(b, "/%s", roleNames[n.Role])
	}
	switch n.Kind {
	case Name, FunctionDef, ClassDef, Param, Attribute, Keyword, Alias, ImportFrom:
		if n.Name != "" {
			fmt.Fprintf(b, " %s", n.Name)
		}
		if n.AsName != "" {
			fmt.Fprintf(b, " as %s", n.AsName)
		}
	case Constant:
		fmt.Fprintf(b, " %s", n.Value)
	case BinOp, UnaryOp, BoolOp, AugAssign:
		fmt.Fprintf(b, " %s", n.Op.Text())
	case Compare:
		for _, op := range n.Ops {
			fmt.Fprintf(b, " %s", op)
		}
	}
	if n.Ctx == CtxStore {
		b.WriteString(" store")
	} else if n.Ctx == CtxDel {
		b.WriteString(" del")
	}
	fmt.Fprintf(b, " [%d:%d]\n", t.Pos(id).Line, t.Pos(id).Col)
	for _, c := range n.Children {
		t.dump(b, c, depth+1)
	}
}

var roleNames = [...]string{
	RoleNone: "", RoleBody: "body", RoleOrElse: "orelse", RoleFinally: "finally",
	RoleHandler: "handler", RoleTest: "test", RoleTarget: "target", RoleValue: "value",
	RoleIter: "iter", RoleDecorator: "decorator", RoleParams: "params", RoleReturns: "returns",
	RoleAnnotation: "annotation", RoleDefault: "default", RoleBase: "base", RoleArg: "arg",
	RoleFunc: "func", RoleKey: "key", RoleSlice: "slice", RoleLower: "lower",
	RoleUpper: "upper", RoleStep: "step", RoleElt: "elt", RoleGenerator: "generator",
	RoleIf: "if", RoleLeft: "left", RoleRight: "right", RoleOperand: "operand",
	RoleComparator: "cmp", RoleType: "type", RoleCause: "cause", RoleMsg: "msg",
	RoleContext: "context", RoleItem: "item", RoleAlias: "alias",
}

func (r Role) String() string { return roleNames[r] }
