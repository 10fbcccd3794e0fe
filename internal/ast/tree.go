package ast

import (
	"strings"

	"pytidy/internal/source"
	"pytidy/internal/token"
)

// Tree is an arena-allocated syntax tree over a token stream.
// It is immutable once the parser returns it.
type Tree struct {
	File   *source.File
	Tokens []token.Token
	Nodes  *Arena[Node]
	Root   NodeID
}

type Hints struct{ Nodes uint }

// NewTree allocates an empty tree bound to file and its tokens.
func NewTree(file *source.File, toks []token.Token, hints Hints) *Tree {
	if hints.Nodes == 0 {
		hints.Nodes = uint(len(toks)) + 1
	}
	return &Tree{File: file, Tokens: toks, Nodes: NewArena[Node](hints.Nodes)}
}

// New allocates a node covering tokens [first, last] and adopts kids.
func (t *Tree) New(kind Kind, first, last int, kids ...NodeID) NodeID {
	id := NodeID(t.Nodes.Allocate(Node{Kind: kind, First: first, Last: last, NameTok: -1, AsTok: -1}))
	n := t.Get(id)
	n.Span = source.Span{Start: t.Tokens[first].Span.Start, End: t.Tokens[first].Span.Start}
	if last >= first {
		n.Span.End = t.Tokens[last].Span.End
	}
	for _, k := range kids {
		if k.IsValid() {
			n.Children = append(n.Children, k)
			t.Get(k).Parent = id
		}
	}
	return id
}

func (t *Tree) Get(id NodeID) *Node {
	return t.Nodes.Get(uint32(id))
}

func (t *Tree) Kind(id NodeID) Kind {
	if n := t.Get(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

func (t *Tree) Children(id NodeID) []NodeID {
	if n := t.Get(id); n != nil {
		return n.Children
	}
	return nil
}

// Child returns the first child with the given role.
func (t *Tree) Child(id NodeID, role Role) NodeID {
	for _, c := range t.Children(id) {
		if t.Get(c).Role == role {
			return c
		}
	}
	return NoNodeID
}

// ChildrenWith returns all children with the given role in source order.
func (t *Tree) ChildrenWith(id NodeID, role Role) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		if t.Get(c).Role == role {
			out = append(out, c)
		}
	}
	return out
}

// Text returns the exact source covered by the node.
func (t *Tree) Text(id NodeID) string {
	return t.File.Text(t.Get(id).Span)
}

// Pos returns the 1-based line/column of the node start.
func (t *Tree) Pos(id NodeID) source.LineCol {
	return t.File.Position(t.Get(id).Span.Start)
}

func (t *Tree) Line(id NodeID) int {
	return int(t.Pos(id).Line)
}

func (t *Tree) EndLine(id NodeID) int {
	return int(t.File.Position(t.Get(id).Span.End).Line)
}

// Render concatenates every token with its leading trivia.
func (t *Tree) Render() string {
	var b strings.Builder
	b.Grow(len(t.File.Content))
	for _, tok := range t.Tokens {
		tok.Render(&b)
	}
	return b.String()
}

// Stmts returns the statements of a Module or Suite.
func (t *Tree) Stmts(id NodeID) []NodeID {
	switch t.Kind(id) {
	case Module, Suite:
		return t.Children(id)
	default:
		return nil
	}
}

// Body returns the statement list of a module or the primary suite of a compound statement.
func (t *Tree) Body(id NodeID) []NodeID {
	if t.Kind(id) == Module {
		return t.Children(id)
	}
	return t.Stmts(t.Child(id, RoleBody))
}

// Suites returns every suite owned directly by a compound statement.
func (t *Tree) Suites(id NodeID) []NodeID {
	var out []NodeID
	for _, c := range t.Children(id) {
		switch t.Kind(c) {
		case Suite:
			out = append(out, c)
		case ExceptHandler:
			out = append(out, t.Child(c, RoleBody))
		case If:
			if t.Get(c).Role == RoleOrElse {
				out = append(out, t.Suites(c)...)
			}
		}
	}
	return out
}

// Parent returns the parent of id, or NoNodeID for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Get(id); n != nil {
		return n.Parent
	}
	return NoNodeID
}

// EnclosingStmt walks up to the nearest statement node (id itself included).
func (t *Tree) EnclosingStmt(id NodeID) NodeID {
	for cur := id; cur.IsValid(); cur = t.Parent(cur) {
		n := t.Get(cur)
		if n.Kind.IsStmt() && !(n.Kind == If && n.Has(FlagElif)) {
			return cur
		}
	}
	return NoNodeID
}

// EnclosingScope returns the nearest ancestor that opens a scope.
func (t *Tree) EnclosingScope(id NodeID) NodeID {
	for cur := t.Parent(id); cur.IsValid(); cur = t.Parent(cur) {
		if t.Kind(cur).OpensScope() {
			return cur
		}
	}
	return t.Root
}

// Docstring returns the leading string statement of a module, def, or class.
func (t *Tree) Docstring(id NodeID) NodeID {
	body := t.Body(id)
	if len(body) == 0 {
		return NoNodeID
	}
	first := body[0]
	if t.Kind(first) != ExprStmt {
		return NoNodeID
	}
	val := t.Children(first)
	if len(val) != 1 {
		return NoNodeID
	}
	c := t.Get(val[0])
	if c.Kind == Constant && c.Op == token.String && !c.Has(FlagFString) {
		return first
	}
	return NoNodeID
}

// Terminator returns the index of the ';' or Newline token ending a statement.
func (t *Tree) Terminator(stmt NodeID) int {
	i := t.Get(stmt).Last + 1
	for i < len(t.Tokens) && (t.Tokens[i].Kind == token.Dedent || t.Tokens[i].Kind == token.Indent) {
		i++
	}
	if i >= len(t.Tokens) {
		return len(t.Tokens) - 1
	}
	return i
}

// OwnsLines reports whether stmt starts its physical line and ends with a Newline.
func (t *Tree) OwnsLines(stmt NodeID) bool {
	n := t.Get(stmt)
	if t.Tokens[t.Terminator(stmt)].Kind != token.Newline {
		return false
	}
	for i := n.First - 1; i >= 0; i-- {
		switch t.Tokens[i].Kind {
		case token.Indent, token.Dedent:
			continue
		case token.Newline:
			return true
		default:
			return false
		}
	}
	return true
}

// LineExtent covers the statement's physical lines, from the start of its first
// line to just past its terminating newline. Only meaningful when OwnsLines.
func (t *Tree) LineExtent(stmt NodeID) source.Span {
	n := t.Get(stmt)
	start := t.File.LineStart(t.File.Position(n.Span.Start).Line)
	end := t.Tokens[t.Terminator(stmt)].Span.End
	return source.Span{Start: start, End: end}
}

// Indent returns the whitespace that precedes the statement on its first line.
func (t *Tree) Indent(stmt NodeID) string {
	n := t.Get(stmt)
	start := t.File.LineStart(t.File.Position(n.Span.Start).Line)
	return t.File.Text(source.Span{Start: start, End: n.Span.Start})
}
