package parser

import (
	"pytidy/internal/ast"
	"pytidy/internal/source"
)

// Unit is a parsed source text: the original bytes plus the tree over them.
// A Unit is immutable; rewrites produce new text that is parsed into a new Unit.
type Unit struct {
	File *source.File
	Tree *ast.Tree
}

// Text returns the original source.
func (u *Unit) Text() string {
	return string(u.File.Content)
}

// Render re-serializes the token stream; it always equals Text().
func (u *Unit) Render() string {
	return u.Tree.Render()
}

// Root returns the module node.
func (u *Unit) Root() ast.NodeID {
	return u.Tree.Root
}
