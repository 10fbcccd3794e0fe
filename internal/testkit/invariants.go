package testkit

import (
	"fmt"

	"pytidy/internal/ast"
)

// CheckSpanInvariants runs the structural invariants on a parsed tree:
// 1) the root span covers the whole file content
// 2) every node span lies inside its parent span
// 3) siblings are ordered by position and do not overlap
// 4) every child points back to its parent
// 5) rendering the token stream reproduces the file byte-for-byte
func CheckSpanInvariants(tree *ast.Tree) error {
	if tree == nil || tree.File == nil {
		return fmt.Errorf("nil tree or file")
	}
	root := tree.Get(tree.Root)
	if root == nil {
		return fmt.Errorf("root node not found")
	}
	if root.Span.Start != 0 || root.Span.End != tree.File.Len() {
		return fmt.Errorf("root span %v does not cover content [0,%d)", root.Span, tree.File.Len())
	}
	if got := tree.Render(); got != string(tree.File.Content) {
		return fmt.Errorf("render mismatch: got %q want %q", got, string(tree.File.Content))
	}

	var err error
	tree.Inspect(tree.Root, func(id ast.NodeID) bool {
		if err != nil {
			return false
		}
		n := tree.Get(id)
		if n.Span.End < n.Span.Start {
			err = fmt.Errorf("%s node has inverted span %v", n.Kind, n.Span)
			return false
		}
		var prev *ast.Node
		for _, c := range n.Children {
			child := tree.Get(c)
			if child.Parent != id {
				err = fmt.Errorf("%s child of %s has parent %d, want %d", child.Kind, n.Kind, child.Parent, id)
				return false
			}
			if !n.Span.Contains(child.Span) {
				err = fmt.Errorf("%s span %v is outside parent %s span %v", child.Kind, child.Span, n.Kind, n.Span)
				return false
			}
			if prev != nil && child.Span.Start < prev.Span.End {
				err = fmt.Errorf("%s span %v overlaps or precedes sibling %s span %v", child.Kind, child.Span, prev.Kind, prev.Span)
				return false
			}
			prev = child
		}
		return true
	})
	return err
}
