package ast

// Inspect traverses the subtree rooted at id in pre-order. If fn returns
// false, the children of that node are skipped.
func (t *Tree) Inspect(id NodeID, fn func(NodeID) bool) {
	if !id.IsValid() || !fn(id) {
		return
	}
	for _, c := range t.Children(id) {
		t.Inspect(c, fn)
	}
}

// Walk calls enter before and leave after visiting the children of each node.
// Either callback may be nil. enter returning false skips the subtree and its leave.
func (t *Tree) Walk(id NodeID, enter func(NodeID) bool, leave func(NodeID)) {
	if !id.IsValid() {
		return
	}
	if enter != nil && !enter(id) {
		return
	}
	for _, c := range t.Children(id) {
		t.Walk(c, enter, leave)
	}
	if leave != nil {
		leave(id)
	}
}

// Count returns the number of nodes in the subtree.
func (t *Tree) Count(id NodeID) int {
	n := 0
	t.Inspect(id, func(NodeID) bool { n++; return true })
	return n
}

// Depth returns the expression nesting depth of the subtree, ignoring Paren wrappers.
func (t *Tree) Depth(id NodeID) int {
	best := 0
	for _, c := range t.Children(id) {
		if d := t.Depth(c); d > best {
			best = d
		}
	}
	if t.Kind(id) == Paren {
		return best
	}
	return best + 1
}
