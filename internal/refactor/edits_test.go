package refactor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pytidy/internal/source"
)

func edit(start, end uint32, text string) TextEdit {
	return TextEdit{Span: source.Span{Start: start, End: end}, NewText: text}
}

func TestApplyChanges(t *testing.T) {
	content := []byte("alpha beta gamma")
	changes := []Change{
		{Action: Action{Kind: RenameSymbol, Line: 1}, Edits: []TextEdit{edit(0, 5, "a"), edit(11, 16, "g")}},
		// пересекается с первой правкой
		{Action: Action{Kind: Reformat, Line: 1}, Edits: []TextEdit{edit(3, 8, "x")}},
		{Action: Action{Kind: SimplifyExpression, Line: 1}, Edits: []TextEdit{edit(6, 10, "b")}},
		{Action: Action{Kind: AddDocstring, Line: 1}, Edits: []TextEdit{{Span: source.Span{Start: 5, End: 6}, NewText: "-", OldText: "?"}}},
	}
	out, applied, skipped := applyChanges(content, changes)
	assert.Equal(t, "a b g", string(out))
	require.Len(t, applied, 2)
	assert.Equal(t, RenameSymbol, applied[0].Kind)
	assert.Equal(t, SimplifyExpression, applied[1].Kind)
	require.Len(t, skipped, 2)
	assert.Equal(t, "conflicts with previously applied edits", skipped[0].Reason)
	assert.Contains(t, skipped[1].Reason, "does not match")
}

func TestApplyChangesRejectsSelfOverlap(t *testing.T) {
	changes := []Change{
		{Action: Action{Kind: Reformat}, Edits: []TextEdit{edit(0, 3, "x"), edit(2, 4, "y")}},
		{Action: Action{Kind: Reformat}, Edits: []TextEdit{edit(1, 1, "x"), edit(1, 1, "y")}},
		{Action: Action{Kind: Reformat}},
	}
	out, applied, skipped := applyChanges([]byte("abcd"), changes)
	assert.Equal(t, "abcd", string(out))
	assert.Empty(t, applied)
	require.Len(t, skipped, 3)
	assert.Equal(t, "change has overlapping edits", skipped[0].Reason)
	assert.Equal(t, "change has overlapping edits", skipped[1].Reason)
	assert.Equal(t, "change has no edits", skipped[2].Reason)
}

func TestSpansConflict(t *testing.T) {
	assert.False(t, spansConflict(edit(0, 2, ""), edit(2, 4, "")), "touching spans")
	assert.True(t, spansConflict(edit(0, 3, ""), edit(2, 4, "")))
	assert.True(t, spansConflict(edit(2, 2, "x"), edit(0, 4, "")), "insert inside a span")
	assert.False(t, spansConflict(edit(4, 4, "x"), edit(0, 4, "")), "insert at the end of a span")
}

func TestAlsoActionsAreApplied(t *testing.T) {
	ch := Change{
		Action: Action{Kind: RemoveUnusedImport, Params: map[string]string{"name": "os"}},
		Also:   []Action{{Kind: RemoveUnusedImport, Params: map[string]string{"name": "sys"}}},
		Edits:  []TextEdit{edit(0, 14, "")},
	}
	out, applied, _ := applyChanges([]byte("import os, sys\nx = 1\n"), []Change{ch})
	assert.Equal(t, "\nx = 1\n", string(out))
	assert.Len(t, applied, 2)
}
