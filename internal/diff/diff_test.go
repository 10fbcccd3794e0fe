package diff_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pytidy/internal/analysis"
	"pytidy/internal/diag"
	"pytidy/internal/diff"
	"pytidy/internal/refactor"
)

func TestSplitLines(t *testing.T) {
	assert.Nil(t, diff.SplitLines(""))
	assert.Equal(t, []string{"a\n", "b"}, diff.SplitLines("a\nb"))
	assert.Equal(t, []string{"a\r\n", "\n"}, diff.SplitLines("a\r\n\n"))
}

func TestReconstruct(t *testing.T) {
	cases := []struct{ name, a, b string }{
		{"identical", "x = 1\ny = 2\n", "x = 1\ny = 2\n"},
		{"empty to text", "", "x = 1\n"},
		{"text to empty", "x = 1\n", ""},
		{"insert middle", "a\nc\n", "a\nb\nc\n"},
		{"delete middle", "a\nb\nc\n", "a\nc\n"},
		{"no final newline", "a\nb", "a\nb\n"},
		{"reordered", "import sys\nimport os\n", "import os\nimport sys\n"},
		{"rewrite", "def do(a):\n    print(a*a)\n", "def do(number):\n    \"\"\"Do.\"\"\"\n    print(number * number)\n"},
		{"crlf", "a\r\nb\r\n", "a\r\nc\r\nb\r\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entries := diff.Lines(tc.a, tc.b)
			assert.Equal(t, tc.b, diff.Reconstruct(entries))
			assert.Equal(t, tc.a, diff.ReconstructOld(entries))

			oldAt, newAt := 0, 0
			for _, e := range entries {
				assert.Equal(t, oldAt, e.OldStart, "entries are contiguous on the old side")
				assert.Equal(t, newAt, e.NewStart, "entries are contiguous on the new side")
				oldAt, newAt = e.OldEnd, e.NewEnd
			}
			assert.Equal(t, len(diff.SplitLines(tc.a)), oldAt)
			assert.Equal(t, len(diff.SplitLines(tc.b)), newAt)
		})
	}
}

func TestMinimalAlignment(t *testing.T) {
	entries := diff.Lines("a\nb\nc\nd\n", "a\nc\nd\ne\n")
	require.Len(t, entries, 4)
	assert.Equal(t, diff.Equal, entries[0].Op)
	assert.Equal(t, diff.Delete, entries[1].Op)
	assert.Equal(t, "b\n", entries[1].OldText)
	assert.Equal(t, diff.Equal, entries[2].Op)
	assert.Equal(t, "c\nd\n", entries[2].NewText)
	assert.Equal(t, diff.Insert, entries[3].Op)
	assert.Equal(t, 3, entries[3].NewStart)
}

func TestReplaceOnlyForSimilarBlocks(t *testing.T) {
	entries := diff.Lines("x = 1\nprint(a*a)\n", "x = 1\nprint(a * a)\n")
	require.Len(t, entries, 2)
	assert.Equal(t, diff.Replace, entries[1].Op)
	assert.Equal(t, "print(a*a)\n", entries[1].OldText)
	assert.Equal(t, "print(a * a)\n", entries[1].NewText)

	entries = diff.Lines("x = 1\nprint(a*a)\n", "x = 1\nreturn None\n")
	require.Len(t, entries, 3)
	assert.Equal(t, diff.Delete, entries[1].Op)
	assert.Equal(t, diff.Insert, entries[2].Op)
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, diff.Similarity("abc\n", "abc"), 1e-9)
	assert.InDelta(t, 1.0, diff.Similarity("", "\n"), 1e-9)
	assert.InDelta(t, 0.75, diff.Similarity("abcd", "abce"), 1e-9)
	assert.InDelta(t, 0.0, diff.Similarity("ab", "cd"), 1e-9)
}

func TestLargeInput(t *testing.T) {
	var a, b strings.Builder
	for i := 0; i < 2000; i++ {
		line := strings.Repeat("x", i%17) + "\n"
		a.WriteString(line)
		if i%7 != 0 {
			b.WriteString(line)
		}
		if i%11 == 0 {
			b.WriteString("new\n")
		}
	}
	entries := diff.Lines(a.String(), b.String())
	assert.Equal(t, b.String(), diff.Reconstruct(entries))
}

func TestCompareReport(t *testing.T) {
	before := []diag.Finding{
		diag.AtLine(diag.UnusedImport, diag.SevWarning, 1, "os"),
		diag.AtLine(diag.UnusedImport, diag.SevWarning, 2, "sys"),
		diag.AtLine(diag.Naming, diag.SevInfo, 4, "a"),
	}
	after := []diag.Finding{
		diag.AtLine(diag.Naming, diag.SevInfo, 2, "a"),
	}
	actions := []refactor.Action{
		{Kind: refactor.RemoveUnusedImport, Line: 1, Description: "remove os"},
		{Kind: refactor.RemoveUnusedImport, Line: 2, Description: "remove sys"},
	}
	original := "import os\nimport sys\nimport re\nre.compile('a')\n"
	transformed := "import re\nre.compile('a')\n"
	entries, rep := diff.Compare(original, transformed, before, after, actions)
	assert.Equal(t, transformed, diff.Reconstruct(entries))

	assert.Equal(t, diff.CategoryCount{Category: diag.UnusedImport, Before: 2, After: 0}, rep.Count(diag.UnusedImport))
	assert.Equal(t, 2, rep.Count(diag.UnusedImport).Fixed())
	assert.Equal(t, 0, rep.Count(diag.Naming).Fixed())
	assert.Equal(t, 0, rep.Count(diag.MagicNumber).Before)
	b, a, fixed := rep.Totals()
	assert.Equal(t, []int{3, 1, 2}, []int{b, a, fixed})
	assert.Equal(t, 2, rep.ActionCount(refactor.RemoveUnusedImport))
	assert.Equal(t, diff.LineDelta{Before: 4, After: 2, Removed: 2}, rep.Lines)
	assert.True(t, rep.Changed())
	assert.False(t, rep.Partial)

	sum := rep.Summary()
	assert.Contains(t, sum, "findings: 3 before, 1 after, 2 fixed")
	assert.Contains(t, sum, "unused-import")
	assert.Contains(t, sum, "remove-unused-import at line 1: remove os")
	assert.Contains(t, sum, "lines: 4 -> 2 (+0 -2 ~0)")
}

func TestNoteMarksPartial(t *testing.T) {
	_, rep := diff.Compare("x = 1\n", "x = 1\n", nil, nil, nil)
	assert.False(t, rep.Changed())

	rep.Note(nil, []*refactor.Error{{Kind: refactor.Missed, Pass: "extract", Message: "ambiguous"}})
	assert.False(t, rep.Partial, "missed opportunities are not failures")

	rep.Note([]analysis.Failure{{Check: diag.Duplication, Kind: analysis.BudgetExceeded, Reason: "node budget"}}, nil)
	assert.True(t, rep.Partial)
	assert.Contains(t, rep.Summary(), "result is partial")

	_, rep = diff.Compare("x = 1\n", "x = 1\n", nil, nil, nil)
	rep.Note(nil, []*refactor.Error{{Kind: refactor.Reparse, Pass: "format", Message: "bad"}})
	assert.True(t, rep.Partial)
}
