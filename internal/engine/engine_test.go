package engine_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pytidy/internal/config"
	"pytidy/internal/diag"
	"pytidy/internal/diff"
	"pytidy/internal/engine"
	"pytidy/internal/parser"
	"pytidy/internal/refactor"
)

func run(t *testing.T, src string, opts ...engine.Option) *engine.Output {
	t.Helper()
	out, err := engine.Run(src, config.Default(), opts...)
	require.NoError(t, err)
	require.Equal(t, out.TransformedText, diff.Reconstruct(out.Diff), "diff must rebuild the output")
	return out
}

func count(findings []diag.Finding, cat diag.Category) int {
	n := 0
	for _, f := range findings {
		if f.Category == cat {
			n++
		}
	}
	return n
}

func TestDocstringAndRename(t *testing.T) {
	out := run(t, "def do(a):\n    print(a*a)\n")

	var naming *diag.Finding
	for i, f := range out.FindingsBefore {
		if f.Category == diag.Naming {
			naming = &out.FindingsBefore[i]
		}
	}
	require.NotNil(t, naming)
	assert.Equal(t, 1, naming.Line)
	assert.Positive(t, count(out.FindingsBefore, diag.MissingDocstring))

	assert.Contains(t, out.TransformedText, `"""`)
	assert.NotContains(t, out.TransformedText, "def do(a)")
	assert.Zero(t, count(out.FindingsAfter, diag.MissingDocstring))
	assert.Zero(t, count(out.FindingsAfter, diag.Naming))
	assert.Equal(t, 1, out.Report.ActionCount(refactor.RenameSymbol))
	assert.True(t, out.Changed())
}

func TestUnusedImportsRemoved(t *testing.T) {
	src := "import os\nimport sys\nimport json\n\nprint(json.dumps({}))\n"
	out := run(t, src, engine.WithPasses())
	assert.Equal(t, src, out.TransformedText, "an empty pass list changes nothing")

	cfg := config.Default()
	cfg.EnabledPasses = []string{config.PassImports}
	res, err := engine.Run(src, cfg)
	require.NoError(t, err)
	assert.Equal(t, "import json\n\nprint(json.dumps({}))\n", res.TransformedText)
	assert.Equal(t, 2, res.Report.ActionCount(refactor.RemoveUnusedImport))
	assert.Len(t, res.Report.Actions, 2)
	assert.Equal(t, 2, res.Report.Count(diag.UnusedImport).Fixed())
	assert.Equal(t, diff.LineDelta{Before: 5, After: 3, Removed: 2}, res.Report.Lines)

	full := run(t, src)
	assert.Contains(t, full.TransformedText, "import json\n")
	assert.NotContains(t, full.TransformedText, "import os")
	assert.NotContains(t, full.TransformedText, "import sys")
	assert.Equal(t, 2, full.Report.ActionCount(refactor.RemoveUnusedImport))
}

const duplicated = `def first(items):
    total = 0
    count = 0
    for item in items:
        total += item
        count += 1
    print(total, count)
    return total


def second(values):
    total = 0
    count = 0
    for value in values:
        total += value
        count += 1
    print(total, count)
    return total
`

func TestDuplicateBodiesExtracted(t *testing.T) {
	out := run(t, duplicated)
	assert.Positive(t, count(out.FindingsBefore, diag.Duplication))
	assert.Equal(t, 1, out.Report.ActionCount(refactor.ExtractFunction))
	assert.Equal(t, 1, strings.Count(out.TransformedText, "def extracted_block_1("))
	assert.Equal(t, 3, strings.Count(out.TransformedText, "extracted_block_1("))
	assert.Zero(t, count(out.FindingsAfter, diag.Duplication))
}

func TestMalformedInput(t *testing.T) {
	out, err := engine.Run("def f(:\n", config.Default())
	assert.Nil(t, out)
	var pe *parser.Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Line)
	assert.GreaterOrEqual(t, pe.Column, 1)
	assert.LessOrEqual(t, pe.Column, 8)
}

func TestIdempotent(t *testing.T) {
	for _, src := range []string{
		"def do(a):\n    print(a*a)\n",
		"import sys\nimport os\nx=1\nif x :\n  y=(x)\n",
		duplicated,
	} {
		once := run(t, src)
		twice := run(t, once.TransformedText)
		assert.Equal(t, once.TransformedText, twice.TransformedText)
		assert.Empty(t, twice.Report.Actions)
		assert.False(t, twice.Changed())
	}
}

func TestAnalyzeOnly(t *testing.T) {
	src := "def do(a):\n    print(a*a)\n"
	out := run(t, src, engine.AnalyzeOnly(), engine.WithPath("sq.py"))
	assert.Equal(t, "sq.py", out.Path)
	assert.Equal(t, src, out.TransformedText)
	assert.Equal(t, out.FindingsBefore, out.FindingsAfter)
	require.Len(t, out.Diff, 1)
	assert.Equal(t, diff.Equal, out.Diff[0].Op)
	assert.Empty(t, out.Report.Actions)
	assert.False(t, out.Changed())
}

func TestDeterministic(t *testing.T) {
	a := run(t, duplicated)
	b := run(t, duplicated)
	assert.Equal(t, a.FindingsBefore, b.FindingsBefore)
	assert.Equal(t, a.FindingsAfter, b.FindingsAfter)
	assert.Equal(t, a.TransformedText, b.TransformedText)
	assert.Equal(t, a.Diff, b.Diff)
}

func TestBudgetMarksPartial(t *testing.T) {
	cfg := config.Default()
	cfg.PerCheckNodeBudget = 3
	out, err := engine.Run(duplicated, cfg)
	require.NoError(t, err)
	assert.True(t, out.Report.Partial)
	assert.NotEmpty(t, out.Report.Failures)
	assert.Equal(t, out.TransformedText, diff.Reconstruct(out.Diff))
}

func TestPhases(t *testing.T) {
	var events []engine.PhaseEvent
	out := run(t, "def do(a):\n    print(a*a)\n", engine.WithPhaseObserver(func(ev engine.PhaseEvent) {
		events = append(events, ev)
	}))

	var names []string
	for _, p := range out.Timings.Phases {
		if !strings.Contains(p.Name, "/") {
			names = append(names, p.Name)
		}
	}
	assert.Equal(t, []string{engine.PhaseParse, engine.PhaseAnalyze, engine.PhaseRefactor, engine.PhaseReanalyze, engine.PhaseDiff}, names)

	require.NotEmpty(t, events)
	assert.Equal(t, engine.PhaseEvent{Name: engine.PhaseParse, Status: engine.PhaseStart}, events[0])
	last := events[len(events)-1]
	assert.Equal(t, engine.PhaseDiff, last.Name)
	assert.Equal(t, engine.PhaseEnd, last.Status)
}
