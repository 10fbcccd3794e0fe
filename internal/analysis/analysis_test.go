package analysis_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pytidy/internal/analysis"
	"pytidy/internal/ast"
	"pytidy/internal/config"
	"pytidy/internal/diag"
	"pytidy/internal/parser"
)

func analyze(t *testing.T, src string, tweak func(*config.Config)) *analysis.Result {
	t.Helper()
	unit, err := parser.Parse(src)
	require.NoError(t, err)
	cfg := config.Default()
	if tweak != nil {
		tweak(&cfg)
	}
	return analysis.Analyze(unit, cfg)
}

func only(res *analysis.Result, cat diag.Category) []diag.Finding {
	var out []diag.Finding
	for _, f := range res.Findings {
		if f.Category == cat {
			out = append(out, f)
		}
	}
	return out
}

func lines(fs []diag.Finding) []int {
	out := make([]int, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Line)
	}
	return out
}

func symbols(fs []diag.Finding) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Symbol)
	}
	return out
}

func TestSquarePrinter(t *testing.T) {
	res := analyze(t, "def do(a):\n    print(a*a)\n", nil)
	require.False(t, res.Partial())

	docs := only(res, diag.MissingDocstring)
	require.Len(t, docs, 2)
	assert.Equal(t, []int{1, 1}, lines(docs))
	assert.Contains(t, symbols(docs), "do")

	names := only(res, diag.Naming)
	require.Len(t, names, 1)
	assert.Equal(t, 1, names[0].Line)
	assert.Equal(t, "a", names[0].Symbol)
	assert.Equal(t, 8, names[0].Column)
}

func TestUnusedImports(t *testing.T) {
	src := `from __future__ import annotations
import os
import sys
import json
from collections import OrderedDict as od, deque
import shutil as shutil

try:
    import ujson
except ImportError:
    ujson = None

print(json.dumps(deque()))
`
	got := only(analyze(t, src, nil), diag.UnusedImport)
	require.Len(t, got, 3)
	assert.Equal(t, []int{2, 3, 5}, lines(got))
	assert.Equal(t, "'os' imported but unused", got[0].Message)
	assert.Equal(t, "'collections.OrderedDict as od' imported but unused", got[2].Message)
}

func TestUnusedImportInsideFunction(t *testing.T) {
	src := "def load():\n    import pickle\n    return 1\n"
	got := only(analyze(t, src, nil), diag.UnusedImport)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Line)
}

func TestImportUsedInStringAnnotation(t *testing.T) {
	src := "import typing\nimport os\n\n\ndef first(items: 'typing.List'):\n    return items[0]\n"
	got := only(analyze(t, src, nil), diag.UnusedImport)
	require.Len(t, got, 1)
	assert.Equal(t, "'os' imported but unused", got[0].Message)
}

func TestUnusedVariables(t *testing.T) {
	src := `def compute_all():
    a_value = compute()
    used = 1
    first, second = pair()
    _ignored = 2
    for item in range(3):
        pass
    return used


result = compute_all()
`
	got := only(analyze(t, src, nil), diag.UnusedVariable)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, "a_value", got[0].Symbol)
}

func TestUnusedVariablesDynamicScope(t *testing.T) {
	src := "def render():\n    title = 'x'\n    return locals()\n"
	assert.Empty(t, only(analyze(t, src, nil), diag.UnusedVariable))

	src = "def render():\n    title = 'x'\n    return f'{title}!'\n"
	assert.Empty(t, only(analyze(t, src, nil), diag.UnusedVariable))
}

func TestLongFunction(t *testing.T) {
	src := `def short_one():
    """Doc."""
    first = 1
    second = 2
    return first + second


def long_one():
    first = 1
    if first:
        second = 2
    def helper():
        return 1
        return 2
    return first
`
	got := only(analyze(t, src, func(c *config.Config) { c.MaxFunctionLength = 3 }), diag.LongFunction)
	require.Len(t, got, 1)
	assert.Equal(t, 8, got[0].Line)
	assert.Equal(t, "function 'long_one' has 5 statements (max 3)", got[0].Message)
}

func TestStatementCount(t *testing.T) {
	unit, err := parser.Parse("def f():\n    '''d'''\n    if a:\n        b = 1\n    elif c:\n        d = 2\n    else:\n        e = 3\n")
	require.NoError(t, err)
	def := unit.Tree.Body(unit.Tree.Root)[0]
	assert.Equal(t, 4, analysis.StatementCount(unit.Tree, def))
}

func TestTooManyArguments(t *testing.T) {
	src := `class Shape:
    def resize(self, width, height, depth, scale, origin):
        return width

    def move(self, dx, dy, dz, speed, origin, target):
        return dx


def build(alpha, beta, gamma, delta, epsilon, zeta):
    return alpha
`
	got := only(analyze(t, src, nil), diag.TooManyArguments)
	require.Len(t, got, 2)
	assert.Equal(t, []int{5, 9}, lines(got))
	assert.Contains(t, got[0].Message, "takes 6 arguments (max 5)")
}

func TestMagicNumbers(t *testing.T) {
	src := `TIMEOUT = 30
LIMITS: tuple = (10, 20)


def scale(value):
    return value * 60 + 1 - 1


offset = -1
shift = -7
mixed = TIMEOUT, 45
`
	got := only(analyze(t, src, nil), diag.MagicNumber)
	require.Len(t, got, 3)
	assert.Equal(t, []int{6, 10, 11}, lines(got))
	assert.Equal(t, "-7", got[1].Symbol)
	assert.Equal(t, "45", got[2].Symbol)
}

func TestMagicNumberWhitelist(t *testing.T) {
	src := "def area(radius):\n    return 3.14 * radius * radius * 2\n"
	res := analyze(t, src, func(c *config.Config) { c.MagicNumberWhitelist = config.NumberSet{2, 3.14} })
	assert.Empty(t, only(res, diag.MagicNumber))
}

func TestNumberValue(t *testing.T) {
	cases := map[string]float64{
		"42":       42,
		"1_000":    1000,
		"0x1F":     31,
		"0o17":     15,
		"0b101":    5,
		"1.5e3":    1500,
		".5":       0.5,
		"2j":       2,
		"10_0.0_1": 100.01,
	}
	for lit, want := range cases {
		got, ok := analysis.NumberValue(lit)
		require.True(t, ok, lit)
		assert.InDelta(t, want, got, 1e-9, lit)
	}
}

func TestMissingDocstrings(t *testing.T) {
	src := `"""Module doc."""


def public():
    def nested():
        pass
    return nested


def _private():
    pass


class Widget:
    """Doc."""

    def draw(self):
        pass

    def _hidden(self):
        pass


class _Internal:
    def run(self):
        pass
`
	got := only(analyze(t, src, nil), diag.MissingDocstring)
	assert.Equal(t, []string{"public", "draw"}, symbols(got))
	assert.Equal(t, "method 'draw' is missing a docstring", got[1].Message)
}

func TestEmptyModuleNeedsNoDocstring(t *testing.T) {
	assert.Empty(t, only(analyze(t, "# nothing here\n", nil), diag.MissingDocstring))
}

func TestLineLength(t *testing.T) {
	src := "# " + strings.Repeat("a", 20) + "\nx = 1\n# 漢字漢字漢字\n"
	got := only(analyze(t, src, func(c *config.Config) { c.MaxLineLength = 10 }), diag.ExcessiveLineLength)
	require.Len(t, got, 2)
	assert.Equal(t, []int{1, 3}, lines(got))
	assert.Equal(t, 11, got[0].Column)
	assert.Equal(t, "line is 22 columns long (max 10)", got[0].Message)
	assert.Equal(t, "line is 14 columns long (max 10)", got[1].Message)
	assert.Equal(t, diag.SevInfo, got[0].Severity)
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 10, analysis.DisplayWidth("\tab"))
	assert.Equal(t, 12, analysis.DisplayWidth("ab\tcd\t"[:5]+"xx"))
	assert.Equal(t, 4, analysis.DisplayWidth("漢字"))
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

func TestDuplication(t *testing.T) {
	got := only(analyze(t, duplicated, nil), diag.Duplication)
	require.Len(t, got, 1)
	assert.Equal(t, 12, got[0].Line)
	assert.Equal(t, 18, got[0].EndLine)
	assert.Equal(t, "5 statements duplicate lines 2-8", got[0].Message)
	require.Len(t, got[0].Notes, 1)
	assert.Equal(t, 2, got[0].Notes[0].Line)
}

func TestDuplicatesGroups(t *testing.T) {
	unit, err := parser.Parse(duplicated)
	require.NoError(t, err)
	groups := analysis.Duplicates(unit.Tree, 4, nil)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Blocks, 2)
	for _, b := range groups[0].Blocks {
		assert.Len(t, b.Stmts, 5)
		assert.Equal(t, 0, b.Start)
	}

	// разные константы дают разную форму
	changed := strings.Replace(duplicated, "count += 1\n    print", "count += 2\n    print", 1)
	unit, err = parser.Parse(changed)
	require.NoError(t, err)
	assert.Empty(t, analysis.Duplicates(unit.Tree, 4, nil))
}

func TestComplexExpressions(t *testing.T) {
	src := `if alpha and beta and gamma:
    pass
if alpha and beta and gamma and delta:
    pass
if alpha and (beta or gamma or delta):
    pass
for a in xs:
    for b in ys:
        for c in zs:
            pass
for a in xs:
    def inner():
        for b in ys:
            for c in zs:
                pass
`
	got := only(analyze(t, src, nil), diag.ComplexExpression)
	require.Len(t, got, 3)
	assert.Equal(t, []int{3, 5, 9}, lines(got))
	assert.Equal(t, "loop nested 3 levels deep (max 2)", got[2].Message)
}

func TestExpressionDepth(t *testing.T) {
	src := "value = f(g(h(k(1))))\nother = 1\n"
	got := only(analyze(t, src, func(c *config.Config) { c.MaxExpressionDepth = 3 }), diag.ComplexExpression)
	require.Len(t, got, 1)
	assert.Equal(t, "expression nested 5 levels deep (max 3)", got[0].Message)
}

func TestGlobalState(t *testing.T) {
	src := `counter = 0


def bump():
    global counter
    counter += 1


def read():
    return counter
`
	got := only(analyze(t, src, nil), diag.GlobalState)
	require.Len(t, got, 1)
	assert.Equal(t, 6, got[0].Line)
	assert.Contains(t, got[0].Message, "'bump'")
}

func TestNaming(t *testing.T) {
	src := `class my_thing:
    def doThing(self, q):
        tmp = q
        for i in range(3):
            print(i)
        try:
            pass
        except ValueError as e:
            print(e)
        return tmp
`
	got := only(analyze(t, src, nil), diag.Naming)
	assert.Equal(t, []string{"my_thing", "doThing", "q", "tmp"}, symbols(got))
	assert.Equal(t, "class name 'my_thing' should use CapWords", got[0].Message)
	assert.Equal(t, "parameter 'q' has a non-descriptive name", got[2].Message)
}

func TestNamePredicates(t *testing.T) {
	assert.True(t, analysis.IsSnakeCase("load_file2"))
	assert.True(t, analysis.IsSnakeCase("__init__"))
	assert.True(t, analysis.IsSnakeCase("_private"))
	assert.False(t, analysis.IsSnakeCase("loadFile"))
	assert.True(t, analysis.IsCapWords("HTTPServer"))
	assert.False(t, analysis.IsCapWords("http_server"))
	assert.Equal(t, "load_file", analysis.SnakeCase("loadFile"))
	assert.Equal(t, "http_server", analysis.SnakeCase("HTTPServer"))
	assert.Equal(t, "HttpServer", analysis.CapWords("http_server"))
	assert.Equal(t, "_Private", analysis.CapWords("_private"))

	cfg := config.Default()
	assert.True(t, analysis.PoorName(cfg, "q"))
	assert.True(t, analysis.PoorName(cfg, "tmp"))
	assert.False(t, analysis.PoorName(cfg, "i"))
	assert.False(t, analysis.PoorName(cfg, "total"))
}

func TestEnabledChecks(t *testing.T) {
	res := analyze(t, "import os\nvalue = 42\n", func(c *config.Config) {
		c.EnabledChecks = []string{diag.MagicNumber.String()}
	})
	require.Len(t, res.Findings, 1)
	assert.Equal(t, diag.MagicNumber, res.Findings[0].Category)
}

func TestFindingsAreDeterministic(t *testing.T) {
	src := duplicated + "\nimport os\nX = 3\nvalue = 99\n\n\ndef doIt(a, b, c, d, e, f):\n    tmp = a and b and c and d\n    return 7\n"
	first := analyze(t, src, nil)
	for range 5 {
		again := analyze(t, src, nil)
		require.Equal(t, first.Findings, again.Findings)
		require.Equal(t, diag.FormatGolden(first.Findings, true), diag.FormatGolden(again.Findings, true))
	}
	assert.True(t, sort.SliceIsSorted(first.Findings, func(i, j int) bool {
		return diag.Less(first.Findings[i], first.Findings[j])
	}))
}

// exploding reports every name it sees and panics on one of them.
type exploding struct{}

func (exploding) Category() diag.Category { return diag.Naming }

func (exploding) Visit(ctx *analysis.Context, id ast.NodeID) {
	n := ctx.Tree.Get(id)
	if n.Kind != ast.Name {
		return
	}
	ctx.Warn(id, "saw "+n.Name)
	if n.Name == "boom" {
		panic("cannot handle boom")
	}
}

func (exploding) Finish(*analysis.Context) {}

func TestCheckFailureKeepsOtherNodes(t *testing.T) {
	unit, err := parser.Parse("a = 1\nboom = 2\nc = 3\n")
	require.NoError(t, err)
	res := analysis.AnalyzeWith(unit, config.Default(), analysis.Options{Checks: []analysis.Check{exploding{}}})

	require.True(t, res.Partial())
	require.Len(t, res.Failures, 1)
	assert.Equal(t, analysis.CheckFailure, res.Failures[0].Kind)
	assert.Equal(t, 2, res.Failures[0].Line)
	assert.Equal(t, "cannot handle boom", res.Failures[0].Reason)

	var msgs []string
	for _, f := range res.Findings {
		msgs = append(msgs, f.Message)
	}
	assert.Equal(t, []string{"saw a", "saw c"}, msgs)
}

func TestBudgetStopsCheck(t *testing.T) {
	unit, err := parser.Parse("a = 1\nb = 2\n")
	require.NoError(t, err)
	cfg := config.Default()
	cfg.PerCheckNodeBudget = 3
	res := analysis.AnalyzeWith(unit, cfg, analysis.Options{Checks: []analysis.Check{exploding{}}})

	require.Len(t, res.Failures, 1)
	assert.Equal(t, analysis.BudgetExceeded, res.Failures[0].Kind)
	assert.Equal(t, diag.Naming, res.Failures[0].Check)
	require.Len(t, res.Findings, 1)
	assert.Equal(t, "saw a", res.Findings[0].Message)
}

func TestBudgetWithDefaultChecks(t *testing.T) {
	res := analyze(t, duplicated, func(c *config.Config) { c.PerCheckNodeBudget = 10 })
	require.True(t, res.Partial())
	seen := map[diag.Category]int{}
	for _, f := range res.Failures {
		assert.Equal(t, analysis.BudgetExceeded, f.Kind)
		seen[f.Check]++
	}
	for cat, n := range seen {
		assert.Equal(t, 1, n, cat.String())
	}
	assert.Contains(t, seen, diag.Duplication)
}
