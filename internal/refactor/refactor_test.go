package refactor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pytidy/internal/analysis"
	"pytidy/internal/ast"
	"pytidy/internal/config"
	"pytidy/internal/diag"
	"pytidy/internal/parser"
	"pytidy/internal/refactor"
	"pytidy/internal/source"
	"pytidy/internal/testkit"
	"pytidy/internal/testkit/minipy"
)

func rewrite(t *testing.T, src string, tweak func(*config.Config)) (*refactor.Result, string) {
	t.Helper()
	unit, err := parser.Parse(src)
	require.NoError(t, err)
	cfg := config.Default()
	if tweak != nil {
		tweak(&cfg)
	}
	res, err := refactor.Refactor(unit, nil, cfg)
	require.NoError(t, err)
	require.NoError(t, testkit.CheckSpanInvariants(res.Unit.Tree))
	return res, string(res.Unit.File.Content)
}

func passes(names ...string) func(*config.Config) {
	return func(c *config.Config) { c.EnabledPasses = names }
}

func kinds(res *refactor.Result) []string {
	out := make([]string, 0, len(res.Actions))
	for _, a := range res.Actions {
		out = append(out, a.Kind.String())
	}
	return out
}

func TestSquarePrinter(t *testing.T) {
	res, out := rewrite(t, "def do(a):\n    print(a*a)\n", nil)
	want := `"""Module defining do."""


def do(number):
    """Do."""
    print(number * number)
`
	assert.Equal(t, want, out)
	assert.Equal(t, 1, res.Count(refactor.RenameSymbol))
	assert.Equal(t, 2, res.Count(refactor.AddDocstring))

	after := analysis.Analyze(res.Unit, config.Default())
	for _, f := range after.Findings {
		assert.NotEqual(t, diag.MissingDocstring, f.Category, f.Message)
		assert.NotEqual(t, diag.Naming, f.Category, f.Message)
	}
}

func TestRemoveUnusedImports(t *testing.T) {
	res, out := rewrite(t, "import os\nimport sys\nimport json\n\nprint(json.dumps({}))\n", passes(config.PassImports))
	assert.Equal(t, "import json\n\nprint(json.dumps({}))\n", out)
	assert.Equal(t, []string{"remove-unused-import", "remove-unused-import"}, kinds(res))
}

func TestRemoveUnusedAlias(t *testing.T) {
	src := "from collections import OrderedDict, deque\n\nprint(deque())\n"
	res, out := rewrite(t, src, passes(config.PassImports))
	assert.Equal(t, "from collections import deque\n\nprint(deque())\n", out)
	assert.Equal(t, 1, res.Count(refactor.RemoveUnusedImport))
	assert.Equal(t, "collections.OrderedDict", res.Actions[0].Params["name"])
}

func TestKeepImportUsedInStringAnnotation(t *testing.T) {
	src := "import os\nimport typing\n\n\ndef first(items: 'typing.List'):\n    return items[0]\n"
	res, out := rewrite(t, src, passes(config.PassImports))
	assert.Equal(t, "import typing\n\n\ndef first(items: 'typing.List'):\n    return items[0]\n", out)
	assert.Equal(t, 1, res.Count(refactor.RemoveUnusedImport))
}

func TestSortImports(t *testing.T) {
	src := "import sys\nimport requests\nimport os\n\nprint(os, sys, requests)\n"
	res, out := rewrite(t, src, passes(config.PassImports))
	assert.Equal(t, "import os\nimport sys\n\nimport requests\n\nprint(os, sys, requests)\n", out)
	assert.Equal(t, 1, res.Count(refactor.SortImports))
}

func TestUnreachableCode(t *testing.T) {
	src := "def f(x):\n    return x\n    print(x)\n"
	res, out := rewrite(t, src, passes(config.PassDeadCode))
	assert.Equal(t, "def f(x):\n    return x\n", out)
	require.Len(t, res.Actions, 1)
	assert.Equal(t, "unreachable", res.Actions[0].Params["reason"])
	assert.Equal(t, "Return", res.Actions[0].Params["after"])
}

func TestUnusedLocals(t *testing.T) {
	src := "def f(n):\n    unused = 1\n    noisy = print(n)\n    return n\n"
	res, out := rewrite(t, src, passes(config.PassDeadCode))
	assert.Equal(t, "def f(n):\n    print(n)\n    return n\n", out)
	assert.Equal(t, 2, res.Count(refactor.RemoveDeadCode))
}

// Удаление мёртвого кода не меняет наблюдаемого поведения.
func TestDeadCodePreservesOutput(t *testing.T) {
	programs := []string{
		`def f(n):
    total = 0
    unused = n * 2
    for i in range(n):
        total += i
    return total
    print('never')


def g(x):
    if x > 1:
        return 'big'
        print('unreachable')
    scratch = [x, x]
    return 'small'


print(f(4), g(3), g(0))
`,
		`values = [3, 1, 2]
best = None
for v in values:
    if best is None or v > best:
        best = v
        continue
        print('skipped')
print(best)
`,
		`count = 0
while True:
    count += 1
    if count == 3:
        break
        print('after break')
print(count)
`,
	}
	for i, src := range programs {
		want, err := runSource(t, src)
		require.NoError(t, err, "program %d", i)

		res, out := rewrite(t, src, passes(config.PassDeadCode))
		got, err := minipy.Run(res.Unit.Tree, 10_000)
		require.NoError(t, err, "program %d:\n%s", i, out)
		assert.Equal(t, want, got, "program %d:\n%s", i, out)
		assert.Positive(t, res.Count(refactor.RemoveDeadCode), "program %d", i)
	}
}

func TestRenameIsAtomic(t *testing.T) {
	src := "def area(w, h):\n    return w * h\n"
	res, out := rewrite(t, src, passes(config.PassNaming))
	assert.Equal(t, 2, res.Count(refactor.RenameSymbol))

	tree := res.Unit.Tree
	fn := tree.Body(tree.Root)[0]
	var names []string
	for _, p := range tree.Children(tree.Child(fn, ast.RoleParams)) {
		names = append(names, tree.Get(p).Name)
	}
	require.Len(t, names, 2)
	assert.NotEqual(t, names[0], names[1])
	for _, n := range names {
		assert.NotContains(t, []string{"w", "h"}, n)
	}
	assert.Contains(t, out, "return "+names[0]+" * "+names[1])
}

func TestRenameKeepsNestedScopesApart(t *testing.T) {
	programs := []struct {
		name    string
		src     string
		renames int
	}{
		{"closure", "def f(p):\n    def g(a):\n        return a - p\n    return g(p * 2)\n\n\nprint(f(5))\n", 2},
		{"closure local", "def f(p):\n    def g(a):\n        t = a - p\n        return t\n    return g(p * 2)\n\n\nprint(f(5))\n", 3},
		{"lambda", "def f(p):\n    g = lambda number: number - p\n    return g(p * 2)\n\n\nprint(f(5))\n", 1},
		{"lambda default", "def f(p, q=1):\n    g = lambda value=q: value + p\n    return g() * p\n\n\nprint(f(4), f(2, 3))\n", 1},
	}
	for _, tt := range programs {
		t.Run(tt.name, func(t *testing.T) {
			want, err := runSource(t, tt.src)
			require.NoError(t, err)

			res, out := rewrite(t, tt.src, passes(config.PassNaming))
			got, err := minipy.Run(res.Unit.Tree, 10_000)
			require.NoError(t, err, out)
			assert.Equal(t, want, got, out)
			assert.GreaterOrEqual(t, res.Count(refactor.RenameSymbol), tt.renames, out)
			assert.Empty(t, res.Errors, out)
		})
	}
}

func TestRenameBlockedByKeywordCall(t *testing.T) {
	src := "def scale(v):\n    return v * 2\n\n\nprint(scale(v=3))\n"
	res, out := rewrite(t, src, passes(config.PassNaming))
	assert.Equal(t, src, out)
	assert.Zero(t, res.Count(refactor.RenameSymbol))
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, refactor.Missed, res.Errors[0].Kind)
	assert.Contains(t, res.Errors[0].Message, "'v' not renamed")
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

func TestExtractDuplicates(t *testing.T) {
	res, out := rewrite(t, duplicated, passes(config.PassExtract))
	require.Equal(t, 1, res.Count(refactor.ExtractFunction), out)
	assert.Equal(t, 3, strings.Count(out, "extracted_block_1("), out)
	assert.Contains(t, out, "def extracted_block_1(")
	assert.Contains(t, out, "    return extracted_block_1(items)\n")
	assert.Contains(t, out, "    return extracted_block_1(values)\n")

	after := analysis.Analyze(res.Unit, config.Default())
	for _, f := range after.Findings {
		assert.NotEqual(t, diag.Duplication, f.Category, f.Message)
	}

	// поведение сохраняется
	call := "\nprint(first([1, 2, 3]), second([4]))\n"
	want, err := runSource(t, duplicated+call)
	require.NoError(t, err)
	got, err := runSource(t, out+call)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func runSource(t *testing.T, src string) (string, error) {
	t.Helper()
	unit, err := parser.Parse(src)
	require.NoError(t, err)
	return minipy.Run(unit.Tree, 10_000)
}

func TestDocstrings(t *testing.T) {
	src := "def load_config(path):\n    return path\n"
	res, out := rewrite(t, src, passes(config.PassDocstrings))
	want := `"""Module defining load_config."""
def load_config(path):
    """Load config."""
    return path
`
	assert.Equal(t, want, out)
	assert.Equal(t, 2, res.Count(refactor.AddDocstring))
}

func TestSimplify(t *testing.T) {
	src := "x = not True\ny = 2 ** 10\nz = (a)\nif not (a in b):\n    pass\nok = True and ready\nv = a if False else b\n"
	res, out := rewrite(t, src, passes(config.PassSimplify))
	want := "x = False\ny = 1024\nz = a\nif a not in b:\n    pass\nok = ready\nv = b\n"
	assert.Equal(t, want, out)
	assert.Equal(t, 6, res.Count(refactor.SimplifyExpression))

	rules := map[string]bool{}
	for _, a := range res.Actions {
		rules[a.Params["rule"]] = true
	}
	for _, r := range []string{"not-constant", "constant-folding", "redundant-parentheses", "negated-comparison", "boolean-identity", "constant-condition"} {
		assert.True(t, rules[r], r)
	}
}

func TestSimplifyLeavesTuplesAndOverflow(t *testing.T) {
	src := "t = (a, b)\nbig = 2 ** 70\nneg = 1 - 5\ns = ('doc')\n"
	res, out := rewrite(t, src, passes(config.PassSimplify))
	assert.Contains(t, out, "t = (a, b)\n")
	assert.Contains(t, out, "big = 2 ** 70\n")
	assert.Contains(t, out, "neg = 1 - 5\n")
	assert.Contains(t, out, "s = 'doc'\n")
	assert.Equal(t, 1, res.Count(refactor.SimplifyExpression))
}

func TestFormat(t *testing.T) {
	src := "x=1\nif x :\n    y=[1,2 ,3]   # note   \n\n\n\n    z = y [0]\ndef f ( a , b = 2 ) :\n  return a+b\n"
	want := `x = 1
if x:
    y = [1, 2, 3]  # note

    z = y[0]


def f(a, b=2):
    return a + b
`
	res, out := rewrite(t, src, passes(config.PassFormat))
	assert.Equal(t, want, out)
	assert.Equal(t, 1, res.Count(refactor.Reformat))
}

func TestFormatSpacing(t *testing.T) {
	cases := []struct{ in, want string }{
		{"print (x , * args , ** kw)\n", "print(x, *args, **kw)\n"},
		{"y = - x + a [ 1 : 2 ]\n", "y = -x + a[1:2]\n"},
		{"d = {'k' :1}\n", "d = {'k': 1}\n"},
		{"def f(a : int=1, *, b = 2) -> int :\n    return a\n", "def f(a: int = 1, *, b=2) -> int:\n    return a\n"},
		{"f = lambda x=1 : x\n", "f = lambda x=1: x\n"},
		{"from . import mod\n", "from . import mod\n"},
		{"x = 1   \n\n\n", "x = 1\n"},
		{"x = 1", "x = 1\n"},
		{"if(x):\n\tpass\n", "if (x):\n    pass\n"},
		{"@ decorator\ndef f():\n    pass\n", "@decorator\ndef f():\n    pass\n"},
		{"call(a,\n      b)\n", "call(a,\n      b)\n"},
	}
	for _, tc := range cases {
		_, out := rewrite(t, tc.in, passes(config.PassFormat))
		assert.Equal(t, tc.want, out, "input %q", tc.in)
	}
}

func TestFormatBlankLines(t *testing.T) {
	src := "import os\ndef a():\n    pass\n\n\n\n\ndef b():\n    x = 1\n    def inner():\n        pass\n    return inner\nclass C:\n    def m(self):\n        pass\n    def n(self):\n        pass\nprint(os)\n"
	want := `import os


def a():
    pass


def b():
    x = 1

    def inner():
        pass

    return inner


class C:
    def m(self):
        pass

    def n(self):
        pass


print(os)
`
	_, out := rewrite(t, src, passes(config.PassFormat))
	assert.Equal(t, want, out)
}

func TestWrapLongLines(t *testing.T) {
	src := "result = compute(alpha, beta, gamma, delta, epsilon)\nfrom package import first_name, second_name, third_name\n"
	res, out := rewrite(t, src, func(c *config.Config) {
		c.EnabledPasses = []string{config.PassFormat}
		c.MaxLineLength = 40
	})
	want := `result = compute(
    alpha,
    beta,
    gamma,
    delta,
    epsilon,
)
from package import (
    first_name,
    second_name,
    third_name,
)
`
	assert.Equal(t, want, out)
	assert.Equal(t, 2, res.Count(refactor.Reformat))
}

func TestIdempotent(t *testing.T) {
	inputs := []string{
		"def do(a):\n    print(a*a)\n",
		"import sys\nimport os\nx=1\nif x :\n  y=(x)\n",
		duplicated,
		"def f(n):\n    unused = n\n    return n\n    print(n)\n",
	}
	for _, src := range inputs {
		_, once := rewrite(t, src, nil)
		res, twice := rewrite(t, once, nil)
		assert.Equal(t, once, twice)
		assert.Empty(t, res.Actions, "second run of %q applied %v", src, kinds(res))
	}
}

func TestPassFailureRollsBack(t *testing.T) {
	src := "def do(a):\n    print(a*a)\n"
	unit, err := parser.Parse(src)
	require.NoError(t, err)
	cfg := config.Default()
	cfg.EnabledPasses = []string{config.PassFormat}
	cfg.PerCheckNodeBudget = 3
	res, err := refactor.Refactor(unit, nil, cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Actions)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, refactor.Budget, res.Errors[0].Kind)
	assert.ErrorIs(t, res.Errors[0], refactor.ErrPassFailed)
	assert.Equal(t, src, string(res.Unit.File.Content))
}

// renameOncePass renames a leading "x" and reports a miss while doing so.
type renameOncePass struct{}

func (renameOncePass) Name() string { return "rename-once" }

func (renameOncePass) Plan(ctx *refactor.Context) []refactor.Change {
	if !strings.HasPrefix(string(ctx.File.Content), "x ") {
		return nil
	}
	ctx.Miss(1, "left a second name alone")
	return []refactor.Change{{
		Action: refactor.Action{Kind: refactor.RenameSymbol, Pass: "rename-once", Line: 1},
		Edits:  []refactor.TextEdit{{Span: source.Span{Start: 0, End: 1}, NewText: "y", OldText: "x"}},
	}}
}

func TestErrorsSurviveLaterRounds(t *testing.T) {
	unit, err := parser.Parse("x = 1\n")
	require.NoError(t, err)
	res, err := refactor.RefactorWith(unit, nil, config.Default(), refactor.Options{Passes: []refactor.Pass{renameOncePass{}}})
	require.NoError(t, err)
	assert.Equal(t, "y = 1\n", string(res.Unit.File.Content))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, refactor.Missed, res.Errors[0].Kind)
	assert.Equal(t, "left a second name alone", res.Errors[0].Message)
}

func TestNilUnit(t *testing.T) {
	_, err := refactor.Refactor(nil, nil, config.Default())
	assert.ErrorIs(t, err, refactor.ErrNilUnit)
}
