package parser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pytidy/internal/ast"
	"pytidy/internal/parser"
	"pytidy/internal/testkit"
)

var roundTripCorpus = map[string]string{
	"empty":         "",
	"blank_lines":   "\n\n\n",
	"comment_only":  "# just a comment\n",
	"no_final_nl":   "x = 1",
	"crlf":          "def f(a):\r\n    return a\r\n",
	"tabs":          "if x:\n\ty = 1\n\tz = 2\n",
	"trailing_ws":   "x = 1   \n\ny = 2\t\n",
	"semicolons":    "a = 1; b = 2;\n",
	"inline_suite":  "if a: b = 1; c = 2\nelse: pass\n",
	"continuation":  "total = 1 + \\\n    2\n",
	"comment_after": "def f():\n    return 1\n    # trailing\n# end\n",
	"decorators": `@property
@cache(size=3)
async def fetch(self, *, url: str = "x", **kw) -> dict:
    async with session(url) as s, other() as o:
        async for chunk in s:
            yield chunk
`,
	"classes": `class Base(object, metaclass=Meta):
    """Doc."""

    attr: int = 3

    def method(self, a, /, b, *args, c=1, **kwargs):
        return (a, b,)
`,
	"control": `for i, (a, *rest) in enumerate(items):
    if a:
        continue
    elif not a:
        break
    else:
        pass
else:
    print("done")
while x < 10 and y is not None or not z:
    x += 1
try:
    risky()
except (ValueError, TypeError) as err:
    raise RuntimeError("bad") from err
except Exception:
    raise
else:
    ok = True
finally:
    cleanup()
`,
	"expressions": `value = [x ** 2 for x in range(10) if x % 2 if x > 3]
mapping = {k: v for k, v in pairs}
unique = {a for a in seq}
gen = (n for n in nums)
call(*args, key=1, **opts)
sliced = data[1:2, ::3, ...]
cond = a if b else c
fn = lambda x, y=2: x + y
if (n := len(a)) > 10:
    pass
merged = {**base, "k": 1}
s = "abc" 'def' f"{x}"
b = b"raw" rb'x'
nums = 0x_fF + 0o17 + 0b1 + 1_000.5e-3 + 3j
neg = -x ** -y
cmp = a < b <= c != d not in e
assert x, "message"
del a[0], b.c
global g
`,
	"imports": `from __future__ import annotations
import os, sys as system
from . import sibling
from ..pkg.mod import (
    alpha,
    beta as b,
)
from mod import *
`,
	"nested_brackets": `result = call(
    1,  # first
    [2,
     3],
)
`,
	"unicode": "имя = 'значение'  # комментарий\n",
}

func TestRoundTrip(t *testing.T) {
	for name, src := range roundTripCorpus {
		t.Run(name, func(t *testing.T) {
			unit, err := parser.Parse(src)
			require.NoError(t, err)
			require.Equal(t, src, unit.Render())
			require.NoError(t, testkit.CheckSpanInvariants(unit.Tree))
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"bad_param", "def f(:\n", 1, "parameter name"},
		{"missing_colon", "if x\n    pass\n", 1, "':'"},
		{"unterminated_string", "x = 'abc\n", 1, "string"},
		{"bad_indent", "def f():\npass\n", 2, "indented block"},
		{"unexpected_indent", "x = 1\n    y = 2\n", 2, "unexpected indent"},
		{"assign_call", "f() = 1\n", 1, "function call"},
		{"unbalanced", "x = (1, 2\n", 1, "never closed"},
		{"except_star", "try:\n    pass\nexcept* E:\n    pass\n", 3, "except*"},
		{"default_order", "def f(a=1, b):\n    pass\n", 1, "default"},
		{"mix_bytes", "x = b'a' 'b'\n", 1, "bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unit, err := parser.Parse(tt.src)
			require.Nil(t, unit)
			require.Error(t, err)
			var perr *parser.Error
			require.True(t, errors.As(err, &perr), "want *parser.Error, got %T", err)
			require.GreaterOrEqual(t, perr.Line, 1)
			if tt.line > 0 {
				require.Equal(t, tt.line, perr.Line, "error: %v", perr)
			}
			if tt.msg != "" {
				require.Contains(t, perr.Msg, tt.msg)
			}
		})
	}
}

func TestErrorInsideMalformedRegion(t *testing.T) {
	tests := []struct {
		src        string
		line, col  int
		msgContain string
	}{
		{"def f(:\n", 1, 7, "parameter name"},
		{"x = [1,\n", 1, 5, "'[' was never closed"},
		{"foo(a, \ny = 2\n", 1, 4, "'(' was never closed"},
		{"x = 1)\n", 1, 6, "unmatched ')'"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			unit, err := parser.Parse(tt.src)
			require.Nil(t, unit)
			var perr *parser.Error
			require.ErrorAs(t, err, &perr)
			require.Equal(t, tt.line, perr.Line, "error: %v", perr)
			require.Equal(t, tt.col, perr.Column, "error: %v", perr)
			require.Contains(t, perr.Msg, tt.msgContain)
		})
	}
}

func TestAssignStructure(t *testing.T) {
	unit, err := parser.Parse("a = b = f(x, y=1)\n")
	require.NoError(t, err)
	want := `Module [1:1]
  Assign [1:1]
    Name/target a store [1:1]
    Name/target b store [1:5]
    Call/value [1:9]
      Name/func f [1:9]
      Name/arg x [1:11]
      Keyword/arg y [1:14]
        Constant/value 1 [1:16]
`
	require.Equal(t, want, unit.Tree.Dump(unit.Root()))
}

func TestElifChain(t *testing.T) {
	unit, err := parser.Parse("if a:\n    x = 1\nelif b:\n    x = 2\nelse:\n    x = 3\n")
	require.NoError(t, err)
	tree := unit.Tree
	stmts := tree.Stmts(unit.Root())
	require.Len(t, stmts, 1)
	elif := tree.Child(stmts[0], ast.RoleOrElse)
	require.Equal(t, ast.If, tree.Kind(elif))
	require.True(t, tree.Get(elif).Has(ast.FlagElif))
	require.Len(t, tree.Suites(stmts[0]), 3)
	require.Equal(t, stmts[0], tree.EnclosingStmt(tree.Child(elif, ast.RoleTest)))
}

func TestFunctionShape(t *testing.T) {
	src := "@dec\ndef run(self, a: int, *rest, key=None, **extra) -> bool:\n    \"\"\"Run it.\"\"\"\n    return True\n"
	unit, err := parser.Parse(src)
	require.NoError(t, err)
	tree := unit.Tree
	fn := tree.Stmts(unit.Root())[0]
	n := tree.Get(fn)
	require.Equal(t, ast.FunctionDef, n.Kind)
	require.Equal(t, "run", n.Name)
	require.Equal(t, "run", tree.Tokens[n.NameTok].Text)
	require.Len(t, tree.ChildrenWith(fn, ast.RoleDecorator), 1)
	require.Equal(t, 1, tree.Line(fn))

	params := tree.Children(tree.Child(fn, ast.RoleParams))
	var names []string
	for _, p := range params {
		names = append(names, tree.Get(p).Name)
	}
	require.Equal(t, []string{"self", "a", "rest", "key", "extra"}, names)
	require.True(t, tree.Get(params[2]).Has(ast.FlagStar))
	require.True(t, tree.Get(params[4]).Has(ast.FlagDoubleStar))
	require.True(t, tree.Child(params[1], ast.RoleAnnotation).IsValid())
	require.True(t, tree.Child(params[3], ast.RoleDefault).IsValid())

	doc := tree.Docstring(fn)
	require.True(t, doc.IsValid())
	require.Equal(t, `"""Run it."""`, tree.Text(doc))
	require.Equal(t, ast.Name, tree.Kind(tree.Child(fn, ast.RoleReturns)))
}

func TestImportFromShape(t *testing.T) {
	unit, err := parser.Parse("from ..pkg import (a, b as c,)\n")
	require.NoError(t, err)
	tree := unit.Tree
	imp := tree.Stmts(unit.Root())[0]
	n := tree.Get(imp)
	require.Equal(t, ast.ImportFrom, n.Kind)
	require.Equal(t, 2, n.Level)
	require.Equal(t, "pkg", n.Name)
	aliases := tree.Children(imp)
	require.Len(t, aliases, 2)
	require.Equal(t, "b", tree.Get(aliases[1]).Name)
	require.Equal(t, "c", tree.Get(aliases[1]).AsName)
}

func TestChainedComparison(t *testing.T) {
	unit, err := parser.Parse("r = a is not b not in c\n")
	require.NoError(t, err)
	tree := unit.Tree
	cmp := tree.Child(tree.Stmts(unit.Root())[0], ast.RoleValue)
	require.Equal(t, ast.Compare, tree.Kind(cmp))
	require.Equal(t, []ast.CmpOp{ast.CmpIsNot, ast.CmpNotIn}, tree.Get(cmp).Ops)
}

func TestPrecedence(t *testing.T) {
	unit, err := parser.Parse("v = 1 + 2 * 3 ** 2\n")
	require.NoError(t, err)
	tree := unit.Tree
	top := tree.Child(tree.Stmts(unit.Root())[0], ast.RoleValue)
	require.Equal(t, "+", tree.Get(top).Op.Text())
	mul := tree.Child(top, ast.RoleRight)
	require.Equal(t, "*", tree.Get(mul).Op.Text())
	pow := tree.Child(mul, ast.RoleRight)
	require.Equal(t, "**", tree.Get(pow).Op.Text())
}

func TestParenKept(t *testing.T) {
	unit, err := parser.Parse("x = ((a))\n")
	require.NoError(t, err)
	tree := unit.Tree
	outer := tree.Child(tree.Stmts(unit.Root())[0], ast.RoleValue)
	require.Equal(t, ast.Paren, tree.Kind(outer))
	inner := tree.Children(outer)[0]
	require.Equal(t, ast.Paren, tree.Kind(inner))
	require.Equal(t, "(a)", tree.Text(inner))
	require.Equal(t, 1, tree.Depth(outer))
}

func TestStatementLines(t *testing.T) {
	src := "def f():\n    # note\n    a = 1\n    b = 2; c = 3\n"
	unit, err := parser.Parse(src)
	require.NoError(t, err)
	tree := unit.Tree
	body := tree.Body(tree.Stmts(unit.Root())[0])
	require.Len(t, body, 3)

	require.True(t, tree.OwnsLines(body[0]))
	require.Equal(t, "    a = 1\n", unit.File.Text(tree.LineExtent(body[0])))
	require.Equal(t, "    ", tree.Indent(body[0]))
	require.False(t, tree.OwnsLines(body[1]))
	require.False(t, tree.OwnsLines(body[2]))
}

func TestDepthLimit(t *testing.T) {
	src := "x = " + strings.Repeat("(", 400) + "1" + strings.Repeat(")", 400) + "\n"
	_, err := parser.Parse(src)
	require.Error(t, err)
}
