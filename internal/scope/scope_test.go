package scope_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pytidy/internal/parser"
	"pytidy/internal/scope"
)

func build(t *testing.T, src string) *scope.Table {
	t.Helper()
	unit, err := parser.Parse(src)
	require.NoError(t, err)
	return scope.Build(unit.Tree)
}

// findScope returns the first scope of kind whose opener has the given name
// (empty name matches any opener).
func findScope(t *testing.T, tab *scope.Table, kind scope.ScopeKind, name string) scope.ScopeID {
	t.Helper()
	var found scope.ScopeID
	tab.Each(func(id scope.ScopeID, s *scope.Scope) {
		if found.IsValid() || s.Kind != kind {
			return
		}
		if name == "" || tab.Tree.Get(s.Node).Name == name {
			found = id
		}
	})
	require.True(t, found.IsValid(), "scope %s %q not found", kind, name)
	return found
}

func symbol(t *testing.T, tab *scope.Table, sc scope.ScopeID, name string) *scope.Symbol {
	t.Helper()
	id := tab.Lookup(sc, name)
	require.True(t, id.IsValid(), "symbol %q not bound in scope", name)
	return tab.Symbol(id)
}

func TestModuleBindings(t *testing.T) {
	tab := build(t, "import os.path\nimport sys as system\nfrom typing import List\n\nx = 1\n\ndef f(a):\n    return a\n\nclass C:\n    pass\n")
	root := tab.Root
	assert.Equal(t, scope.SymbolImport, symbol(t, tab, root, "os").Kind)
	assert.Equal(t, scope.SymbolImport, symbol(t, tab, root, "system").Kind)
	assert.Equal(t, scope.SymbolImport, symbol(t, tab, root, "List").Kind)
	assert.Equal(t, scope.SymbolVariable, symbol(t, tab, root, "x").Kind)
	assert.Equal(t, scope.SymbolFunction, symbol(t, tab, root, "f").Kind)
	assert.Equal(t, scope.SymbolClass, symbol(t, tab, root, "C").Kind)
	assert.False(t, tab.Lookup(root, "a").IsValid())

	fs := findScope(t, tab, scope.ScopeFunction, "f")
	a := symbol(t, tab, fs, "a")
	assert.Equal(t, scope.SymbolParam, a.Kind)
	assert.Len(t, a.Uses, 1)
}

func TestUseBeforeAssignmentIsLocal(t *testing.T) {
	tab := build(t, "x = 1\ndef f():\n    print(x)\n    x = 2\n")
	fs := findScope(t, tab, scope.ScopeFunction, "f")
	local := symbol(t, tab, fs, "x")
	assert.Len(t, local.Uses, 1)
	assert.Empty(t, symbol(t, tab, tab.Root, "x").Uses)
}

func TestClassScopeIsSkipped(t *testing.T) {
	src := "class C:\n    size = 3\n    def m(self):\n        return size\n    doubled = size * 2\n"
	tab := build(t, src)
	cs := findScope(t, tab, scope.ScopeClass, "C")
	size := symbol(t, tab, cs, "size")
	assert.Len(t, size.Uses, 1, "only the class-level use resolves to the class binding")

	ms := findScope(t, tab, scope.ScopeFunction, "m")
	require.Len(t, tab.Scope(ms).Free, 1)
}

func TestGlobalAndNonlocal(t *testing.T) {
	src := `counter = 0

def bump():
    global counter
    counter += 1

def outer():
    total = 0
    def inner():
        nonlocal total
        total = total + 1
    inner()
    return total
`
	tab := build(t, src)
	counter := symbol(t, tab, tab.Root, "counter")
	assert.NotZero(t, counter.Flags&scope.FlagGlobal)
	assert.Len(t, counter.Defs, 2)
	assert.Len(t, counter.Decls, 1)

	bump := findScope(t, tab, scope.ScopeFunction, "bump")
	assert.False(t, tab.Lookup(bump, "counter").IsValid())

	outer := findScope(t, tab, scope.ScopeFunction, "outer")
	total := symbol(t, tab, outer, "total")
	assert.NotZero(t, total.Flags&scope.FlagNonlocal)
	assert.Len(t, total.Defs, 2)
	assert.Len(t, total.Uses, 2)
	inner := findScope(t, tab, scope.ScopeFunction, "inner")
	assert.False(t, tab.Lookup(inner, "total").IsValid())
}

func TestComprehensionScope(t *testing.T) {
	tab := build(t, "def f(items):\n    return [x for x in items if x]\n")
	fs := findScope(t, tab, scope.ScopeFunction, "f")
	cs := findScope(t, tab, scope.ScopeComprehension, "")
	assert.False(t, tab.Lookup(fs, "x").IsValid())
	x := symbol(t, tab, cs, "x")
	assert.Equal(t, scope.RefFor, x.Defs[0].Kind)
	assert.Len(t, x.Uses, 2)
	assert.Len(t, symbol(t, tab, fs, "items").Uses, 1)
}

func TestWalrusBindsOutsideComprehension(t *testing.T) {
	tab := build(t, "def f(xs):\n    if any((hit := v) for v in xs):\n        return hit\n")
	fs := findScope(t, tab, scope.ScopeFunction, "f")
	hit := symbol(t, tab, fs, "hit")
	assert.Equal(t, scope.RefWalrus, hit.Defs[0].Kind)
	assert.Len(t, hit.Uses, 1)
}

func TestDefaultsEvaluatedOutside(t *testing.T) {
	tab := build(t, "LIMIT = 3\ndef f(n=LIMIT):\n    return n\n")
	assert.Len(t, symbol(t, tab, tab.Root, "LIMIT").Uses, 1)
}

func TestDynamicScopes(t *testing.T) {
	src := "def a():\n    x = 1\n    return locals()\n\ndef b():\n    y = 2\n    return vars(y)\n\ndef c():\n    z = 3\n    return [eval(s) for s in 'ab']\n"
	tab := build(t, src)
	assert.True(t, tab.Dynamic(findScope(t, tab, scope.ScopeFunction, "a")))
	assert.False(t, tab.Dynamic(findScope(t, tab, scope.ScopeFunction, "b")))
	assert.True(t, tab.Dynamic(findScope(t, tab, scope.ScopeFunction, "c")))
	assert.False(t, tab.Dynamic(tab.Root))
}

func TestFStringReferences(t *testing.T) {
	tab := build(t, "def f():\n    name = 'x'\n    obj = 1\n    return f\"{name!r} {obj.attr:>{width}}\"\n")
	fs := findScope(t, tab, scope.ScopeFunction, "f")
	name := symbol(t, tab, fs, "name")
	assert.Equal(t, 1, name.FStringRefs)
	assert.True(t, name.Used())
	assert.Equal(t, 1, tab.InFString("width"))
	assert.Zero(t, tab.InFString("attr"))
	assert.Zero(t, tab.InFString("r"))
}

func TestStringAnnotationReferences(t *testing.T) {
	src := "import typing\nfrom models import Item\n\nx: 'Item' = None\n\n\ndef f(v: 'typing.List', w: int = 0) -> \"Item\":\n    s = 'typing'\n    return v, s, w\n"
	tab := build(t, src)
	typ := symbol(t, tab, tab.Root, "typing")
	assert.Equal(t, 1, typ.FStringRefs)
	assert.True(t, typ.Used())
	assert.Equal(t, 2, symbol(t, tab, tab.Root, "Item").FStringRefs)
	assert.Zero(t, tab.InFString("List"))
}

func TestAnnotationNames(t *testing.T) {
	tests := []struct {
		lit  string
		want []string
	}{
		{`'typing.List'`, []string{"typing"}},
		{`"Dict[str, Item]"`, []string{"Dict", "str", "Item"}},
		{`'''Item'''`, []string{"Item"}},
		{`b'Item'`, nil},
		{`'Optional[None]'`, []string{"Optional"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scope.AnnotationNames(tt.lit), tt.lit)
	}
}

func TestFStringNames(t *testing.T) {
	tests := []struct {
		lit  string
		want []string
	}{
		{`f"plain"`, nil},
		{`f"{{escaped}}"`, nil},
		{`f"{a + b}"`, []string{"a", "b"}},
		{`f"{obj.field}"`, []string{"obj"}},
		{`f"{d['key']}"`, []string{"d"}},
		{`f"{x if y else None}"`, []string{"x", "y"}},
		{`f"{value:{width}.{precision}}"`, []string{"value", "width", "precision"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, scope.FStringNames(tt.lit), tt.lit)
	}
}

func TestExports(t *testing.T) {
	tab := build(t, "import helper\nfrom pkg import thing as thing\n__all__ = ['helper', \"missing\"]\n")
	assert.True(t, tab.HasAll)
	assert.True(t, tab.Exports["missing"])
	assert.NotZero(t, symbol(t, tab, tab.Root, "helper").Flags&scope.FlagExported)
	thing := symbol(t, tab, tab.Root, "thing")
	assert.NotZero(t, thing.Flags&scope.FlagReexport)
	assert.True(t, thing.Used())
}

func TestStarImportAndFuture(t *testing.T) {
	tab := build(t, "from __future__ import annotations\nfrom mod import *\n")
	assert.True(t, tab.Scope(tab.Root).StarImport)
	assert.NotZero(t, symbol(t, tab, tab.Root, "annotations").Flags&scope.FlagFuture)
}

func TestOccurrencesAndScopeAt(t *testing.T) {
	src := "def f(value):\n    value += 1\n    return value\n"
	tab := build(t, src)
	fs := findScope(t, tab, scope.ScopeFunction, "f")
	sym := symbol(t, tab, fs, "value")
	occ := sym.Occurrences()
	require.Len(t, occ, 3)
	for _, i := range occ {
		assert.Equal(t, "value", tab.Tree.Tokens[i].Text)
	}
	for _, d := range sym.Defs {
		assert.Equal(t, fs, tab.ScopeAt(d.Node))
	}
	assert.Equal(t, fs, tab.ScopeOf(tab.Scope(fs).Node))
	assert.Equal(t, tab.Root, tab.ScopeAt(tab.Scope(fs).Node))
}

func TestExceptAndWithTargets(t *testing.T) {
	tab := build(t, "def f():\n    with open('p') as fh, lock:\n        pass\n    try:\n        pass\n    except OSError as err:\n        raise\n    a, *b = 1, 2, 3\n")
	fs := findScope(t, tab, scope.ScopeFunction, "f")
	assert.Equal(t, scope.RefWith, symbol(t, tab, fs, "fh").Defs[0].Kind)
	assert.Equal(t, scope.RefExcept, symbol(t, tab, fs, "err").Defs[0].Kind)
	b := symbol(t, tab, fs, "b")
	assert.Equal(t, scope.RefAssign, b.Defs[0].Kind)
	assert.True(t, b.Defs[0].Unpacked)
	assert.True(t, b.OnlyKind(scope.RefAssign))
}
