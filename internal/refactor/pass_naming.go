package refactor

import (
	"fmt"
	"strconv"

	"pytidy/internal/analysis"
	"pytidy/internal/ast"
	"pytidy/internal/diag"
	"pytidy/internal/scope"
	"pytidy/internal/token"
)

// namingPass renames poorly named parameters and function locals.
type namingPass struct{}

func (namingPass) Name() string { return "naming" }

func (namingPass) Plan(ctx *Context) []Change {
	tree := ctx.Tree
	tab := ctx.Scopes

	// позиция первого определения -> символ
	byDef := map[uint32]scope.SymbolID{}
	tab.Each(func(sid scope.ScopeID, sc *scope.Scope) {
		if sc.Kind != scope.ScopeFunction {
			return
		}
		for _, id := range sc.Symbols {
			if d := tab.Symbol(id).Defs; len(d) > 0 && d[0].Tok >= 0 {
				byDef[tree.Tokens[d[0].Tok].Span.Start] = id
			}
		}
	})

	keywordArgs := map[string]bool{}
	tree.Inspect(tree.Root, func(id ast.NodeID) bool {
		if n := tree.Get(id); n.Kind == ast.Keyword && n.Name != "" {
			keywordArgs[n.Name] = true
		}
		return true
	})

	reserved := map[scope.ScopeID]map[string]bool{}
	var changes []Change
	for _, f := range ctx.Findings(diag.Naming) {
		ctx.Spend(1)
		symID, ok := byDef[f.Span.Start]
		if !ok {
			continue
		}
		sym := tab.Symbol(symID)
		if what, ok := analysis.NamingSubject(tree, tab, sym); !ok || what == "module variable" {
			continue
		}
		line := ctx.TokLine(sym.Defs[0].Tok)
		if why := renameBlocker(ctx, sym, keywordArgs); why != "" {
			ctx.Miss(line, "'%s' not renamed: %s", sym.Name, why)
			continue
		}
		to := pickName(ctx, sym, suggestName(tree, sym), reserved)
		edits, ok := renameEdits(ctx, sym, to)
		if !ok {
			ctx.Miss(line, "'%s' not renamed: an occurrence does not spell the name", sym.Name)
			continue
		}
		if reserved[sym.Scope] == nil {
			reserved[sym.Scope] = map[string]bool{}
		}
		reserved[sym.Scope][to] = true

		var lines []int
		for _, tok := range sym.Occurrences() {
			if l := ctx.TokLine(tok); len(lines) == 0 || lines[len(lines)-1] != l {
				lines = append(lines, l)
			}
		}
		kind := "local"
		if sym.Kind == scope.SymbolParam {
			kind = "parameter"
		}
		changes = append(changes, Change{
			Action: Action{
				Kind:        RenameSymbol,
				Pass:        "naming",
				Line:        line,
				Targets:     lines,
				Params:      map[string]string{"from": sym.Name, "to": to, "kind": kind},
				Description: fmt.Sprintf("renamed %s '%s' to '%s'", kind, sym.Name, to),
			},
			Edits: edits,
		})
	}
	return changes
}

// renameBlocker explains why renaming sym could change behavior.
func renameBlocker(ctx *Context, sym *scope.Symbol, keywordArgs map[string]bool) string {
	tab := ctx.Scopes
	switch {
	case sym.FStringRefs > 0 || tab.InFString(sym.Name) > 0:
		return "it is referenced inside an f-string or a string annotation"
	case len(sym.Decls) > 0 || sym.Flags&(scope.FlagGlobal|scope.FlagNonlocal) != 0:
		return "it is shared through global or nonlocal"
	case sym.Kind == scope.SymbolParam && keywordArgs[sym.Name]:
		return "it may be passed by keyword"
	case dynamicSubtree(tab, sym.Scope):
		return "the function inspects its locals"
	}
	for _, d := range sym.Defs {
		if d.Scope != sym.Scope {
			return "it is bound from a nested scope"
		}
	}
	return ""
}

func dynamicSubtree(tab *scope.Table, sid scope.ScopeID) bool {
	if tab.Dynamic(sid) {
		return true
	}
	for _, c := range tab.Scope(sid).Children {
		if dynamicSubtree(tab, c) {
			return true
		}
	}
	return false
}

// pickName returns base, or base with a numeric suffix, such that the new
// name captures nothing and is captured by nothing.
func pickName(ctx *Context, sym *scope.Symbol, base string, reserved map[scope.ScopeID]map[string]bool) string {
	for i := 1; ; i++ {
		ctx.Spend(1)
		cand := base
		if i > 1 {
			cand = base + "_" + strconv.Itoa(i)
		}
		if cand == sym.Name || isReserved(cand) || analysis.PoorName(ctx.Config, cand) {
			continue
		}
		if plannedNearby(ctx.Scopes, sym.Scope, cand, reserved) {
			continue
		}
		if nameTaken(ctx.Scopes, sym.Scope, cand) {
			continue
		}
		return cand
	}
}

// plannedNearby reports whether a rename planned in this round already
// chose cand in sid, in a scope enclosing it or in a scope nested in it.
// Both bindings would be visible to one of the scopes.
func plannedNearby(tab *scope.Table, sid scope.ScopeID, cand string, reserved map[scope.ScopeID]map[string]bool) bool {
	for id := sid; id.IsValid(); id = tab.Scope(id).Parent {
		if reserved[id][cand] {
			return true
		}
	}
	var walk func(scope.ScopeID) bool
	walk = func(id scope.ScopeID) bool {
		for _, c := range tab.Scope(id).Children {
			if reserved[c][cand] || walk(c) {
				return true
			}
		}
		return false
	}
	return walk(sid)
}

// nameTaken reports whether cand is visible from sid or mentioned in any
// scope nested in it.
func nameTaken(tab *scope.Table, sid scope.ScopeID, cand string) bool {
	if tab.Resolve(sid, cand).IsValid() || tab.InFString(cand) > 0 {
		return true
	}
	var walk func(scope.ScopeID) bool
	walk = func(id scope.ScopeID) bool {
		sc := tab.Scope(id)
		if _, ok := sc.Names[cand]; ok {
			return true
		}
		for _, r := range sc.Free {
			if tab.Tree.Get(r.Node).Name == cand {
				return true
			}
		}
		for _, c := range sc.Children {
			if walk(c) {
				return true
			}
		}
		return false
	}
	return walk(sid)
}

// renameEdits replaces every token of sym. It fails when any occurrence is
// not a plain identifier token spelling the old name.
func renameEdits(ctx *Context, sym *scope.Symbol, to string) ([]TextEdit, bool) {
	occ := sym.Occurrences()
	if len(occ) == 0 {
		return nil, false
	}
	edits := make([]TextEdit, 0, len(occ))
	for _, i := range occ {
		tok := ctx.Tree.Tokens[i]
		if tok.Kind != token.Name || tok.Text != sym.Name {
			return nil, false
		}
		edits = append(edits, TextEdit{Span: tok.Span, NewText: to, OldText: sym.Name})
	}
	return edits, true
}
