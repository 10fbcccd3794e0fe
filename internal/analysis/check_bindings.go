package analysis

import (
	"fmt"
	"strings"

	"pytidy/internal/ast"
	"pytidy/internal/scope"
)

// unusedImports reports imported names that nothing reads.
type unusedImports struct{ base }

func (unusedImports) Finish(ctx *Context) {
	tab := ctx.Scopes
	tab.Each(func(sid scope.ScopeID, sc *scope.Scope) {
		if tab.Dynamic(sid) {
			return
		}
		for _, id := range sc.Symbols {
			ctx.Spend(1)
			sym := tab.Symbol(id)
			if sym.Kind != scope.SymbolImport || sym.Used() || sym.Flags&scope.FlagFuture != 0 {
				continue
			}
			for _, d := range sym.Defs {
				if d.Kind != scope.RefImport || insideTry(ctx.Tree, d.Node) {
					continue
				}
				ctx.Report(ctx.At(d.Node, fmt.Sprintf("'%s' imported but unused", ImportedName(ctx.Tree, d.Node))).WithSymbol(sym.Name))
			}
		}
	})
}

// ImportedName spells what an alias imports, module-qualified for from-imports.
func ImportedName(tree *ast.Tree, alias ast.NodeID) string {
	an := tree.Get(alias)
	name := an.Name
	if stmt := tree.Get(an.Parent); stmt != nil && stmt.Kind == ast.ImportFrom {
		mod := strings.Repeat(".", stmt.Level) + stmt.Name
		switch {
		case mod == "":
		case strings.HasSuffix(mod, "."):
			name = mod + name
		default:
			name = mod + "." + name
		}
	}
	if an.AsName != "" && an.AsName != an.Name {
		name += " as " + an.AsName
	}
	return name
}

// insideTry: импорт внутри try часто служит проверкой доступности модуля
func insideTry(tree *ast.Tree, id ast.NodeID) bool {
	for cur := tree.Parent(id); cur.IsValid(); cur = tree.Parent(cur) {
		switch tree.Kind(cur) {
		case ast.Try:
			return true
		case ast.FunctionDef, ast.ClassDef, ast.Module:
			return false
		}
	}
	return false
}

// unusedVariables reports function locals that are written but never read.
type unusedVariables struct{ base }

func (unusedVariables) Finish(ctx *Context) {
	tab := ctx.Scopes
	tab.Each(func(sid scope.ScopeID, sc *scope.Scope) {
		if sc.Kind != scope.ScopeFunction || tab.Dynamic(sid) {
			return
		}
		for _, id := range sc.Symbols {
			ctx.Spend(1)
			sym := tab.Symbol(id)
			if !DeadLocal(sym, sid) {
				continue
			}
			ctx.Report(ctx.At(sym.Defs[0].Node, fmt.Sprintf("local variable '%s' is assigned but never used", sym.Name)).WithSymbol(sym.Name))
		}
	})
}

// DeadLocal reports whether sym, bound in function scope sid, is only ever
// written by plain assignments and never read. Unpacking targets, names
// starting with an underscore and names shared through global or nonlocal
// declarations never qualify.
func DeadLocal(sym *scope.Symbol, sid scope.ScopeID) bool {
	if sym.Kind != scope.SymbolVariable || sym.Used() || strings.HasPrefix(sym.Name, "_") {
		return false
	}
	if sym.Flags&(scope.FlagGlobal|scope.FlagNonlocal) != 0 || len(sym.Decls) > 0 {
		return false
	}
	if !sym.OnlyKind(scope.RefAssign, scope.RefAnnotated, scope.RefWalrus) {
		return false
	}
	for _, d := range sym.Defs {
		if d.Unpacked || d.Scope != sid {
			return false
		}
	}
	return true
}

// globalState reports module-level bindings rebound from inside functions.
type globalState struct{ base }

func (globalState) Finish(ctx *Context) {
	tab := ctx.Scopes
	root := tab.Scope(tab.Root)
	for _, id := range root.Symbols {
		ctx.Spend(1)
		sym := tab.Symbol(id)
		if sym.Flags&scope.FlagGlobal == 0 {
			continue
		}
		seen := map[scope.ScopeID]bool{}
		for _, d := range sym.Defs {
			if d.Scope == tab.Root || seen[d.Scope] {
				continue
			}
			seen[d.Scope] = true
			owner := tab.Scope(tab.Enclosing(d.Scope))
			where := "nested code"
			if n := ctx.Tree.Get(owner.Node); n != nil && n.Name != "" {
				where = fmt.Sprintf("'%s'", n.Name)
			}
			ctx.Warn(d.Node, fmt.Sprintf("module-level '%s' is rebound inside %s via global", sym.Name, where))
		}
	}
}
