package analysis

import (
	"fmt"

	"pytidy/internal/ast"
	"pytidy/internal/scope"
)

type naming struct{ base }

func (naming) Visit(ctx *Context, id ast.NodeID) {
	n := ctx.Tree.Get(id)
	switch n.Kind {
	case ast.FunctionDef:
		if !IsSnakeCase(n.Name) {
			ctx.Report(ctx.AtTok(nameTok(ctx.Tree, id), fmt.Sprintf("function name '%s' should be snake_case", n.Name)).WithSymbol(n.Name))
		}
	case ast.ClassDef:
		if !IsCapWords(n.Name) {
			ctx.Report(ctx.AtTok(nameTok(ctx.Tree, id), fmt.Sprintf("class name '%s' should use CapWords", n.Name)).WithSymbol(n.Name))
		}
	}
}

func (naming) Finish(ctx *Context) {
	tab := ctx.Scopes
	tab.Each(func(sid scope.ScopeID, sc *scope.Scope) {
		if sc.Kind != scope.ScopeFunction && sc.Kind != scope.ScopeModule {
			return
		}
		for _, id := range sc.Symbols {
			ctx.Spend(1)
			sym := tab.Symbol(id)
			what, ok := NamingSubject(ctx.Tree, tab, sym)
			if !ok || !PoorName(ctx.Config, sym.Name) {
				continue
			}
			d := sym.Defs[0]
			msg := fmt.Sprintf("%s '%s' has a non-descriptive name", what, sym.Name)
			if d.Tok >= 0 {
				ctx.Report(ctx.AtTok(d.Tok, msg).WithSymbol(sym.Name))
			} else {
				ctx.Report(ctx.At(d.Node, msg).WithSymbol(sym.Name))
			}
		}
	})
}

// NamingSubject tells whether the naming rules apply to sym and how to
// call it: parameters of defs, function locals and module variables.
// Receivers, except-clause names and names bound elsewhere through global
// declarations are out of scope.
func NamingSubject(tree *ast.Tree, tab *scope.Table, sym *scope.Symbol) (string, bool) {
	if len(sym.Defs) == 0 {
		return "", false
	}
	sc := tab.Scope(sym.Scope)
	switch sym.Kind {
	case scope.SymbolParam:
		if sc.Kind != scope.ScopeFunction {
			return "", false
		}
		p := sym.Defs[0].Node
		if params := Params(tree, sc.Node); len(params) > 0 && params[0] == p && IsMethod(tree, sc.Node) {
			return "", false
		}
		return "parameter", true
	case scope.SymbolVariable:
		if sym.OnlyKind(scope.RefExcept) {
			return "", false
		}
		if sc.Kind == scope.ScopeModule {
			return "module variable", true
		}
		return "local variable", true
	}
	return "", false
}
