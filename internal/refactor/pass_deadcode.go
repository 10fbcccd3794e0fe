package refactor

import (
	"fmt"

	"pytidy/internal/analysis"
	"pytidy/internal/ast"
	"pytidy/internal/diag"
	"pytidy/internal/scope"
)

// deadCodePass drops statements that can never run and assignments to
// locals nothing reads.
type deadCodePass struct{}

func (deadCodePass) Name() string { return "deadcode" }

func (p deadCodePass) Plan(ctx *Context) []Change {
	if changes := p.unreachable(ctx); len(changes) > 0 {
		return changes
	}
	return p.deadLocals(ctx)
}

// unreachable removes the statements that follow a return, raise, break
// or continue in the same statement list.
func (deadCodePass) unreachable(ctx *Context) []Change {
	tree := ctx.Tree
	var changes []Change
	tree.Inspect(tree.Root, func(id ast.NodeID) bool {
		ctx.Spend(1)
		k := tree.Kind(id)
		if k != ast.Module && k != ast.Suite {
			return true
		}
		stmts := tree.Stmts(id)
		for i, s := range stmts {
			if !terminates(tree.Kind(s)) || i == len(stmts)-1 {
				continue
			}
			region := stmts[i+1:]
			if reason := unsafeRegion(ctx, region); reason != "" {
				ctx.Miss(ctx.Line(region[0]), "unreachable code after line %d kept: %s", ctx.Line(s), reason)
				break
			}
			first, last := ctx.Line(region[0]), tree.EndLine(region[len(region)-1])
			changes = append(changes, Change{
				Action: Action{
					Kind:        RemoveDeadCode,
					Pass:        "deadcode",
					Line:        first,
					Targets:     []int{first, last},
					Params:      map[string]string{"reason": "unreachable", "after": tree.Kind(s).String()},
					Description: fmt.Sprintf("removed %d unreachable statements", len(region)),
				},
				Edits: ctx.deleteStmts(id, region),
			})
			break
		}
		return true
	})
	return changes
}

func terminates(k ast.Kind) bool {
	switch k {
	case ast.Return, ast.Raise, ast.Break, ast.Continue:
		return true
	default:
		return false
	}
}

// unsafeRegion explains why removing region could change behavior, or
// returns "".
func unsafeRegion(ctx *Context, region []ast.NodeID) string {
	tree := ctx.Tree
	span := tree.Get(region[0]).Span.Cover(tree.Get(region[len(region)-1]).Span)
	reason := ""
	for _, s := range region {
		tree.Inspect(s, func(id ast.NodeID) bool {
			ctx.Spend(1)
			switch tree.Kind(id) {
			case ast.Yield, ast.YieldFrom:
				reason = "it contains yield"
			case ast.Await:
				reason = "it contains await"
			case ast.Global, ast.Nonlocal:
				reason = "it declares names"
			case ast.FunctionDef, ast.ClassDef, ast.Lambda:
				// вложенные области не влияют на внешнюю функцию
				return false
			}
			return reason == ""
		})
		if reason != "" {
			return reason
		}
	}
	// имя, связанное только здесь, делает его локальным для всей области
	tab := ctx.Scopes
	sid := tab.ScopeAt(region[0])
	for _, symID := range tab.Scope(sid).Symbols {
		sym := tab.Symbol(symID)
		inside := false
		for _, d := range sym.Defs {
			if span.ContainsOffset(tree.Get(d.Node).Span.Start) {
				inside = true
				break
			}
		}
		if !inside {
			continue
		}
		for _, tok := range sym.Occurrences() {
			if !span.ContainsOffset(tree.Tokens[tok].Span.Start) {
				return fmt.Sprintf("it binds '%s', which is used elsewhere", sym.Name)
			}
		}
	}
	return ""
}

// deadLocals removes assignments to locals that are never read. An
// assignment whose value may have effects keeps the value as a bare
// expression statement.
func (deadCodePass) deadLocals(ctx *Context) []Change {
	tree := ctx.Tree
	tab := ctx.Scopes
	seen := map[scope.SymbolID]bool{}
	doomed := map[ast.NodeID][]ast.NodeID{}
	var lists []ast.NodeID
	type removal struct {
		stmt   ast.NodeID
		sym    *scope.Symbol
		keepAs string
	}
	var removals []removal

	for _, f := range ctx.Findings(diag.UnusedVariable) {
		ctx.Spend(1)
		name := ctx.NodeAt(f.Span.Start, ast.Name)
		symID := tab.SymbolAt(name)
		if !symID.IsValid() || seen[symID] {
			continue
		}
		seen[symID] = true
		sym := tab.Symbol(symID)
		if !analysis.DeadLocal(sym, sym.Scope) {
			continue
		}
		for _, d := range sym.Defs {
			stmt := tree.Parent(d.Node)
			for tree.Kind(stmt) == ast.Paren {
				stmt = tree.Parent(stmt)
			}
			if why := removableBinding(tree, stmt); why != "" {
				ctx.Miss(ctx.Line(d.Node), "assignment to unused '%s' kept: %s", sym.Name, why)
				continue
			}
			value := tree.Child(stmt, ast.RoleValue)
			r := removal{stmt: stmt, sym: sym}
			if value.IsValid() && !pureExpr(ctx, value) {
				r.keepAs = tree.Text(value)
			} else {
				list := tree.Parent(stmt)
				if _, ok := doomed[list]; !ok {
					lists = append(lists, list)
				}
				doomed[list] = append(doomed[list], stmt)
			}
			removals = append(removals, r)
		}
	}

	deletions := map[ast.NodeID]TextEdit{}
	for _, list := range lists {
		edits := ctx.deleteStmts(list, doomed[list])
		for i, s := range doomed[list] {
			deletions[s] = edits[i]
		}
	}
	var changes []Change
	for _, r := range removals {
		act := Action{
			Kind:   RemoveDeadCode,
			Pass:   "deadcode",
			Line:   ctx.Line(r.stmt),
			Params: map[string]string{"reason": "unused-variable", "name": r.sym.Name},
		}
		var edit TextEdit
		if r.keepAs != "" {
			edit = ctx.replaceNode(r.stmt, r.keepAs)
			act.Description = fmt.Sprintf("dropped assignment to unused local '%s', kept its value", r.sym.Name)
		} else {
			edit = deletions[r.stmt]
			act.Description = fmt.Sprintf("removed assignment to unused local '%s'", r.sym.Name)
		}
		changes = append(changes, Change{Action: act, Edits: []TextEdit{edit}})
	}
	return changes
}

// removableBinding checks that stmt binds exactly one plain name.
func removableBinding(tree *ast.Tree, stmt ast.NodeID) string {
	switch tree.Kind(stmt) {
	case ast.Assign:
		if len(tree.ChildrenWith(stmt, ast.RoleTarget)) != 1 {
			return "chained assignment"
		}
		return ""
	case ast.AnnAssign:
		return ""
	case ast.NamedExpr:
		return "assignment expression"
	default:
		return "not a simple assignment"
	}
}

// pureExpr reports whether evaluating id can neither fail nor have effects.
func pureExpr(ctx *Context, id ast.NodeID) bool {
	tree := ctx.Tree
	n := tree.Get(id)
	switch n.Kind {
	case ast.Constant:
		return !n.Has(ast.FlagFString)
	case ast.Lambda:
		// значения по умолчанию вычисляются сразу
		for _, p := range tree.Children(tree.Child(id, ast.RoleParams)) {
			if d := tree.Child(p, ast.RoleDefault); d.IsValid() && !pureExpr(ctx, d) {
				return false
			}
		}
		return true
	case ast.Paren:
		return pureExpr(ctx, tree.Children(id)[0])
	case ast.Tuple, ast.List:
		for _, c := range n.Children {
			if !pureExpr(ctx, c) {
				return false
			}
		}
		return true
	case ast.Set, ast.Dict:
		// элементы должны быть хешируемыми, поэтому только литералы
		for _, c := range n.Children {
			cn := tree.Get(c)
			if cn.Kind != ast.Constant || cn.Has(ast.FlagFString) {
				return false
			}
		}
		return true
	case ast.Name:
		sym := ctx.Scopes.Symbol(ctx.Scopes.SymbolAt(id))
		if sym == nil || sym.Kind != scope.SymbolParam {
			return false
		}
		for _, u := range sym.Uses {
			if u.Kind == scope.RefDel {
				return false
			}
		}
		return true
	default:
		return false
	}
}
