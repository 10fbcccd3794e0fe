package scope

import (
	"sort"
	"strings"

	"pytidy/internal/ast"
	"pytidy/internal/token"
)

type pendingDef struct {
	scope ScopeID // область, в которой имя связывается (до учёта global/nonlocal)
	name  string
	ref   Ref
	kind  SymbolKind
	flags SymbolFlags
}

type pendingLoad struct {
	name    string
	ref     Ref
	fstring bool
}

type builder struct {
	t     *Table
	tree  *ast.Tree
	defs  []pendingDef
	loads []pendingLoad
	decls []pendingLoad
}

// Build walks the tree once, then binds and resolves every name occurrence.
// Bindings are collected before loads are resolved, so a use that precedes
// its assignment textually still resolves to the scope-wide binding.
func Build(tree *ast.Tree) *Table {
	t := newTable(tree)
	b := &builder{t: t, tree: tree}
	t.Root = t.newScope(ScopeModule, tree.Root, NoScopeID)
	t.nodeAt[tree.Root] = t.Root
	for _, st := range tree.Stmts(tree.Root) {
		b.visit(st, t.Root)
	}
	b.bindAll()
	b.resolveAll()
	b.collectExports()
	return t
}

func (b *builder) visitChildren(id ast.NodeID, sc ScopeID) {
	for _, c := range b.tree.Children(id) {
		b.visit(c, sc)
	}
}

func (b *builder) visit(id ast.NodeID, sc ScopeID) {
	if !id.IsValid() {
		return
	}
	b.t.nodeAt[id] = sc
	n := b.tree.Get(id)
	switch n.Kind {
	case ast.FunctionDef:
		b.visitFunction(id, sc)
	case ast.ClassDef:
		b.visitClass(id, sc)
	case ast.Lambda:
		b.visitLambda(id, sc)
	case ast.ListComp, ast.SetComp, ast.DictComp, ast.GeneratorExp:
		b.visitComprehension(id, sc)
	case ast.Name:
		b.visitName(id, sc)
	case ast.Global, ast.Nonlocal:
		b.visitDecl(id, sc)
	case ast.Import, ast.ImportFrom:
		b.visitImport(id, sc)
	case ast.ExceptHandler:
		if n.Name != "" {
			b.def(sc, n.Name, Ref{Kind: RefExcept, Node: id, Tok: n.NameTok, Scope: sc}, SymbolVariable, 0)
		}
		b.visitChildren(id, sc)
	case ast.Call:
		b.checkDynamic(id, sc)
		b.visitChildren(id, sc)
	case ast.Constant:
		var names []string
		switch {
		case n.Has(ast.FlagFString):
			names = FStringNames(n.Value)
		case n.Op == token.String && !n.Has(ast.FlagConcat) && b.inAnnotation(id):
			names = AnnotationNames(n.Value)
		}
		for _, name := range names {
			b.t.fstring[name]++
			b.loads = append(b.loads, pendingLoad{
				name:    name,
				ref:     Ref{Kind: RefLoad, Node: id, Tok: -1, Scope: sc},
				fstring: true,
			})
		}
	default:
		b.visitChildren(id, sc)
	}
}

// inAnnotation reports whether id lies inside a parameter, return or
// variable annotation.
func (b *builder) inAnnotation(id ast.NodeID) bool {
	for cur := id; cur.IsValid(); cur = b.tree.Parent(cur) {
		switch b.tree.Get(cur).Role {
		case ast.RoleAnnotation, ast.RoleReturns:
			return true
		}
	}
	return false
}

func (b *builder) def(sc ScopeID, name string, ref Ref, kind SymbolKind, flags SymbolFlags) {
	b.defs = append(b.defs, pendingDef{scope: sc, name: name, ref: ref, kind: kind, flags: flags})
}

// visitHeader обходит декораторы, значения по умолчанию и аннотации в объемлющей области.
func (b *builder) visitHeader(id ast.NodeID, sc ScopeID) {
	for _, c := range b.tree.Children(id) {
		switch b.tree.Get(c).Role {
		case ast.RoleBody:
		case ast.RoleParams:
			b.t.nodeAt[c] = sc
			for _, p := range b.tree.Children(c) {
				b.visitChildren(p, sc)
			}
		default:
			b.visit(c, sc)
		}
	}
}

func (b *builder) bindParams(params ast.NodeID, inner ScopeID) {
	for _, p := range b.tree.Children(params) {
		pn := b.tree.Get(p)
		b.t.nodeAt[p] = inner
		if pn.Name == "" {
			continue
		}
		b.def(inner, pn.Name, Ref{Kind: RefParam, Node: p, Tok: pn.NameTok, Scope: inner}, SymbolParam, 0)
	}
}

func (b *builder) visitFunction(id ast.NodeID, sc ScopeID) {
	n := b.tree.Get(id)
	b.visitHeader(id, sc)
	b.def(sc, n.Name, Ref{Kind: RefFunction, Node: id, Tok: n.NameTok, Scope: sc}, SymbolFunction, 0)
	fs := b.t.newScope(ScopeFunction, id, sc)
	b.bindParams(b.tree.Child(id, ast.RoleParams), fs)
	b.visit(b.tree.Child(id, ast.RoleBody), fs)
}

func (b *builder) visitClass(id ast.NodeID, sc ScopeID) {
	n := b.tree.Get(id)
	b.visitHeader(id, sc)
	b.def(sc, n.Name, Ref{Kind: RefClass, Node: id, Tok: n.NameTok, Scope: sc}, SymbolClass, 0)
	cs := b.t.newScope(ScopeClass, id, sc)
	b.visit(b.tree.Child(id, ast.RoleBody), cs)
}

func (b *builder) visitLambda(id ast.NodeID, sc ScopeID) {
	b.visitHeader(id, sc)
	ls := b.t.newScope(ScopeLambda, id, sc)
	b.bindParams(b.tree.Child(id, ast.RoleParams), ls)
	b.visit(b.tree.Child(id, ast.RoleBody), ls)
}

// visitComprehension: первый итерируемый вычисляется в объемлющей области,
// всё остальное: в собственной области включения.
func (b *builder) visitComprehension(id ast.NodeID, sc ScopeID) {
	var gens, elts []ast.NodeID
	for _, c := range b.tree.Children(id) {
		if b.tree.Kind(c) == ast.Comprehension {
			gens = append(gens, c)
		} else {
			elts = append(elts, c)
		}
	}
	cs := b.t.newScope(ScopeComprehension, id, sc)
	for i, g := range gens {
		b.t.nodeAt[g] = cs
		for _, c := range b.tree.Children(g) {
			if i == 0 && b.tree.Get(c).Role == ast.RoleIter {
				b.visit(c, sc)
				continue
			}
			b.visit(c, cs)
		}
	}
	for _, e := range elts {
		b.visit(e, cs)
	}
}

func (b *builder) visitName(id ast.NodeID, sc ScopeID) {
	n := b.tree.Get(id)
	ref := Ref{Node: id, Tok: n.NameTok, Scope: sc}
	switch n.Ctx {
	case ast.CtxLoad:
		ref.Kind = RefLoad
		b.loads = append(b.loads, pendingLoad{name: n.Name, ref: ref})
	case ast.CtxDel:
		ref.Kind = RefDel
		b.loads = append(b.loads, pendingLoad{name: n.Name, ref: ref})
	case ast.CtxStore:
		ref.Kind, ref.Unpacked = b.targetKind(id)
		target := sc
		if ref.Kind == RefWalrus {
			for b.t.Scope(target).Kind == ScopeComprehension {
				target = b.t.Scope(target).Parent
			}
		}
		b.def(target, n.Name, ref, SymbolVariable, 0)
		if ref.Kind == RefAugAssign {
			load := ref
			load.Kind = RefLoad
			b.loads = append(b.loads, pendingLoad{name: n.Name, ref: load})
		}
	}
}

// targetKind поднимается от имени-цели до конструкции, которая его связывает.
func (b *builder) targetKind(id ast.NodeID) (RefKind, bool) {
	unpacked := false
	for cur := id; ; {
		p := b.tree.Parent(cur)
		switch b.tree.Kind(p) {
		case ast.Tuple, ast.List, ast.Starred:
			unpacked = true
		case ast.Paren:
		case ast.AugAssign:
			return RefAugAssign, unpacked
		case ast.AnnAssign:
			if b.tree.Child(p, ast.RoleValue).IsValid() {
				return RefAssign, unpacked
			}
			return RefAnnotated, unpacked
		case ast.For, ast.Comprehension:
			return RefFor, unpacked
		case ast.WithItem:
			return RefWith, unpacked
		case ast.NamedExpr:
			return RefWalrus, unpacked
		default:
			return RefAssign, unpacked
		}
		cur = p
	}
}

func (b *builder) visitDecl(id ast.NodeID, sc ScopeID) {
	s := b.t.Scope(sc)
	global := b.tree.Kind(id) == ast.Global
	for _, c := range b.tree.Children(id) {
		cn := b.tree.Get(c)
		b.t.nodeAt[c] = sc
		if global {
			s.Globals[cn.Name] = id
		} else {
			s.Nonlocals[cn.Name] = id
		}
		b.decls = append(b.decls, pendingLoad{
			name: cn.Name,
			ref:  Ref{Kind: RefDecl, Node: c, Tok: cn.NameTok, Scope: sc},
		})
	}
}

func (b *builder) visitImport(id ast.NodeID, sc ScopeID) {
	n := b.tree.Get(id)
	future := n.Kind == ast.ImportFrom && n.Level == 0 && n.Name == "__future__"
	for _, a := range b.tree.Children(id) {
		an := b.tree.Get(a)
		b.t.nodeAt[a] = sc
		if an.Name == "*" {
			b.t.Scope(sc).StarImport = true
			continue
		}
		var flags SymbolFlags
		if future {
			flags |= FlagFuture
		}
		name, tok := an.AsName, an.AsTok
		if name == "" {
			name, tok = an.Name, an.NameTok
			if n.Kind == ast.Import {
				name, _, _ = strings.Cut(an.Name, ".")
			}
		} else if name == an.Name {
			flags |= FlagReexport
		}
		b.def(sc, name, Ref{Kind: RefImport, Node: a, Tok: tok, Scope: sc}, SymbolImport, flags)
	}
}

var dynamicCalls = map[string]bool{"locals": true, "vars": true, "eval": true, "exec": true}

func (b *builder) checkDynamic(call ast.NodeID, sc ScopeID) {
	fn := b.tree.Child(call, ast.RoleFunc)
	fnNode := b.tree.Get(fn)
	if fnNode == nil || fnNode.Kind != ast.Name || !dynamicCalls[fnNode.Name] {
		return
	}
	// vars(obj) читает только obj
	if fnNode.Name == "vars" && len(b.tree.Children(call)) > 1 {
		return
	}
	for cur := sc; cur.IsValid(); cur = b.t.Scope(cur).Parent {
		s := b.t.Scope(cur)
		s.Dynamic = true
		if s.Kind != ScopeLambda && s.Kind != ScopeComprehension {
			break
		}
	}
}

func (b *builder) bindAll() {
	t := b.t
	sort.SliceStable(b.defs, func(i, j int) bool { return b.defs[i].scope < b.defs[j].scope })
	for _, d := range b.defs {
		target, flags := d.scope, d.flags
		global, nonlocal := t.Scope(d.scope).declares(d.name)
		switch {
		case global && d.scope != t.Root:
			target = t.Root
			flags |= FlagGlobal
		case nonlocal:
			if e := t.enclosingBinder(d.scope, d.name); e.IsValid() {
				target = e
				flags |= FlagNonlocal
			}
		}
		id := t.Lookup(target, d.name)
		if !id.IsValid() {
			id = t.newSymbol(target, d.name, d.kind)
		}
		sym := t.Symbol(id)
		sym.Flags |= flags
		sym.Defs = append(sym.Defs, d.ref)
		t.symOf[d.ref.Node] = id
	}
}

func (b *builder) resolveAll() {
	t := b.t
	for _, l := range b.loads {
		id := t.Resolve(l.ref.Scope, l.name)
		if !id.IsValid() {
			if !l.fstring {
				s := t.Scope(l.ref.Scope)
				s.Free = append(s.Free, l.ref)
			}
			continue
		}
		sym := t.Symbol(id)
		if l.fstring {
			sym.FStringRefs++
			continue
		}
		sym.Uses = append(sym.Uses, l.ref)
		t.symOf[l.ref.Node] = id
	}
	for _, d := range b.decls {
		id := t.Resolve(d.ref.Scope, d.name)
		if !id.IsValid() {
			continue
		}
		sym := t.Symbol(id)
		sym.Decls = append(sym.Decls, d.ref)
		t.symOf[d.ref.Node] = id
	}
}

// collectExports читает строковые элементы __all__ на уровне модуля.
func (b *builder) collectExports() {
	t, tree := b.t, b.tree
	for _, st := range tree.Stmts(tree.Root) {
		switch tree.Kind(st) {
		case ast.Assign, ast.AugAssign, ast.AnnAssign:
		default:
			continue
		}
		hit := false
		for _, tg := range tree.ChildrenWith(st, ast.RoleTarget) {
			if n := tree.Get(tg); n.Kind == ast.Name && n.Name == "__all__" {
				hit = true
			}
		}
		if !hit {
			continue
		}
		t.HasAll = true
		value := tree.Child(st, ast.RoleValue)
		for tree.Kind(value) == ast.Paren {
			value = tree.Children(value)[0]
		}
		if k := tree.Kind(value); k != ast.List && k != ast.Tuple {
			continue
		}
		for _, el := range tree.Children(value) {
			en := tree.Get(el)
			if en.Kind != ast.Constant || en.Op != token.String || en.Has(ast.FlagConcat|ast.FlagFString) {
				continue
			}
			t.Exports[LiteralBody(en.Value)] = true
		}
	}
	for name := range t.Exports {
		if id := t.Lookup(t.Root, name); id.IsValid() {
			t.Symbol(id).Flags |= FlagExported
		}
	}
}
