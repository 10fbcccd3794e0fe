package scope

import (
	"fmt"

	"fortio.org/safecast"

	"pytidy/internal/ast"
)

// Table is the binding model of one parsed unit.
type Table struct {
	Tree    *ast.Tree
	Scopes  *ast.Arena[Scope]
	Symbols *ast.Arena[Symbol]
	Root    ScopeID

	// Exports holds the string entries of a module-level __all__.
	Exports map[string]bool
	HasAll  bool

	opener  map[ast.NodeID]ScopeID // узел, открывающий область -> область
	nodeAt  map[ast.NodeID]ScopeID // любой посещённый узел -> область, где он вычисляется
	symOf   map[ast.NodeID]SymbolID
	fstring map[string]int
}

func newTable(tree *ast.Tree) *Table {
	hint := uint(tree.Nodes.Len()/8 + 1)
	return &Table{
		Tree:    tree,
		Scopes:  ast.NewArena[Scope](hint),
		Symbols: ast.NewArena[Symbol](hint * 2),
		Exports: make(map[string]bool),
		opener:  make(map[ast.NodeID]ScopeID),
		nodeAt:  make(map[ast.NodeID]ScopeID, tree.Nodes.Len()),
		symOf:   make(map[ast.NodeID]SymbolID),
		fstring: make(map[string]int),
	}
}

func (t *Table) newScope(kind ScopeKind, node ast.NodeID, parent ScopeID) ScopeID {
	id := ScopeID(t.Scopes.Allocate(Scope{
		Kind:      kind,
		Node:      node,
		Parent:    parent,
		Names:     make(map[string]SymbolID),
		Globals:   make(map[string]ast.NodeID),
		Nonlocals: make(map[string]ast.NodeID),
	}))
	if p := t.Scope(parent); p != nil {
		p.Children = append(p.Children, id)
	}
	t.opener[node] = id
	return id
}

func (t *Table) newSymbol(sc ScopeID, name string, kind SymbolKind) SymbolID {
	id := SymbolID(t.Symbols.Allocate(Symbol{Name: name, Kind: kind, Scope: sc}))
	s := t.Scope(sc)
	s.Names[name] = id
	s.Symbols = append(s.Symbols, id)
	return id
}

// Scope returns the scope by id, nil for NoScopeID.
func (t *Table) Scope(id ScopeID) *Scope {
	return t.Scopes.Get(uint32(id))
}

// Symbol returns the symbol by id, nil for NoSymbolID.
func (t *Table) Symbol(id SymbolID) *Symbol {
	return t.Symbols.Get(uint32(id))
}

// ScopeOf returns the scope opened by a Module, FunctionDef, ClassDef, Lambda
// or comprehension node.
func (t *Table) ScopeOf(opener ast.NodeID) ScopeID {
	return t.opener[opener]
}

// ScopeAt returns the scope in which the node is evaluated. Decorators,
// defaults and annotations of a def belong to the enclosing scope.
func (t *Table) ScopeAt(node ast.NodeID) ScopeID {
	for cur := node; cur.IsValid(); cur = t.Tree.Parent(cur) {
		if sc, ok := t.nodeAt[cur]; ok {
			return sc
		}
	}
	return t.Root
}

// SymbolAt returns the symbol a name-bearing node refers to.
func (t *Table) SymbolAt(node ast.NodeID) SymbolID {
	return t.symOf[node]
}

// Lookup returns the symbol bound directly in scope sc.
func (t *Table) Lookup(sc ScopeID, name string) SymbolID {
	if s := t.Scope(sc); s != nil {
		return s.Names[name]
	}
	return NoSymbolID
}

// Resolve finds the binding a load of name in scope sc refers to, following
// global/nonlocal declarations and skipping enclosing class scopes.
func (t *Table) Resolve(sc ScopeID, name string) SymbolID {
	s := t.Scope(sc)
	if s == nil {
		return NoSymbolID
	}
	global, nonlocal := s.declares(name)
	switch {
	case global:
		return t.Lookup(t.Root, name)
	case nonlocal:
		return t.Lookup(t.enclosingBinder(sc, name), name)
	}
	if id, ok := s.Names[name]; ok {
		return id
	}
	for p := s.Parent; p.IsValid(); p = t.Scope(p).Parent {
		ps := t.Scope(p)
		if ps.Kind == ScopeClass {
			continue
		}
		if id, ok := ps.Names[name]; ok {
			return id
		}
		if g, _ := ps.declares(name); g {
			return t.Lookup(t.Root, name)
		}
	}
	return NoSymbolID
}

// enclosingBinder returns the nearest enclosing function-like scope that binds name.
func (t *Table) enclosingBinder(sc ScopeID, name string) ScopeID {
	var fallback ScopeID
	for p := t.Scope(sc).Parent; p.IsValid(); p = t.Scope(p).Parent {
		ps := t.Scope(p)
		if !ps.IsFunctionLike() {
			continue
		}
		if !fallback.IsValid() {
			fallback = p
		}
		if _, ok := ps.Names[name]; ok {
			return p
		}
	}
	return fallback
}

// Each calls fn for every scope in creation (pre-)order.
func (t *Table) Each(fn func(ScopeID, *Scope)) {
	n := t.Scopes.Len()
	for i := uint32(1); i <= n; i++ {
		fn(ScopeID(i), t.Scopes.Get(i))
	}
}

// InFString reports how many f-string fields or string annotations mention
// name anywhere in the unit.
func (t *Table) InFString(name string) int {
	return t.fstring[name]
}

// Dynamic reports whether bindings of sc may be read through locals(),
// vars(), eval() or exec().
func (t *Table) Dynamic(sc ScopeID) bool {
	s := t.Scope(sc)
	return s != nil && s.Dynamic
}

// Enclosing returns the nearest function-like or module scope around sc (sc included).
func (t *Table) Enclosing(sc ScopeID) ScopeID {
	for cur := sc; cur.IsValid(); cur = t.Scope(cur).Parent {
		s := t.Scope(cur)
		if s.IsFunctionLike() || s.Kind == ScopeModule {
			return cur
		}
	}
	return t.Root
}

func (t *Table) String() string {
	total, err := safecast.Conv[int](t.Symbols.Len())
	if err != nil {
		total = -1
	}
	return fmt.Sprintf("scope.Table{scopes: %d, symbols: %d}", t.Scopes.Len(), total)
}
