package scope

import (
	"sort"

	"pytidy/internal/ast"
)

// SymbolKind classifies how a name was first bound.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolVariable
	SymbolParam
	SymbolImport
	SymbolFunction
	SymbolClass
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolVariable:
		return "variable"
	case SymbolParam:
		return "param"
	case SymbolImport:
		return "import"
	case SymbolFunction:
		return "function"
	case SymbolClass:
		return "class"
	default:
		return "invalid"
	}
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	// FlagGlobal: the name is bound from an inner scope through a global declaration.
	FlagGlobal SymbolFlags = 1 << iota
	FlagNonlocal
	// FlagExported: the name is listed in the module's __all__.
	FlagExported
	// FlagReexport: "import x as x" style explicit re-export.
	FlagReexport
	FlagFuture
)

// RefKind tells which syntax produced a reference.
type RefKind uint8

const (
	RefLoad RefKind = iota
	RefDel
	RefAssign
	RefAugAssign
	RefAnnotated // аннотация без значения
	RefFor
	RefWith
	RefExcept
	RefImport
	RefFunction
	RefClass
	RefParam
	RefWalrus
	RefDecl // global/nonlocal
)

// IsDef reports whether the reference binds the name.
func (k RefKind) IsDef() bool {
	return k >= RefAssign && k <= RefWalrus
}

// Ref is one occurrence of a name.
type Ref struct {
	Kind RefKind
	// Node is the Name, Param, Alias, FunctionDef, ClassDef or ExceptHandler node.
	Node ast.NodeID
	// Tok is the token spelling the identifier.
	Tok int
	// Scope is where the occurrence appears syntactically.
	Scope ScopeID
	// Unpacked marks targets nested inside a tuple, list or starred target.
	Unpacked bool
}

// Symbol describes a name bound in a scope.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Scope ScopeID
	Flags SymbolFlags

	Defs  []Ref
	Uses  []Ref // загрузки и del
	Decls []Ref // global/nonlocal объявления

	// FStringRefs counts mentions inside f-string fields and string annotations
	// that resolve here.
	FStringRefs int
}

// Used reports whether anything may read the symbol.
func (s *Symbol) Used() bool {
	return len(s.Uses) > 0 || s.FStringRefs > 0 || s.Flags&(FlagExported|FlagReexport) != 0
}

// OnlyKind reports whether every definition of the symbol has one of the given kinds.
func (s *Symbol) OnlyKind(kinds ...RefKind) bool {
	for _, d := range s.Defs {
		ok := false
		for _, k := range kinds {
			if d.Kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return len(s.Defs) > 0
}

// Occurrences returns the token indices of every definition, use and declaration.
func (s *Symbol) Occurrences() []int {
	out := make([]int, 0, len(s.Defs)+len(s.Uses)+len(s.Decls))
	seen := make(map[int]struct{}, cap(out))
	for _, group := range [][]Ref{s.Defs, s.Uses, s.Decls} {
		for _, r := range group {
			if _, dup := seen[r.Tok]; r.Tok < 0 || dup {
				continue
			}
			seen[r.Tok] = struct{}{}
			out = append(out, r.Tok)
		}
	}
	sort.Ints(out)
	return out
}
