package scope

import "pytidy/internal/ast"

// ScopeKind enumerates the name scopes of the language.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeModule
	ScopeClass
	ScopeFunction
	ScopeLambda
	ScopeComprehension
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeClass:
		return "class"
	case ScopeFunction:
		return "function"
	case ScopeLambda:
		return "lambda"
	case ScopeComprehension:
		return "comprehension"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope with a parent-child hierarchy.
type Scope struct {
	Kind     ScopeKind
	Node     ast.NodeID // Module, FunctionDef, ClassDef, Lambda или включение
	Parent   ScopeID
	Children []ScopeID

	Names   map[string]SymbolID
	Symbols []SymbolID // в порядке первого связывания

	// Globals и Nonlocals хранят узел объявления для каждого имени.
	Globals   map[string]ast.NodeID
	Nonlocals map[string]ast.NodeID

	// Dynamic is set when the scope, or a lambda or comprehension nested in
	// it, calls locals(), vars(), eval() or exec().
	Dynamic    bool
	StarImport bool

	// Free collects loads that resolve to no binding (builtins or typos).
	Free []Ref
}

// IsFunctionLike reports whether the scope holds call-local bindings.
func (s *Scope) IsFunctionLike() bool {
	return s.Kind == ScopeFunction || s.Kind == ScopeLambda
}

func (s *Scope) declares(name string) (global, nonlocal bool) {
	_, global = s.Globals[name]
	_, nonlocal = s.Nonlocals[name]
	return global, nonlocal
}
