package ast

// Kind is the closed set of node variants.
type Kind uint8

const (
	KindInvalid Kind = iota

	Module
	Suite

	// statements
	FunctionDef
	ClassDef
	Decorator
	Params
	Param
	If
	While
	For
	Try
	ExceptHandler
	With
	WithItem
	Return
	Raise
	Del
	Pass
	Break
	Continue
	Global
	Nonlocal
	Assert
	Import
	ImportFrom
	Alias
	Assign
	AugAssign
	AnnAssign
	ExprStmt

	// expressions
	Name
	Constant
	Attribute
	Subscript
	Slice
	Call
	Keyword
	Starred
	BinOp
	UnaryOp
	BoolOp
	Compare
	IfExp
	Lambda
	NamedExpr
	Await
	Yield
	YieldFrom
	Tuple
	List
	Set
	Dict
	DictUnpack
	ListComp
	SetComp
	DictComp
	GeneratorExp
	Comprehension
	Paren

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid: "Invalid", Module: "Module", Suite: "Suite",
	FunctionDef: "FunctionDef", ClassDef: "ClassDef", Decorator: "Decorator",
	Params: "Params", Param: "Param", If: "If", While: "While", For: "For",
	Try: "Try", ExceptHandler: "ExceptHandler", With: "With", WithItem: "WithItem",
	Return: "Return", Raise: "Raise", Del: "Del", Pass: "Pass", Break: "Break",
	Continue: "Continue", Global: "Global", Nonlocal: "Nonlocal", Assert: "Assert",
	Import: "Import", ImportFrom: "ImportFrom", Alias: "Alias", Assign: "Assign",
	AugAssign: "AugAssign", AnnAssign: "AnnAssign", ExprStmt: "ExprStmt",
	Name: "Name", Constant: "Constant", Attribute: "Attribute", Subscript: "Subscript",
	Slice: "Slice", Call: "Call", Keyword: "Keyword", Starred: "Starred",
	BinOp: "BinOp", UnaryOp: "UnaryOp", BoolOp: "BoolOp", Compare: "Compare",
	IfExp: "IfExp", Lambda: "Lambda", NamedExpr: "NamedExpr", Await: "Await",
	Yield: "Yield", YieldFrom: "YieldFrom", Tuple: "Tuple", List: "List", Set: "Set",
	Dict: "Dict", DictUnpack: "DictUnpack", ListComp: "ListComp", SetComp: "SetComp",
	DictComp: "DictComp", GeneratorExp: "GeneratorExp", Comprehension: "Comprehension",
	Paren: "Paren",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Kind(?)"
}

// IsStmt reports whether nodes of kind k appear directly inside a Suite or Module.
func (k Kind) IsStmt() bool {
	return k >= FunctionDef && k <= ExprStmt && k != Decorator && k != Params &&
		k != Param && k != ExceptHandler && k != WithItem && k != Alias
}

// IsCompound reports whether k is a statement that owns suites.
func (k Kind) IsCompound() bool {
	switch k {
	case FunctionDef, ClassDef, If, While, For, Try, With:
		return true
	default:
		return false
	}
}

// IsExpr reports whether k is an expression kind.
func (k Kind) IsExpr() bool {
	return k >= Name && k <= Paren && k != Comprehension && k != Keyword
}

// OpensScope reports whether k introduces a new name scope.
func (k Kind) OpensScope() bool {
	switch k {
	case Module, FunctionDef, ClassDef, Lambda, ListComp, SetComp, DictComp, GeneratorExp:
		return true
	default:
		return false
	}
}
