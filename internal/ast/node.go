package ast

import (
	"pytidy/internal/source"
	"pytidy/internal/token"
)

// Role names the position of a node inside its parent.
type Role uint8

const (
	RoleNone Role = iota
	RoleBody
	RoleOrElse
	RoleFinally
	RoleHandler
	RoleTest
	RoleTarget
	RoleValue
	RoleIter
	RoleDecorator
	RoleParams
	RoleReturns
	RoleAnnotation
	RoleDefault
	RoleBase
	RoleArg
	RoleFunc
	RoleKey
	RoleSlice
	RoleLower
	RoleUpper
	RoleStep
	RoleElt
	RoleGenerator
	RoleIf
	RoleLeft
	RoleRight
	RoleOperand
	RoleComparator
	RoleType
	RoleCause
	RoleMsg
	RoleContext
	RoleItem
	RoleAlias
)

// Ctx is the expression context of a target-capable expression.
type Ctx uint8

const (
	CtxLoad Ctx = iota
	CtxStore
	CtxDel
	CtxDecl // имя в global/nonlocal
)

// CmpOp is one operator of a (possibly chained) comparison.
type CmpOp uint8

const (
	CmpEq CmpOp = iota
	CmpNotEq
	CmpLt
	CmpLtE
	CmpGt
	CmpGtE
	CmpIs
	CmpIsNot
	CmpIn
	CmpNotIn
)

var cmpText = [...]string{"==", "!=", "<", "<=", ">", ">=", "is", "is not", "in", "not in"}

func (c CmpOp) String() string { return cmpText[c] }

// Negate returns the complementary operator for is/in, ok=false otherwise.
func (c CmpOp) Negate() (CmpOp, bool) {
	switch c {
	case CmpIs:
		return CmpIsNot, true
	case CmpIsNot:
		return CmpIs, true
	case CmpIn:
		return CmpNotIn, true
	case CmpNotIn:
		return CmpIn, true
	default:
		return c, false
	}
}

// Flags carry kind-specific booleans.
type Flags uint16

const (
	FlagAsync Flags = 1 << iota
	FlagElif
	FlagInline
	FlagStar
	FlagDoubleStar
	FlagKwOnlyMarker
	FlagPosOnlyMarker
	FlagConcat
	FlagFString
	FlagParenthesized
	FlagTrailingComma
	FlagStarImport
)

// Node is one element of the tree. Parent is a non-owning back-reference;
// Children are owned and ordered by source position.
type Node struct {
	Kind     Kind
	Role     Role
	Span     source.Span
	First    int // индекс первого токена
	Last     int // индекс последнего токена (включительно)
	Parent   NodeID
	Children []NodeID

	Name    string // identifier, attribute, def/class name, dotted module
	AsName  string
	Value   string // literal text
	Op      token.Kind
	Ops     []CmpOp
	Ctx     Ctx
	Flags   Flags
	Level   int // точки относительного импорта
	NameTok int // токен имени (def/class/param/keyword/alias), -1 если нет
	AsTok   int // токен после 'as', -1 если нет
}

func (n *Node) Has(f Flags) bool { return n.Flags&f != 0 }
