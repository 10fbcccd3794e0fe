package parser

import (
	"pytidy/internal/ast"
	"pytidy/internal/token"
)

// Таблица приоритетов для бинарных операторов уровня bitwise_or и ниже.
// Чем больше число, тем выше приоритет. '**' разбирается отдельно (правоассоциативен).
const (
	precBitwiseOr      = 1 // |
	precBitwiseXor     = 2 // ^
	precBitwiseAnd     = 3 // &
	precShift          = 4 // << >>
	precAdditive       = 5 // + -
	precMultiplicative = 6 // * / // % @
)

// binaryPrec возвращает приоритет оператора или -1.
func binaryPrec(kind token.Kind) int {
	switch kind {
	case token.Pipe:
		return precBitwiseOr
	case token.Caret:
		return precBitwiseXor
	case token.Amp:
		return precBitwiseAnd
	case token.Shl, token.Shr:
		return precShift
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash, token.DoubleSlash, token.Percent, token.At:
		return precMultiplicative
	default:
		return -1
	}
}

// compareOp распознаёт оператор сравнения в текущей позиции; width: число токенов.
func (p *Parser) compareOp() (op ast.CmpOp, width int, ok bool) {
	switch p.kind() {
	case token.EqEq:
		return ast.CmpEq, 1, true
	case token.NotEq:
		return ast.CmpNotEq, 1, true
	case token.Lt:
		return ast.CmpLt, 1, true
	case token.LtEq:
		return ast.CmpLtE, 1, true
	case token.Gt:
		return ast.CmpGt, 1, true
	case token.GtEq:
		return ast.CmpGtE, 1, true
	case token.KwIn:
		return ast.CmpIn, 1, true
	case token.KwIs:
		if p.peekKind(1) == token.KwNot {
			return ast.CmpIsNot, 2, true
		}
		return ast.CmpIs, 1, true
	case token.KwNot:
		if p.peekKind(1) == token.KwIn {
			return ast.CmpNotIn, 2, true
		}
	}
	return 0, 0, false
}

// startsExpr: может ли текущий токен начинать выражение.
func (p *Parser) startsExpr() bool {
	switch p.kind() {
	case token.Name, token.Number, token.String, token.KwTrue, token.KwFalse, token.KwNone,
		token.KwNot, token.KwLambda, token.KwAwait, token.LParen, token.LBracket, token.LBrace,
		token.Minus, token.Plus, token.Tilde, token.Star, token.Ellipsis, token.KwYield:
		return true
	default:
		return false
	}
}
