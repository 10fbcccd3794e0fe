package lexer

import (
	"pytidy/internal/token"
)

// Жадность: сначала 3-символьные, затем 2-символьные, затем 1-символьные.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}

	if b0, b1, b2, ok := lx.cursor.Peek3(); ok {
		if k, found := token.LookupOperator(string([]byte{b0, b1, b2})); found {
			lx.cursor.Bump()
			lx.cursor.Bump()
			lx.cursor.Bump()
			return emit(k)
		}
	}
	if b0, b1, ok := lx.cursor.Peek2(); ok {
		if k, found := token.LookupOperator(string([]byte{b0, b1})); found {
			lx.cursor.Bump()
			lx.cursor.Bump()
			return emit(k)
		}
	}
	if k, found := token.LookupOperator(string([]byte{lx.cursor.Peek()})); found {
		lx.cursor.Bump()
		return emit(k)
	}

	// неизвестный символ
	lx.advanceRune()
	sp := lx.cursor.SpanFrom(start)
	lx.report("UnknownChar", sp, "invalid character '"+lx.text(sp)+"'")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}
