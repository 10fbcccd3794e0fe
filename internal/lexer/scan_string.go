package lexer

import (
	"pytidy/internal/token"
)

// scanString сканирует литерал от start (включая уже съеденный префикс).
// Экранирование: '\' всегда пропускает следующий байт, даже в raw-строках,
// поэтому r"\"" остаётся одной строкой.
// f-строки не разбираются: поля {...} остаются частью текста литерала.
func (lx *Lexer) scanString(start Mark, flags token.Flags) token.Token {
	quote := lx.cursor.Bump()
	triple := false
	if b0, b1, ok := lx.cursor.Peek2(); ok && b0 == quote && b1 == quote {
		lx.cursor.Bump()
		lx.cursor.Bump()
		triple = true
		flags |= token.FlagTriple
	}

	for {
		if lx.cursor.EOF() {
			sp := lx.cursor.SpanFrom(start)
			msg := "unterminated string literal"
			if triple {
				msg = "unterminated triple-quoted string literal"
			}
			lx.report("UnterminatedString", sp, msg)
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp), Flags: flags}
		}
		b := lx.cursor.Peek()
		switch {
		case b == '\\':
			lx.cursor.Bump()
			if !lx.cursor.EatNewline() {
				lx.advanceRune()
			}
		case !triple && lx.cursor.AtNewline():
			sp := lx.cursor.SpanFrom(start)
			lx.report("UnterminatedString", sp, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp), Flags: flags}
		case b == quote && !triple:
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.String, Span: sp, Text: lx.text(sp), Flags: flags}
		case b == quote && lx.eatTripleQuote(quote):
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.String, Span: sp, Text: lx.text(sp), Flags: flags}
		default:
			lx.advanceRune()
		}
	}
}
