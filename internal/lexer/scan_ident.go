package lexer

import (
	"strings"
	"unicode/utf8"

	"pytidy/internal/token"
)

// scanIdentOrKeyword сканирует имя и проверяет через LookupKeyword.
// Префиксы строк (r, b, f, rb, ...) перед кавычкой уходят в scanString.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()

	r, n := lx.nextRune()
	switch {
	case n == 0:
		return token.Token{Kind: token.Invalid, Span: lx.cursor.SpanFrom(start)}
	case !identStart(r) && r < utf8.RuneSelf:
		return lx.scanOperatorOrPunct()
	case !identStart(r):
		lx.advanceRune()
		sp := lx.cursor.SpanFrom(start)
		lx.report("UnknownChar", sp, "invalid character in identifier")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	lx.advanceRune()
	for {
		if r, n := lx.nextRune(); n == 0 || !identContinue(r) {
			break
		}
		lx.advanceRune()
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)

	if q := lx.cursor.Peek(); q == '"' || q == '\'' {
		if flags, ok := stringPrefix(text); ok {
			return lx.scanString(start, flags)
		}
	}

	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Name, Span: sp, Text: text}
}

// stringPrefix распознаёт допустимые префиксы строковых литералов.
func stringPrefix(p string) (token.Flags, bool) {
	if len(p) > 2 {
		return 0, false
	}
	var flags token.Flags
	for _, c := range strings.ToLower(p) {
		switch c {
		case 'r':
			if flags&token.FlagRaw != 0 {
				return 0, false
			}
			flags |= token.FlagRaw
		case 'b':
			if flags&(token.FlagBytes|token.FlagFString) != 0 {
				return 0, false
			}
			flags |= token.FlagBytes
		case 'f':
			if flags&(token.FlagBytes|token.FlagFString) != 0 {
				return 0, false
			}
			flags |= token.FlagFString
		case 'u':
			if len(p) != 1 {
				return 0, false
			}
		default:
			return 0, false
		}
	}
	return flags, true
}
