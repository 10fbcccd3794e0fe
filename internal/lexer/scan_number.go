package lexer

import (
	"pytidy/internal/token"
)

// Поддержка: 0, 123, 1_000, 0b..., 0o..., 0x..., 1.0, 1., .5, 1e-3, 1.0e+10, 3j.
// Неверные формы: репорт в opts.Reporter, токен по возможности завершаем.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	// ведущая точка: значит формат ".digits"
	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		lx.eatDigits(isDec)
		goto exponent
	}

	if lx.cursor.Peek() == '0' {
		lx.cursor.Bump()
		switch lx.cursor.Peek() {
		case 'b', 'B':
			lx.cursor.Bump()
			lx.cursor.Eat('_')
			if !lx.eatDigits(func(b byte) bool { return b == '0' || b == '1' }) {
				return lx.badNumber(start, "invalid binary literal")
			}
			goto emit
		case 'o', 'O':
			lx.cursor.Bump()
			lx.cursor.Eat('_')
			if !lx.eatDigits(func(b byte) bool { return b >= '0' && b <= '7' }) {
				return lx.badNumber(start, "invalid octal literal")
			}
			goto emit
		case 'x', 'X':
			lx.cursor.Bump()
			lx.cursor.Eat('_')
			if !lx.eatDigits(isHex) {
				return lx.badNumber(start, "invalid hexadecimal literal")
			}
			goto emit
		}
	}

	lx.eatDigits(isDec)

	// дробная часть; "1." тоже float
	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		lx.eatDigits(isDec)
	}

exponent:
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		mark := lx.cursor.Mark()
		lx.cursor.Bump()
		if b2 := lx.cursor.Peek(); b2 == '+' || b2 == '-' {
			lx.cursor.Bump()
		}
		if !lx.eatDigits(isDec) {
			lx.cursor.Reset(mark)
			return lx.badNumber(start, "expected digit after exponent")
		}
	}
	if b := lx.cursor.Peek(); b == 'j' || b == 'J' {
		lx.cursor.Bump()
	}

emit:
	if asciiIdentStart(lx.cursor.Peek()) {
		lx.cursor.Bump()
		return lx.badNumber(start, "invalid decimal literal")
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.Number, Span: sp, Text: lx.text(sp)}
}

// eatDigits съедает цифры с одиночными '_' между ними.
func (lx *Lexer) eatDigits(ok func(byte) bool) bool {
	seen := false
	for {
		b := lx.cursor.Peek()
		if ok(b) {
			lx.cursor.Bump()
			seen = true
			continue
		}
		if b == '_' && seen {
			_, b1, has := lx.cursor.Peek2()
			if has && ok(b1) {
				lx.cursor.Bump()
				continue
			}
		}
		return seen
	}
}

func (lx *Lexer) badNumber(start Mark, msg string) token.Token {
	sp := lx.cursor.SpanFrom(start)
	lx.report("BadNumber", sp, msg)
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}
