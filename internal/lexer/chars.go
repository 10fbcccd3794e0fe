package lexer

import (
	"unicode"
	"unicode/utf8"
)

// identStart approximates XID_Start: letters, letter numbers and '_'.
func identStart(r rune) bool {
	if r < utf8.RuneSelf {
		lower := r | 0x20
		return r == '_' || ('a' <= lower && lower <= 'z')
	}
	return unicode.In(r, unicode.L, unicode.Nl, unicode.Other_ID_Start)
}

// identContinue approximates XID_Continue.
func identContinue(r rune) bool {
	if identStart(r) || ('0' <= r && r <= '9') {
		return true
	}
	return r >= utf8.RuneSelf && unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc, unicode.Other_ID_Continue)
}

// asciiIdentStart is identStart for a single byte of input.
func asciiIdentStart(b byte) bool {
	return b < utf8.RuneSelf && identStart(rune(b))
}

func isDec(b byte) bool { return '0' <= b && b <= '9' }

func isHex(b byte) bool {
	lower := b | 0x20
	return isDec(b) || ('a' <= lower && lower <= 'f')
}

// nextRune decodes the rune under the cursor; n is 0 at end of input and 1
// for a byte that is not valid UTF-8.
func (lx *Lexer) nextRune() (r rune, n int) {
	rest := lx.file.Content[lx.cursor.Off:]
	if len(rest) == 0 {
		return utf8.RuneError, 0
	}
	return utf8.DecodeRune(rest)
}

func (lx *Lexer) advanceRune() {
	if _, n := lx.nextRune(); n > 0 {
		lx.cursor.Off += uint32(n) // #nosec G115 -- n <= utf8.UTFMax
	}
}

// startsFraction reports a '.' directly followed by a digit, as in ".5".
func (lx *Lexer) startsFraction() bool {
	b0, b1, ok := lx.cursor.Peek2()
	return ok && b0 == '.' && isDec(b1)
}

// eatTripleQuote consumes three q bytes when the cursor is at them.
func (lx *Lexer) eatTripleQuote(q byte) bool {
	b0, b1, b2, ok := lx.cursor.Peek3()
	if !ok || b0 != q || b1 != q || b2 != q {
		return false
	}
	lx.cursor.Off += 3
	return true
}
