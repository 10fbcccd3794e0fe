package lexer

import (
	"pytidy/internal/token"
)

// collectLeadingTrivia собирает подряд идущие trivia перед значимым токеном.
//   - ' ', '\t', '\f' и одиночный '\r' коалесцируются в один TriviaSpace
//   - '#...' до конца строки -> TriviaComment
//   - '\\' + перевод строки -> TriviaContinuation
//   - перевод строки внутри скобок или в начале логической строки -> TriviaNewline
//
// Перевод строки после значимого токена вне скобок не трогаем: это Newline.
func (lx *Lexer) collectLeadingTrivia() {
	for !lx.cursor.EOF() {
		start := lx.cursor.Mark()
		b := lx.cursor.Peek()

		switch {
		case b == ' ' || b == '\t' || b == '\f' || (b == '\r' && !lx.cursor.AtNewline()):
			for {
				b2 := lx.cursor.Peek()
				if b2 != ' ' && b2 != '\t' && b2 != '\f' && (b2 != '\r' || lx.cursor.AtNewline()) {
					break
				}
				lx.cursor.Bump()
			}
			lx.push(token.TriviaSpace, start)

		case b == '#':
			for !lx.cursor.EOF() && !lx.cursor.AtNewline() {
				lx.cursor.Bump()
			}
			lx.push(token.TriviaComment, start)

		case b == '\\':
			lx.cursor.Bump()
			if !lx.cursor.EatNewline() {
				if lx.cursor.EOF() {
					lx.report("UnexpectedEOF", lx.cursor.SpanFrom(start), "unexpected EOF after line continuation")
					lx.push(token.TriviaContinuation, start)
					continue
				}
				lx.cursor.Reset(start)
				return
			}
			lx.push(token.TriviaContinuation, start)

		case lx.cursor.AtNewline():
			if lx.depth == 0 && !lx.atBOL {
				return
			}
			lx.cursor.EatNewline()
			lx.push(token.TriviaNewline, start)

		default:
			return
		}
	}
}

func (lx *Lexer) push(kind token.TriviaKind, start Mark) {
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{Kind: kind, Span: sp, Text: lx.text(sp)})
}
