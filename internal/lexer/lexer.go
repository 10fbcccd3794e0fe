package lexer

import (
	"pytidy/internal/source"
	"pytidy/internal/token"
)

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	queue  []token.Token  // отложенные Indent/Dedent и токен за ними
	hold   []token.Trivia // накопленные leading trivia
	look   *token.Token   // 1 элементный буфер для Peek
	indent []uint32       // стек колонок отступа, дно всегда 0
	depth  int            // вложенность скобок
	opens  []token.Token  // открытые скобки, len(opens) == depth
	atBOL  bool           // в начале логической строки
	last   token.Kind     // последний отданный значимый токен
	bom    uint32
	done   bool
	err    *Error
}

func New(file *source.File, opts Options) *Lexer {
	lx := &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
		indent: []uint32{0},
		atBOL:  true,
		last:   token.Newline,
	}
	if len(file.Content) >= 3 && file.Content[0] == 0xEF && file.Content[1] == 0xBB && file.Content[2] == 0xBF {
		// BOM остаётся в тексте как часть первой trivia
		lx.cursor.Off = 3
		lx.bom = 3
		lx.hold = append(lx.hold, token.Trivia{
			Kind: token.TriviaSpace,
			Span: source.Span{Start: 0, End: 3},
			Text: string(file.Content[:3]),
		})
	}
	return lx
}

// Err returns the first lexical error, if any.
func (lx *Lexer) Err() *Error {
	return lx.err
}

// Next возвращает следующий токен с уже собранным Leading.
// После EOF всегда возвращает EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}
	if len(lx.queue) > 0 {
		tok := lx.queue[0]
		lx.queue = lx.queue[1:]
		return lx.emit(tok)
	}
	if lx.done {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	}

	lx.collectLeadingTrivia()

	if lx.cursor.EOF() {
		return lx.finish()
	}

	// конец логической строки
	if lx.cursor.AtNewline() {
		start := lx.cursor.Mark()
		lx.cursor.EatNewline()
		sp := lx.cursor.SpanFrom(start)
		lx.atBOL = true
		return lx.emit(lx.withHold(token.Token{Kind: token.Newline, Span: sp, Text: lx.text(sp)}))
	}

	if lx.atBOL {
		lx.atBOL = false
		if lx.depth == 0 {
			if pending := lx.indentTokens(); len(pending) > 0 {
				tok := lx.withHold(lx.scanToken())
				lx.queue = append(pending[1:], tok)
				return lx.emit(pending[0])
			}
		}
	}
	return lx.emit(lx.withHold(lx.scanToken()))
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

func (lx *Lexer) scanToken() token.Token {
	ch := lx.cursor.Peek()
	switch {
	case ch >= 0x80 || asciiIdentStart(ch):
		return lx.scanIdentOrKeyword()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '.' && lx.startsFraction():
		return lx.scanNumber()
	case ch == '"' || ch == '\'':
		return lx.scanString(lx.cursor.Mark(), 0)
	default:
		return lx.scanOperatorOrPunct()
	}
}

// finish выдаёт хвост файла: Newline (если строка не закрыта), Dedent'ы и EOF.
func (lx *Lexer) finish() token.Token {
	lx.done = true
	if lx.depth > 0 {
		// позиция указывает на самую внешнюю незакрытую скобку
		open := lx.opens[0]
		lx.report("UnexpectedEOF", open.Span, "'"+open.Text+"' was never closed")
	}
	end := lx.emptySpan()
	at := lx.holdStart()
	var out []token.Token
	if lx.last != token.Newline && lx.last != token.Dedent && lx.last != token.Indent {
		// хвостовой комментарий без перевода строки принадлежит строке
		out = append(out, lx.withHold(token.Token{Kind: token.Newline, Span: end}))
		at = end
	}
	for len(lx.indent) > 1 {
		lx.indent = lx.indent[:len(lx.indent)-1]
		out = append(out, token.Token{Kind: token.Dedent, Span: at})
	}
	out = append(out, lx.withHold(token.Token{Kind: token.EOF, Span: end}))
	lx.queue = append(lx.queue, out[1:]...)
	return lx.emit(out[0])
}

// indentTokens сравнивает отступ текущей строки со стеком.
func (lx *Lexer) indentTokens() []token.Token {
	col := lx.indentColumn()
	sp := lx.holdStart()
	top := lx.indent[len(lx.indent)-1]
	switch {
	case col > top:
		lx.indent = append(lx.indent, col)
		return []token.Token{{Kind: token.Indent, Span: sp}}
	case col < top:
		var out []token.Token
		for len(lx.indent) > 1 && lx.indent[len(lx.indent)-1] > col {
			lx.indent = lx.indent[:len(lx.indent)-1]
			out = append(out, token.Token{Kind: token.Dedent, Span: sp})
		}
		if lx.indent[len(lx.indent)-1] != col {
			lx.report("BadDedent", sp, "unindent does not match any outer indentation level")
		}
		return out
	default:
		return nil
	}
}

// indentColumn считает колонку с табуляцией по 8.
func (lx *Lexer) indentColumn() uint32 {
	var col uint32
	for off := max(lx.cursor.LineStart(), lx.bom); off < lx.cursor.Off; off++ {
		switch lx.file.Content[off] {
		case '\t':
			col = (col/8 + 1) * 8
		case '\f':
			col = 0
		default:
			col++
		}
	}
	return col
}

func (lx *Lexer) withHold(tok token.Token) token.Token {
	if len(lx.hold) > 0 {
		tok.Leading = lx.hold
		lx.hold = nil
	}
	return tok
}

func (lx *Lexer) emit(tok token.Token) token.Token {
	switch {
	case tok.Kind.IsOpenBracket():
		lx.depth++
		lx.opens = append(lx.opens, tok)
	case tok.Kind.IsCloseBracket():
		if lx.depth == 0 {
			lx.report("Unbalanced", tok.Span, "unmatched '"+tok.Text+"'")
		} else {
			lx.depth--
			lx.opens = lx.opens[:lx.depth]
		}
	}
	if tok.Kind != token.EOF {
		lx.last = tok.Kind
	}
	return tok
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

// holdStart: нулевой span в начале накопленных trivia.
func (lx *Lexer) holdStart() source.Span {
	if len(lx.hold) > 0 {
		off := lx.hold[0].Span.Start
		return source.Span{Start: off, End: off}
	}
	return lx.emptySpan()
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{Start: lx.cursor.Off, End: lx.cursor.Off}
}

// Tokenize lexes the whole file. On error the token slice is still returned
// up to and including EOF so callers can dump it.
func Tokenize(file *source.File, opts Options) ([]token.Token, error) {
	lx := New(file, opts)
	toks := make([]token.Token, 0, len(file.Content)/4+4)
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	if lx.err != nil {
		return toks, lx.err
	}
	return toks, nil
}
