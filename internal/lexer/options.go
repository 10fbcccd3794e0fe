package lexer

import (
	"fmt"

	"pytidy/internal/source"
)

// Reporter: тонкий интерфейс, чтобы не тянуть diag сюда.
// Лексер **только вызывает** его с параметрами; форматирует внешний слой.
type Reporter interface {
	Report(kind string, span source.Span, msg string)
}

type Options struct {
	Reporter Reporter // может быть nil; первая ошибка всё равно сохраняется в Err()
}

// Error is a lexical error at a byte offset.
type Error struct {
	Kind string
	Span source.Span
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d: %s", e.Kind, e.Span.Start, e.Msg)
}

func (lx *Lexer) report(kind string, sp source.Span, msg string) {
	if lx.err == nil {
		lx.err = &Error{Kind: kind, Span: sp, Msg: msg}
	}
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(kind, sp, msg)
	}
}
