package token

import (
	"strings"

	"pytidy/internal/source"
)

// Flags describe string literal shape.
type Flags uint8

const (
	FlagFString Flags = 1 << iota
	FlagBytes
	FlagRaw
	FlagTriple
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
	Flags   Flags
}

// IsLiteral reports whether the token is a numeric, string, or constant literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case Number, String, KwTrue, KwFalse, KwNone:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool { return t.Kind.IsKeyword() }

// IsName reports whether the token is an identifier.
func (t Token) IsName() bool { return t.Kind == Name }

// HasComment reports whether any leading trivia is a comment.
func (t Token) HasComment() bool {
	for _, tv := range t.Leading {
		if tv.Kind == TriviaComment {
			return true
		}
	}
	return false
}

// FullStart is the offset of the first leading trivia, or Span.Start.
func (t Token) FullStart() uint32 {
	if len(t.Leading) > 0 {
		return t.Leading[0].Span.Start
	}
	return t.Span.Start
}

// Render writes leading trivia and token text into b.
func (t Token) Render(b *strings.Builder) {
	for _, tv := range t.Leading {
		b.WriteString(tv.Text)
	}
	b.WriteString(t.Text)
}
