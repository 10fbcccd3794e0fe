package token

import "pytidy/internal/source"

type TriviaKind uint8

const (
	// TriviaSpace is a run of spaces, tabs or form feeds.
	TriviaSpace TriviaKind = iota
	// TriviaNewline is a line break that does not end a logical line.
	TriviaNewline
	// TriviaComment runs from '#' to the end of the line, newline excluded.
	TriviaComment
	// TriviaContinuation is a backslash followed by a line break.
	TriviaContinuation
)

func (k TriviaKind) String() string {
	switch k {
	case TriviaSpace:
		return "Space"
	case TriviaNewline:
		return "Newline"
	case TriviaComment:
		return "Comment"
	case TriviaContinuation:
		return "Continuation"
	default:
		return "Trivia(?)"
	}
}

type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}
