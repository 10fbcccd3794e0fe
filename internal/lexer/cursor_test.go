package lexer

import (
	"testing"

	"pytidy/internal/source"
)

func createFile(content string) *source.File {
	return source.NewFile("test.py", []byte(content))
}

// TestSequentialReading проверяет последовательное чтение: "a\nb" → a, \n, b, EOF
func TestSequentialReading(t *testing.T) {
	cursor := NewCursor(createFile("a\nb"))
	for _, want := range []byte{'a', '\n', 'b'} {
		if cursor.EOF() {
			t.Fatalf("unexpected EOF before %q", want)
		}
		if got := cursor.Bump(); got != want {
			t.Fatalf("Bump = %q, want %q", got, want)
		}
	}
	if !cursor.EOF() || cursor.Peek() != 0 || cursor.Bump() != 0 {
		t.Fatalf("expected EOF state at end")
	}
}

func TestPeek3AtBoundary(t *testing.T) {
	cursor := NewCursor(createFile("abc"))
	if b0, b1, b2, ok := cursor.Peek3(); !ok || b0 != 'a' || b1 != 'b' || b2 != 'c' {
		t.Fatalf("Peek3 = %q %q %q %v", b0, b1, b2, ok)
	}
	cursor.Bump()
	if _, _, _, ok := cursor.Peek3(); ok {
		t.Fatalf("Peek3 must fail with two bytes left")
	}
}

func TestSpanFromResolve(t *testing.T) {
	file := createFile("α\nβ")
	cursor := NewCursor(file)
	mark := cursor.Mark()
	cursor.Bump()
	cursor.Bump()
	span := cursor.SpanFrom(mark)
	if span.Start != 0 || span.End != 2 {
		t.Fatalf("span = %v, want 0-2", span)
	}
	start, end := file.Resolve(span)
	if start != (source.LineCol{Line: 1, Col: 1}) || end != (source.LineCol{Line: 1, Col: 3}) {
		t.Fatalf("Resolve = %+v %+v", start, end)
	}
}

func TestEatNewline_CRLF(t *testing.T) {
	cursor := NewCursor(createFile("a\r\nb\n"))
	if cursor.EatNewline() {
		t.Fatalf("EatNewline must fail on 'a'")
	}
	cursor.Bump()
	if !cursor.AtNewline() || !cursor.EatNewline() {
		t.Fatalf("expected CRLF newline")
	}
	if cursor.Peek() != 'b' {
		t.Fatalf("cursor must be on 'b', got %q", cursor.Peek())
	}
	if cursor.LineStart() != 3 {
		t.Fatalf("LineStart = %d, want 3", cursor.LineStart())
	}
}

func TestMarkReset(t *testing.T) {
	cursor := NewCursor(createFile("abc"))
	mark1 := cursor.Mark()
	cursor.Bump()
	mark2 := cursor.Mark()
	cursor.Bump()
	cursor.Reset(mark2)
	if cursor.Peek() != 'b' {
		t.Errorf("Expected peek 'b' after reset to mark2, got %c", cursor.Peek())
	}
	cursor.Reset(mark1)
	if cursor.Peek() != 'a' {
		t.Errorf("Expected peek 'a' after reset to mark1, got %c", cursor.Peek())
	}
}
