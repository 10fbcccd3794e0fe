package source

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	"fortio.org/safecast"
)

// Layout records byte-level traits of a file that a rewrite must keep.
type Layout uint8

const (
	HasBOM         Layout = 1 << iota // starts with a UTF-8 byte order mark
	CRLF                              // some line ends with \r\n
	NoFinalNewline                    // the last line has no terminator
)

// File is one Python source text. Content is kept byte for byte: the BOM
// stays in place and line endings are not normalized, so rendering the
// parsed file reproduces it exactly.
type File struct {
	Path     string
	Content  []byte
	Newlines []uint32 // offset of every '\n'
	Hash     [32]byte
	Layout   Layout
}

// LineCol is a 1-based line and byte column.
type LineCol struct {
	Line uint32
	Col  uint32
}

// NewFile indexes content. Path may be empty for text read from memory.
func NewFile(path string, content []byte) *File {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	var layout Layout
	if bytes.HasPrefix(content, utf8BOM) {
		layout |= HasBOM
	}
	if bytes.Contains(content, []byte("\r\n")) {
		layout |= CRLF
	}
	if n := len(content); n > 0 && content[n-1] != '\n' {
		layout |= NoFinalNewline
	}
	return &File{
		Path:     normalizePath(path),
		Content:  content,
		Newlines: buildLineIndex(content),
		Hash:     sha256.Sum256(content),
		Layout:   layout,
	}
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Virtual reports whether the text has no file on disk behind it.
func (f *File) Virtual() bool {
	return f.Path == "" || f.Path == "<stdin>"
}

// Len returns the content length as uint32.
func (f *File) Len() uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("len file content overflow: %w", err))
	}
	return n
}

// Text returns the bytes covered by span.
func (f *File) Text(span Span) string {
	end := min(span.End, f.Len())
	start := min(span.Start, end)
	return string(f.Content[start:end])
}

// Resolve converts a span into line and column positions.
func (f *File) Resolve(span Span) (start, end LineCol) {
	return toLineCol(f.Newlines, span.Start), toLineCol(f.Newlines, span.End)
}

// Position converts a byte offset into a line/column pair.
func (f *File) Position(off uint32) LineCol {
	return toLineCol(f.Newlines, off)
}

// LineCount returns the number of lines; a trailing newline does not open a new line.
func (f *File) LineCount() int {
	if len(f.Content) == 0 {
		return 0
	}
	n := len(f.Newlines)
	if f.Layout&NoFinalNewline != 0 {
		n++
	}
	return n
}

// LineStart returns the byte offset at which the 1-based line begins.
func (f *File) LineStart(lineNum uint32) uint32 {
	if lineNum <= 1 {
		return 0
	}
	idx := int(lineNum) - 2
	if idx >= len(f.Newlines) {
		return f.Len()
	}
	return f.Newlines[idx] + 1
}

// GetLine возвращает строку с заданным номером (1-based) без перевода строки.
// Если строка не существует, возвращает пустую строку.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	start := f.LineStart(lineNum)
	if start >= f.Len() {
		return ""
	}
	end := f.Len()
	if idx := int(lineNum) - 1; idx < len(f.Newlines) {
		end = f.Newlines[idx]
	}
	line := f.Content[start:end]
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return string(line)
}

// SplitLines splits text into lines that keep their terminators, so that
// strings.Join(SplitLines(s), "") == s.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	out := make([]string, 0, bytes.Count([]byte(text), []byte{'\n'})+1)
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			out = append(out, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}
