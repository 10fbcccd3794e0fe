package diag

import (
	"fmt"

	"pytidy/internal/source"
)

type Note struct {
	Span source.Span `json:"-" yaml:"-" msgpack:"span"`
	Line int         `json:"line" yaml:"line" msgpack:"line"`
	Msg  string      `json:"message" yaml:"message" msgpack:"msg"`
}

// Finding is one analyzer observation. Line and Column are 1-based;
// Column 0 means the finding is not tied to a column.
type Finding struct {
	Category Category    `json:"category" yaml:"category" msgpack:"category"`
	Severity Severity    `json:"severity" yaml:"severity" msgpack:"severity"`
	Line     int         `json:"line" yaml:"line" msgpack:"line"`
	Column   int         `json:"column,omitempty" yaml:"column,omitempty" msgpack:"column"`
	EndLine  int         `json:"end_line,omitempty" yaml:"end_line,omitempty" msgpack:"end_line"`
	Message  string      `json:"message" yaml:"message" msgpack:"message"`
	Span     source.Span `json:"-" yaml:"-" msgpack:"span"`
	// Symbol names the identifier the finding is about, when there is one.
	Symbol string `json:"symbol,omitempty" yaml:"symbol,omitempty" msgpack:"symbol"`
	Notes  []Note `json:"notes,omitempty" yaml:"notes,omitempty" msgpack:"notes"`
}

func (f Finding) String() string {
	if f.Column > 0 {
		return fmt.Sprintf("%d:%d: %s: %s [%s]", f.Line, f.Column, f.Severity, f.Message, f.Category)
	}
	return fmt.Sprintf("%d: %s: %s [%s]", f.Line, f.Severity, f.Message, f.Category)
}

// Less orders findings by line, column, category name and message.
func Less(a, b Finding) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.Column != b.Column {
		return a.Column < b.Column
	}
	if an, bn := a.Category.String(), b.Category.String(); an != bn {
		return an < bn
	}
	return a.Message < b.Message
}
