package source

import (
	"fmt"
)

// Span is a half-open byte range into a File's content.
type Span struct {
	Start uint32 // в байтах включительно
	End   uint32 // в байтах не включительно
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// Contains reports whether other lies entirely inside s.
func (s Span) Contains(other Span) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// ContainsOffset reports whether the byte at off lies inside s.
func (s Span) ContainsOffset(off uint32) bool {
	return s.Start <= off && off < s.End
}

// Overlaps reports whether two half-open spans share at least one byte.
// An empty span overlaps a non-empty one only when it sits strictly inside it.
func (s Span) Overlaps(other Span) bool {
	if s.Empty() || other.Empty() {
		if s.Empty() && other.Empty() {
			return false
		}
		if s.Empty() {
			return other.Start < s.Start && s.Start < other.End
		}
		return s.Start < other.Start && other.Start < s.End
	}
	return s.Start < other.End && other.Start < s.End
}
