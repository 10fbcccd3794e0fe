package diag

import (
	"fmt"
	"strings"
)

// Category classifies a finding. The order is stable and used for IDs.
type Category uint8

const (
	UnknownCategory Category = iota
	UnusedImport
	UnusedVariable
	LongFunction
	TooManyArguments
	MagicNumber
	MissingDocstring
	Duplication
	ComplexExpression
	Naming
	GlobalState
	ExcessiveLineLength

	categoryCount
)

var categoryNames = [categoryCount]string{
	UnknownCategory:     "unknown",
	UnusedImport:        "unused-import",
	UnusedVariable:      "unused-variable",
	LongFunction:        "long-function",
	TooManyArguments:    "too-many-arguments",
	MagicNumber:         "magic-number",
	MissingDocstring:    "missing-docstring",
	Duplication:         "duplication",
	ComplexExpression:   "complex-expression",
	Naming:              "naming",
	GlobalState:         "global-state",
	ExcessiveLineLength: "excessive-line-length",
}

var categoryDescription = [categoryCount]string{
	UnknownCategory:     "Unknown finding",
	UnusedImport:        "Imported name is never used",
	UnusedVariable:      "Local variable is assigned but never read",
	LongFunction:        "Function body has too many statements",
	TooManyArguments:    "Function takes too many parameters",
	MagicNumber:         "Numeric literal without a named constant",
	MissingDocstring:    "Public module, class or function lacks a docstring",
	Duplication:         "Repeated block of statements",
	ComplexExpression:   "Expression or loop nesting is hard to follow",
	Naming:              "Name does not follow conventions",
	GlobalState:         "Function mutates module-level state",
	ExcessiveLineLength: "Line is longer than the configured limit",
}

// Categories returns every known category in ID order.
func Categories() []Category {
	out := make([]Category, 0, categoryCount-1)
	for c := UnusedImport; c < categoryCount; c++ {
		out = append(out, c)
	}
	return out
}

// ParseCategory accepts the kebab-case name ("unused-import") or the ID ("PT003").
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	for c := UnusedImport; c < categoryCount; c++ {
		if categoryNames[c] == s || strings.ToLower(c.ID()) == s {
			return c, true
		}
	}
	return UnknownCategory, false
}

// ID returns the stable short identifier, e.g. PT001.
func (c Category) ID() string {
	if c == UnknownCategory || c >= categoryCount {
		return "PT000"
	}
	return fmt.Sprintf("PT%03d", int(c))
}

func (c Category) Title() string {
	if c >= categoryCount {
		return categoryDescription[UnknownCategory]
	}
	return categoryDescription[c]
}

// String returns the kebab-case name used in configuration and reports.
func (c Category) String() string {
	if c >= categoryCount {
		return categoryNames[UnknownCategory]
	}
	return categoryNames[c]
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	v, ok := ParseCategory(string(b))
	if !ok {
		return fmt.Errorf("unknown category %q", string(b))
	}
	*c = v
	return nil
}
