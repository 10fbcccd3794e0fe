package refactor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ActionKind is the kind of one atomic transformation.
type ActionKind uint8

const (
	RenameSymbol ActionKind = iota
	ExtractFunction
	RemoveUnusedImport
	RemoveDeadCode
	SimplifyExpression
	Reformat
	AddDocstring
	SortImports
)

var actionKindNames = [...]string{
	RenameSymbol:       "rename-symbol",
	ExtractFunction:    "extract-function",
	RemoveUnusedImport: "remove-unused-import",
	RemoveDeadCode:     "remove-dead-code",
	SimplifyExpression: "simplify-expression",
	Reformat:           "reformat",
	AddDocstring:       "add-docstring",
	SortImports:        "sort-imports",
}

func (k ActionKind) String() string {
	if int(k) < len(actionKindNames) {
		return actionKindNames[k]
	}
	return fmt.Sprintf("ActionKind(%d)", k)
}

func (k ActionKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ActionKind) UnmarshalText(b []byte) error {
	for i, name := range actionKindNames {
		if name == string(b) {
			*k = ActionKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown action kind %q", b)
}

// Action is one applied transformation. Line and Targets refer to the text
// the action was planned against.
type Action struct {
	Kind        ActionKind        `json:"kind" yaml:"kind" msgpack:"kind"`
	Pass        string            `json:"pass" yaml:"pass" msgpack:"pass"`
	Line        int               `json:"line" yaml:"line" msgpack:"line"`
	Targets     []int             `json:"targets,omitempty" yaml:"targets,omitempty" msgpack:"targets"`
	Params      map[string]string `json:"params,omitempty" yaml:"params,omitempty" msgpack:"params"`
	Description string            `json:"description" yaml:"description" msgpack:"description"`
}

func (a Action) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s at line %d: %s", a.Kind, a.Line, a.Description)
	if len(a.Params) > 0 {
		keys := make([]string, 0, len(a.Params))
		for k := range a.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%s", k, a.Params[k])
		}
		b.WriteString(")")
	}
	return b.String()
}

// ErrorKind classifies refactor errors.
type ErrorKind uint8

const (
	// Failed: the pass panicked while planning.
	Failed ErrorKind = iota
	// Budget: the pass ran out of its node budget.
	Budget
	// Conflict: the pass produced edits that could not be applied together.
	Conflict
	// Reparse: the rewritten text no longer parses.
	Reparse
	// Missed: an opportunity was found but skipped as unsafe or ambiguous.
	Missed
)

var errorKindNames = [...]string{
	Failed:   "failed",
	Budget:   "budget-exceeded",
	Conflict: "conflict",
	Reparse:  "reparse",
	Missed:   "missed-opportunity",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", k)
}

func (k ErrorKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *ErrorKind) UnmarshalText(b []byte) error {
	for i, name := range errorKindNames {
		if name == string(b) {
			*k = ErrorKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown refactor error kind %q", b)
}

// ErrPassFailed is matched by every Error that reverted its pass.
var ErrPassFailed = errors.New("refactor pass failed")

// Error is a non-fatal refactor problem. Except for Missed, the pass that
// produced it was rolled back.
type Error struct {
	Kind    ErrorKind `json:"kind" yaml:"kind" msgpack:"kind"`
	Pass    string    `json:"pass" yaml:"pass" msgpack:"pass"`
	Line    int       `json:"line,omitempty" yaml:"line,omitempty" msgpack:"line"`
	Message string    `json:"message" yaml:"message" msgpack:"message"`
	Err     error     `json:"-" yaml:"-" msgpack:"-"`
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: %s at line %d: %s", e.Pass, e.Kind, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pass, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPassFailed) match rolled-back passes.
func (e *Error) Is(target error) bool {
	return target == ErrPassFailed && e.Kind != Missed
}
