package diff

import (
	"errors"
	"fmt"
	"strings"

	"pytidy/internal/analysis"
	"pytidy/internal/diag"
	"pytidy/internal/refactor"
)

// CategoryCount is the before/after finding count of one category.
type CategoryCount struct {
	Category diag.Category `json:"category" yaml:"category" msgpack:"category"`
	Before   int           `json:"before" yaml:"before" msgpack:"before"`
	After    int           `json:"after" yaml:"after" msgpack:"after"`
}

// Fixed returns how many findings of the category went away.
func (c CategoryCount) Fixed() int { return max(c.Before-c.After, 0) }

// LineDelta summarizes the line-level size of the change.
type LineDelta struct {
	Before  int `json:"before" yaml:"before" msgpack:"before"`
	After   int `json:"after" yaml:"after" msgpack:"after"`
	Added   int `json:"added" yaml:"added" msgpack:"added"`
	Removed int `json:"removed" yaml:"removed" msgpack:"removed"`
	Changed int `json:"changed" yaml:"changed" msgpack:"changed"`
}

// Report aggregates one pipeline run. It is built once by Compare and
// completed by Note; callers treat it as read-only afterwards.
type Report struct {
	Counts   []CategoryCount    `json:"counts" yaml:"counts" msgpack:"counts"`
	Actions  []refactor.Action  `json:"actions" yaml:"actions" msgpack:"actions"`
	Errors   []*refactor.Error  `json:"errors,omitempty" yaml:"errors,omitempty" msgpack:"errors"`
	Failures []analysis.Failure `json:"failures,omitempty" yaml:"failures,omitempty" msgpack:"failures"`
	Partial  bool               `json:"partial" yaml:"partial" msgpack:"partial"`
	Lines    LineDelta          `json:"lines" yaml:"lines" msgpack:"lines"`
}

// Compare aligns original and transformed and builds the report. before and
// after are the findings on each text; actions are the applied rewrites.
func Compare(original, transformed string, before, after []diag.Finding, actions []refactor.Action) ([]Entry, *Report) {
	entries := Lines(original, transformed)
	rep := &Report{
		Counts:  countCategories(before, after),
		Actions: append([]refactor.Action(nil), actions...),
		Lines:   lineDelta(entries),
	}
	return entries, rep
}

func countCategories(before, after []diag.Finding) []CategoryCount {
	b := diag.CountByCategory(before)
	a := diag.CountByCategory(after)
	var out []CategoryCount
	for _, c := range diag.Categories() {
		if b[c] == 0 && a[c] == 0 {
			continue
		}
		out = append(out, CategoryCount{Category: c, Before: b[c], After: a[c]})
	}
	return out
}

func lineDelta(entries []Entry) LineDelta {
	var d LineDelta
	for _, e := range entries {
		d.Before += e.OldLines()
		d.After += e.NewLines()
		switch e.Op {
		case Insert:
			d.Added += e.NewLines()
		case Delete:
			d.Removed += e.OldLines()
		case Replace:
			paired := min(e.OldLines(), e.NewLines())
			d.Changed += paired
			d.Added += e.NewLines() - paired
			d.Removed += e.OldLines() - paired
		}
	}
	return d
}

// Note records the problems of the run. Check failures and rolled-back
// passes make the report partial; missed opportunities do not.
func (r *Report) Note(failures []analysis.Failure, errs []*refactor.Error) {
	r.Failures = append(r.Failures, failures...)
	r.Errors = append(r.Errors, errs...)
	if len(failures) > 0 {
		r.Partial = true
	}
	for _, e := range errs {
		if errors.Is(e, refactor.ErrPassFailed) {
			r.Partial = true
		}
	}
}

// Count returns the before/after counts of one category.
func (r *Report) Count(cat diag.Category) CategoryCount {
	for _, c := range r.Counts {
		if c.Category == cat {
			return c
		}
	}
	return CategoryCount{Category: cat}
}

// Totals returns the overall finding counts.
func (r *Report) Totals() (before, after, fixed int) {
	for _, c := range r.Counts {
		before += c.Before
		after += c.After
		fixed += c.Fixed()
	}
	return before, after, fixed
}

// ActionCount returns how many applied actions have the given kind.
func (r *Report) ActionCount(kind refactor.ActionKind) int {
	n := 0
	for _, a := range r.Actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// Changed reports whether the run rewrote anything.
func (r *Report) Changed() bool {
	return r.Lines.Added+r.Lines.Removed+r.Lines.Changed > 0
}

// Summary renders the report as plain text.
func (r *Report) Summary() string {
	var sb strings.Builder
	before, after, fixed := r.Totals()
	fmt.Fprintf(&sb, "findings: %d before, %d after, %d fixed\n", before, after, fixed)
	for _, c := range r.Counts {
		fmt.Fprintf(&sb, "  %-22s %3d -> %d\n", c.Category, c.Before, c.After)
	}
	fmt.Fprintf(&sb, "lines: %d -> %d (+%d -%d ~%d)\n",
		r.Lines.Before, r.Lines.After, r.Lines.Added, r.Lines.Removed, r.Lines.Changed)
	if len(r.Actions) > 0 {
		fmt.Fprintf(&sb, "actions (%d):\n", len(r.Actions))
		for _, a := range r.Actions {
			sb.WriteString("  " + a.String() + "\n")
		}
	}
	if len(r.Errors) > 0 {
		fmt.Fprintf(&sb, "refactor errors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			sb.WriteString("  " + e.Error() + "\n")
		}
	}
	if len(r.Failures) > 0 {
		fmt.Fprintf(&sb, "incomplete checks (%d):\n", len(r.Failures))
		for _, f := range r.Failures {
			sb.WriteString("  " + f.Error() + "\n")
		}
	}
	if r.Partial {
		sb.WriteString("result is partial\n")
	}
	return sb.String()
}
