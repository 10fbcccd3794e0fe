package driver

import (
	"fmt"
	"strings"

	"pytidy/internal/diag"
	"pytidy/internal/diff"
)

// Summary aggregates the per-file reports of a batch run. Each file's
// report stays independent; the summary only adds them up.
type Summary struct {
	RunID      string               `json:"run_id" yaml:"run_id"`
	Files      int                  `json:"files" yaml:"files"`
	Failed     int                  `json:"failed" yaml:"failed"`
	Changed    int                  `json:"changed" yaml:"changed"`
	Cached     int                  `json:"cached" yaml:"cached"`
	Written    int                  `json:"written" yaml:"written"`
	Partial    int                  `json:"partial" yaml:"partial"`
	Counts     []diff.CategoryCount `json:"counts" yaml:"counts"`
	Actions    map[string]int       `json:"actions" yaml:"actions"`
	Lines      diff.LineDelta       `json:"lines" yaml:"lines"`
	DurationMS float64              `json:"duration_ms" yaml:"duration_ms"`
}

// Summary adds up the results of every file.
func (r *Result) Summary() Summary {
	s := Summary{
		RunID:      r.RunID,
		Files:      len(r.Files),
		Actions:    make(map[string]int),
		DurationMS: float64(r.Duration.Microseconds()) / 1000,
	}
	before := make(map[diag.Category]int)
	after := make(map[diag.Category]int)
	for _, f := range r.Files {
		if f.Err != nil || f.Output == nil {
			s.Failed++
			continue
		}
		if f.Cached {
			s.Cached++
		}
		if f.Written != "" {
			s.Written++
		}
		rep := f.Output.Report
		if rep == nil {
			continue
		}
		if rep.Changed() {
			s.Changed++
		}
		if rep.Partial {
			s.Partial++
		}
		for _, c := range rep.Counts {
			before[c.Category] += c.Before
			after[c.Category] += c.After
		}
		for _, a := range rep.Actions {
			s.Actions[a.Kind.String()]++
		}
		s.Lines.Before += rep.Lines.Before
		s.Lines.After += rep.Lines.After
		s.Lines.Added += rep.Lines.Added
		s.Lines.Removed += rep.Lines.Removed
		s.Lines.Changed += rep.Lines.Changed
	}
	for _, c := range diag.Categories() {
		if before[c] == 0 && after[c] == 0 {
			continue
		}
		s.Counts = append(s.Counts, diff.CategoryCount{Category: c, Before: before[c], After: after[c]})
	}
	return s
}

// String renders the summary as plain text.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s: %d files, %d changed, %d failed", s.RunID, s.Files, s.Changed, s.Failed)
	if s.Cached > 0 {
		fmt.Fprintf(&b, ", %d cached", s.Cached)
	}
	if s.Written > 0 {
		fmt.Fprintf(&b, ", %d written", s.Written)
	}
	if s.Partial > 0 {
		fmt.Fprintf(&b, ", %d partial", s.Partial)
	}
	fmt.Fprintf(&b, " (%.1f ms)\n", s.DurationMS)
	var fixed int
	for _, c := range s.Counts {
		fixed += c.Fixed()
		fmt.Fprintf(&b, "  %-22s %4d -> %d\n", c.Category, c.Before, c.After)
	}
	fmt.Fprintf(&b, "fixed %d findings; lines +%d -%d ~%d\n", fixed, s.Lines.Added, s.Lines.Removed, s.Lines.Changed)
	return b.String()
}
