package diagfmt

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"pytidy/internal/diag"
	"pytidy/internal/diff"
	"pytidy/internal/driver"
	"pytidy/internal/version"
)

// FindingJSON представляет находку в JSON/YAML формате
type FindingJSON struct {
	ID       string     `json:"id" yaml:"id"`
	Category string     `json:"category" yaml:"category"`
	Severity string     `json:"severity" yaml:"severity"`
	Line     int        `json:"line" yaml:"line"`
	Column   int        `json:"column,omitempty" yaml:"column,omitempty"`
	EndLine  int        `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	Message  string     `json:"message" yaml:"message"`
	Symbol   string     `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Notes    []NoteJSON `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NoteJSON представляет дополнительную заметку
type NoteJSON struct {
	Line    int    `json:"line" yaml:"line"`
	Message string `json:"message" yaml:"message"`
}

// CountJSON is the before/after count of one category.
type CountJSON struct {
	Category string `json:"category" yaml:"category"`
	Before   int    `json:"before" yaml:"before"`
	After    int    `json:"after" yaml:"after"`
	Fixed    int    `json:"fixed" yaml:"fixed"`
}

// ActionJSON is one applied rewrite.
type ActionJSON struct {
	Kind        string            `json:"kind" yaml:"kind"`
	Pass        string            `json:"pass" yaml:"pass"`
	Line        int               `json:"line" yaml:"line"`
	Targets     []int             `json:"targets,omitempty" yaml:"targets,omitempty"`
	Params      map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Description string            `json:"description" yaml:"description"`
}

// IssueJSON is a refactor error, a check failure or a syntax error.
type IssueJSON struct {
	Kind    string `json:"kind" yaml:"kind"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Column  int    `json:"column,omitempty" yaml:"column,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// EntryJSON is one diff block.
type EntryJSON struct {
	Op       string `json:"op" yaml:"op"`
	OldStart int    `json:"old_start" yaml:"old_start"`
	OldEnd   int    `json:"old_end" yaml:"old_end"`
	NewStart int    `json:"new_start" yaml:"new_start"`
	NewEnd   int    `json:"new_end" yaml:"new_end"`
	OldText  string `json:"old_text,omitempty" yaml:"old_text,omitempty"`
	NewText  string `json:"new_text,omitempty" yaml:"new_text,omitempty"`
}

// FileJSON is the result of one file.
type FileJSON struct {
	Path           string         `json:"path" yaml:"path"`
	Error          *IssueJSON     `json:"error,omitempty" yaml:"error,omitempty"`
	Cached         bool           `json:"cached,omitempty" yaml:"cached,omitempty"`
	Written        string         `json:"written,omitempty" yaml:"written,omitempty"`
	Changed        bool           `json:"changed" yaml:"changed"`
	Partial        bool           `json:"partial" yaml:"partial"`
	Findings       []FindingJSON  `json:"findings" yaml:"findings"`
	Remaining      []FindingJSON  `json:"remaining,omitempty" yaml:"remaining,omitempty"`
	Truncated      int            `json:"truncated,omitempty" yaml:"truncated,omitempty"`
	Counts         []CountJSON    `json:"counts,omitempty" yaml:"counts,omitempty"`
	Actions        []ActionJSON   `json:"actions,omitempty" yaml:"actions,omitempty"`
	RefactorErrors []IssueJSON    `json:"refactor_errors,omitempty" yaml:"refactor_errors,omitempty"`
	Failures       []IssueJSON    `json:"failures,omitempty" yaml:"failures,omitempty"`
	Lines          diff.LineDelta `json:"lines" yaml:"lines"`
	Diff           []EntryJSON    `json:"diff,omitempty" yaml:"diff,omitempty"`
	Text           string         `json:"transformed_text,omitempty" yaml:"transformed_text,omitempty"`
	DurationMS     float64        `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
}

// Document представляет корневую структуру вывода
type Document struct {
	Tool    string          `json:"tool" yaml:"tool"`
	Version string          `json:"version" yaml:"version"`
	Files   []FileJSON      `json:"files" yaml:"files"`
	Summary *driver.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// BuildDocument формирует структуру вывода без сериализации.
func BuildDocument(results []driver.FileResult, summary *driver.Summary, opts JSONOpts) Document {
	doc := Document{
		Tool:    "pytidy",
		Version: version.Version,
		Files:   make([]FileJSON, 0, len(results)),
		Summary: summary,
	}
	for _, r := range results {
		doc.Files = append(doc.Files, buildFile(r, opts))
	}
	return doc
}

func buildFile(r driver.FileResult, opts JSONOpts) FileJSON {
	out := FileJSON{
		Path:     formatPath(r.Path, opts.PathMode, opts.BaseDir),
		Cached:   r.Cached,
		Written:  r.Written,
		Findings: []FindingJSON{},
	}
	if r.Err != nil {
		issue := &IssueJSON{Kind: "error", Message: r.Err.Error()}
		if pe := r.ParseError(); pe != nil {
			issue.Kind, issue.Line, issue.Column, issue.Message = "syntax-error", pe.Line, pe.Column, pe.Msg
		}
		out.Error = issue
		return out
	}
	o := r.Output
	if o == nil {
		return out
	}
	out.Findings, out.Truncated = findingsJSON(o.FindingsBefore, opts)
	if rep := o.Report; rep != nil {
		out.Changed = rep.Changed()
		out.Partial = rep.Partial
		out.Lines = rep.Lines
		if rep.Changed() || len(rep.Actions) > 0 {
			out.Remaining, _ = findingsJSON(o.FindingsAfter, opts)
		}
		for _, c := range rep.Counts {
			out.Counts = append(out.Counts, CountJSON{Category: c.Category.String(), Before: c.Before, After: c.After, Fixed: c.Fixed()})
		}
		for _, a := range rep.Actions {
			out.Actions = append(out.Actions, ActionJSON{
				Kind: a.Kind.String(), Pass: a.Pass, Line: a.Line,
				Targets: a.Targets, Params: a.Params, Description: a.Description,
			})
		}
		for _, e := range rep.Errors {
			out.RefactorErrors = append(out.RefactorErrors, IssueJSON{Kind: e.Kind.String(), Source: e.Pass, Line: e.Line, Message: e.Message})
		}
		for _, f := range rep.Failures {
			out.Failures = append(out.Failures, IssueJSON{Kind: f.Kind.String(), Source: f.Check.String(), Line: f.Line, Message: f.Reason})
		}
	}
	if opts.IncludeDiff {
		for _, e := range o.Diff {
			out.Diff = append(out.Diff, EntryJSON{
				Op: e.Op.String(), OldStart: e.OldStart, OldEnd: e.OldEnd, NewStart: e.NewStart, NewEnd: e.NewEnd,
				OldText: e.OldText, NewText: e.NewText,
			})
		}
	}
	if opts.IncludeText {
		out.Text = o.TransformedText
	}
	out.DurationMS = o.Timings.TotalMS
	return out
}

func findingsJSON(findings []diag.Finding, opts JSONOpts) ([]FindingJSON, int) {
	n := len(findings)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	out := make([]FindingJSON, 0, n)
	for _, f := range findings[:n] {
		fj := FindingJSON{
			ID:       f.Category.ID(),
			Category: f.Category.String(),
			Severity: f.Severity.String(),
			Line:     f.Line,
			Column:   f.Column,
			EndLine:  f.EndLine,
			Message:  f.Message,
			Symbol:   f.Symbol,
		}
		if opts.IncludeNotes {
			for _, note := range f.Notes {
				fj.Notes = append(fj.Notes, NoteJSON{Line: note.Line, Message: note.Msg})
			}
		}
		out = append(out, fj)
	}
	return out, len(findings) - n
}

// JSON форматирует документ в JSON.
func JSON(w io.Writer, doc Document) error {
	return encodeJSON(w, doc)
}

// YAML форматирует документ в YAML.
func YAML(w io.Writer, doc Document) error {
	return encodeYAML(w, doc)
}

func encodeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func encodeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}
