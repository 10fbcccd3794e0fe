package diagfmt

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"pytidy/internal/diag"
	"pytidy/internal/parser"
	"pytidy/internal/source"
)

const tabWidth = 4

// palette holds the color functions of one rendering; with color off every
// function is the identity.
type palette struct {
	err, warn, info, note func(format string, a ...any) string
	code, path, gutter    func(format string, a ...any) string
	added, removed, dim   func(format string, a ...any) string
	bold                  func(format string, a ...any) string
}

func painter(enabled bool, attrs ...color.Attribute) func(format string, a ...any) string {
	c := color.New(attrs...)
	if enabled {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprintf
}

func newPalette(enabled bool) palette {
	return palette{
		err:     painter(enabled, color.FgRed, color.Bold),
		warn:    painter(enabled, color.FgYellow, color.Bold),
		info:    painter(enabled, color.FgCyan, color.Bold),
		note:    painter(enabled, color.FgBlue),
		code:    painter(enabled, color.FgMagenta),
		path:    painter(enabled, color.Bold),
		gutter:  painter(enabled, color.FgBlue),
		added:   painter(enabled, color.FgGreen),
		removed: painter(enabled, color.FgRed),
		dim:     painter(enabled, color.Faint),
		bold:    painter(enabled, color.Bold),
	}
}

func (p palette) severity(sev diag.Severity) string {
	label := strings.ToUpper(sev.String())
	switch sev {
	case diag.SevError:
		return p.err("%s", label)
	case diag.SevWarning:
		return p.warn("%s", label)
	default:
		return p.info("%s", label)
	}
}

// Pretty форматирует находки одного файла в человекочитаемый вид.
// Для каждой находки печатает:
// <path>:<line>:<col>: <SEV> <CODE> <category>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
// file may be nil; then only the header lines are printed.
func Pretty(w io.Writer, path string, file *source.File, findings []diag.Finding, opts PrettyOpts) {
	p := newPalette(opts.Color)
	sorted := append([]diag.Finding(nil), findings...)
	sort.SliceStable(sorted, func(i, j int) bool { return diag.Less(sorted[i], sorted[j]) })
	display := formatPath(path, opts.PathMode, opts.BaseDir)

	for _, f := range sorted {
		loc := fmt.Sprintf("%s:%d", display, f.Line)
		if f.Column > 0 {
			loc = fmt.Sprintf("%s:%d", loc, f.Column)
		}
		fmt.Fprintf(w, "%s: %s %s %s: %s\n",
			p.path("%s", loc), p.severity(f.Severity), p.code("%s", f.Category.ID()), f.Category, f.Message)
		if file != nil {
			writeContext(w, p, file, f, int(opts.Context))
		}
		if opts.ShowNotes {
			for _, n := range f.Notes {
				fmt.Fprintf(w, "  %s line %d: %s\n", p.note("note:"), n.Line, n.Msg)
			}
		}
	}
}

// PrettySyntaxError prints a parse failure in the same layout as findings.
func PrettySyntaxError(w io.Writer, path string, file *source.File, perr *parser.Error, opts PrettyOpts) {
	p := newPalette(opts.Color)
	loc := fmt.Sprintf("%s:%d:%d", formatPath(path, opts.PathMode, opts.BaseDir), perr.Line, perr.Column)
	fmt.Fprintf(w, "%s: %s %s\n", p.path("%s", loc), p.severity(diag.SevError), perr.Msg)
	if file == nil {
		return
	}
	f := diag.Finding{Line: perr.Line, Column: perr.Column, Span: source.Span{Start: perr.Offset, End: perr.Offset + 1}}
	writeContext(w, p, file, f, int(opts.Context))
}

func writeContext(w io.Writer, p palette, file *source.File, f diag.Finding, ctx int) {
	if f.Line <= 0 || f.Line > file.LineCount() {
		return
	}
	first := max(f.Line-ctx, 1)
	last := min(f.Line+ctx, file.LineCount())
	numWidth := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		text := file.GetLine(uint32(ln))
		fmt.Fprintf(w, " %s %s %s\n", p.gutter("%*d", numWidth, ln), p.gutter("|"), expandTabs(text))
		if ln != f.Line || f.Column <= 0 {
			continue
		}
		pad, width := underline(text, f)
		marker := "^" + strings.Repeat("~", width-1)
		fmt.Fprintf(w, " %s %s %s%s\n", strings.Repeat(" ", numWidth), p.gutter("|"), strings.Repeat(" ", pad), p.severityMarker(f.Severity, marker))
	}
}

func (p palette) severityMarker(sev diag.Severity, s string) string {
	switch sev {
	case diag.SevError:
		return p.err("%s", s)
	case diag.SevWarning:
		return p.warn("%s", s)
	default:
		return p.info("%s", s)
	}
}

// underline returns the display offset and width of the finding on its
// first line. The width is at least 1.
func underline(line string, f diag.Finding) (pad, width int) {
	start := min(f.Column-1, len(line))
	end := len(line)
	if f.Span.End > f.Span.Start {
		if n := int(f.Span.End - f.Span.Start); start+n < end {
			end = start + n
		}
	} else {
		end = start
	}
	pad = runewidth.StringWidth(expandTabs(line[:start]))
	width = runewidth.StringWidth(expandTabs(line[start:end]))
	return pad, max(width, 1)
}

func expandTabs(s string) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}
