package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"pytidy/internal/diff"
)

const (
	defaultWidth   = 120
	defaultContext = 3
	minColumn      = 20
)

// Diff prints entries side by side: original on the left, rewritten text
// on the right. Unchanged runs longer than twice the context are folded.
func Diff(w io.Writer, entries []diff.Entry, opts PrettyOpts) {
	p := newPalette(opts.Color)
	width := opts.Width
	if width <= 0 {
		width = defaultWidth
	}
	ctx := int(opts.Context)
	if ctx <= 0 {
		ctx = defaultContext
	}
	last := 0
	for _, e := range entries {
		last = max(last, e.OldEnd, e.NewEnd)
	}
	numWidth := max(len(fmt.Sprint(last)), 3)
	// "NNN text | NNN text"
	col := max((width-2*numWidth-5)/2, minColumn)

	row := func(oldNo int, oldText string, newNo int, newText string, paintOld, paintNew func(string, ...any) string) {
		left := fmt.Sprintf("%*s %s", numWidth, lineNo(oldNo), fit(oldText, col))
		right := fmt.Sprintf("%*s %s", numWidth, lineNo(newNo), fit(newText, col))
		line := fmt.Sprintf("%s %s %s", paintOld("%s", left), p.gutter("|"), paintNew("%s", right))
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
	plain := func(format string, a ...any) string { return fmt.Sprintf(format, a...) }

	for i, e := range entries {
		oldLines := trimmedLines(e.OldText)
		newLines := trimmedLines(e.NewText)
		switch e.Op {
		case diff.Equal:
			show := foldEqual(len(oldLines), ctx, i == 0, i == len(entries)-1)
			for j, visible := range show {
				if !visible {
					if j == 0 || show[j-1] {
						hidden := 0
						for k := j; k < len(show) && !show[k]; k++ {
							hidden++
						}
						fmt.Fprintln(w, p.dim("%*s ... %d unchanged lines", numWidth, "", hidden))
					}
					continue
				}
				row(e.OldStart+j+1, oldLines[j], e.NewStart+j+1, oldLines[j], p.dim, p.dim)
			}
		case diff.Delete:
			for j, text := range oldLines {
				row(e.OldStart+j+1, text, 0, "", p.removed, plain)
			}
		case diff.Insert:
			for j, text := range newLines {
				row(0, "", e.NewStart+j+1, text, plain, p.added)
			}
		case diff.Replace:
			for j := range max(len(oldLines), len(newLines)) {
				oldNo, newNo := 0, 0
				var oldText, newText string
				if j < len(oldLines) {
					oldNo, oldText = e.OldStart+j+1, oldLines[j]
				}
				if j < len(newLines) {
					newNo, newText = e.NewStart+j+1, newLines[j]
				}
				row(oldNo, oldText, newNo, newText, p.removed, p.added)
			}
		}
	}
}

// foldEqual decides which lines of an unchanged run stay visible. The run
// at the start only keeps its tail, the one at the end only its head.
func foldEqual(n, ctx int, first, last bool) []bool {
	show := make([]bool, n)
	for i := range show {
		switch {
		case first && last:
			show[i] = true
		case first:
			show[i] = i >= n-ctx
		case last:
			show[i] = i < ctx
		default:
			show[i] = n <= 2*ctx || i < ctx || i >= n-ctx
		}
	}
	return show
}

func lineNo(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprint(n)
}

// fit pads or truncates s to exactly width display columns.
func fit(s string, width int) string {
	s = expandTabs(s)
	if runewidth.StringWidth(s) > width {
		s = runewidth.Truncate(s, width, "…")
	}
	return runewidth.FillRight(s, width)
}

func trimmedLines(text string) []string {
	lines := diff.SplitLines(text)
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, "\r\n")
	}
	return lines
}

// PrettyReport prints the refactor report with fixed counts highlighted.
func PrettyReport(w io.Writer, rep *diff.Report, opts PrettyOpts) {
	if rep == nil {
		return
	}
	p := newPalette(opts.Color)
	before, after, fixed := rep.Totals()
	fmt.Fprintf(w, "%s %d before, %d after, %s\n", p.bold("findings:"), before, after, p.added("%d fixed", fixed))
	for _, c := range rep.Counts {
		line := fmt.Sprintf("  %s %d -> %d", runewidth.FillRight(c.Category.String(), 22), c.Before, c.After)
		if c.Fixed() > 0 {
			line += p.added(" (-%d)", c.Fixed())
		} else if c.After > c.Before {
			line += p.removed(" (+%d)", c.After-c.Before)
		}
		fmt.Fprintln(w, line)
	}
	l := rep.Lines
	fmt.Fprintf(w, "%s %d -> %d (%s %s ~%d)\n", p.bold("lines:"), l.Before, l.After, p.added("+%d", l.Added), p.removed("-%d", l.Removed), l.Changed)
	if len(rep.Actions) > 0 {
		fmt.Fprintf(w, "%s\n", p.bold("actions (%d):", len(rep.Actions)))
		for _, a := range rep.Actions {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
	if len(rep.Errors) > 0 {
		fmt.Fprintf(w, "%s\n", p.warn("refactor errors (%d):", len(rep.Errors)))
		for _, e := range rep.Errors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
	if len(rep.Failures) > 0 {
		fmt.Fprintf(w, "%s\n", p.warn("incomplete checks (%d):", len(rep.Failures)))
		for _, f := range rep.Failures {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
	if rep.Partial {
		fmt.Fprintln(w, p.warn("result is partial"))
	}
}
