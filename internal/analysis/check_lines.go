package analysis

import (
	"fmt"

	"github.com/mattn/go-runewidth"

	"pytidy/internal/diag"
	"pytidy/internal/source"
)

const tabStop = 8

// lineLength measures the original text, not the tree: comments, string
// contents and continuation lines all count.
type lineLength struct{ base }

func (lineLength) Finish(ctx *Context) {
	max := ctx.Config.MaxLineLength
	if max <= 0 {
		return
	}
	for line := 1; line <= ctx.File.LineCount(); line++ {
		ctx.Spend(1)
		text := ctx.File.GetLine(uint32(line))
		w := DisplayWidth(text)
		if w <= max {
			continue
		}
		f := diag.AtLine(diag.UnknownCategory, diag.SevInfo, line, fmt.Sprintf("line is %d columns long (max %d)", w, max))
		f.Column = max + 1
		start := ctx.File.LineStart(uint32(line))
		f.Span = source.Span{Start: start, End: start + uint32(len(text))}
		ctx.Report(f)
	}
}

// DisplayWidth returns the terminal width of one line, tabs expanded to the
// next multiple of eight.
func DisplayWidth(line string) int {
	w := 0
	for _, r := range line {
		if r == '\t' {
			w += tabStop - w%tabStop
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}
