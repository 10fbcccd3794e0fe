package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"pytidy/internal/source"
	"pytidy/internal/token"
)

// TokenRow is one token of a tokenize listing. Positions are 1-based
// "line:col" pairs so the rows read the same in every format.
type TokenRow struct {
	Kind     string   `json:"kind" yaml:"kind"`
	Text     string   `json:"text,omitempty" yaml:"text,omitempty"`
	Start    string   `json:"start" yaml:"start"`
	End      string   `json:"end" yaml:"end"`
	Offset   uint32   `json:"offset" yaml:"offset"`
	String   []string `json:"string,omitempty" yaml:"string,omitempty"`
	Leading  []string `json:"leading,omitempty" yaml:"leading,omitempty"`
	Comments []string `json:"comments,omitempty" yaml:"comments,omitempty"`
}

// TokenRows converts tokens up to and including EOF.
func TokenRows(tokens []token.Token, file *source.File) []TokenRow {
	rows := make([]TokenRow, 0, len(tokens))
	for _, tok := range tokens {
		start, end := file.Resolve(tok.Span)
		row := TokenRow{
			Kind:   tok.Kind.String(),
			Text:   tok.Text,
			Start:  fmt.Sprintf("%d:%d", start.Line, start.Col),
			End:    fmt.Sprintf("%d:%d", end.Line, end.Col),
			Offset: tok.Span.Start,
			String: stringTraits(tok.Flags),
		}
		for _, tv := range tok.Leading {
			row.Leading = append(row.Leading, tv.Kind.String())
			if tv.Kind == token.TriviaComment {
				row.Comments = append(row.Comments, tv.Text)
			}
		}
		rows = append(rows, row)
		if tok.Kind == token.EOF {
			break
		}
	}
	return rows
}

func stringTraits(f token.Flags) []string {
	var out []string
	for _, t := range []struct {
		flag token.Flags
		name string
	}{
		{token.FlagRaw, "raw"},
		{token.FlagBytes, "bytes"},
		{token.FlagFString, "f-string"},
		{token.FlagTriple, "triple"},
	} {
		if f&t.flag != 0 {
			out = append(out, t.name)
		}
	}
	return out
}

// FormatTokensPretty пишет по строке на токен: позиция, вид, текст,
// затем признаки строки и ведущие комментарии.
func FormatTokensPretty(w io.Writer, tokens []token.Token, file *source.File) error {
	for i, row := range TokenRows(tokens, file) {
		line := fmt.Sprintf("%4d  %-9s %-14s", i+1, row.Start+"-"+row.End, row.Kind)
		if row.Text != "" {
			line += " " + fmt.Sprintf("%q", row.Text)
		}
		if len(row.String) > 0 {
			line += " [" + strings.Join(row.String, " ") + "]"
		}
		for _, c := range row.Comments {
			line += "  " + c
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// FormatTokensJSON пишет список токенов JSON-массивом.
func FormatTokensJSON(w io.Writer, tokens []token.Token, file *source.File) error {
	return encodeJSON(w, TokenRows(tokens, file))
}

// FormatTokensYAML пишет список токенов в YAML.
func FormatTokensYAML(w io.Writer, tokens []token.Token, file *source.File) error {
	return encodeYAML(w, TokenRows(tokens, file))
}
