package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"pytidy/internal/lexer"
	"pytidy/internal/source"
	"pytidy/internal/token"
)

func tokenize(t *testing.T, src string) ([]token.Token, *source.File) {
	t.Helper()
	file := source.NewFile("t.py", []byte(src))
	toks, err := lexer.Tokenize(file, lexer.Options{})
	if err != nil {
		t.Fatalf("tokenize: %v", err)
	}
	return toks, file
}

func TestTokenRows(t *testing.T) {
	toks, file := tokenize(t, "# lead\nx = rb'a'\n")
	rows := TokenRows(toks, file)
	if last := rows[len(rows)-1]; last.Kind != token.EOF.String() {
		t.Fatalf("last row = %+v, want EOF", last)
	}

	var str, commented *TokenRow
	for i := range rows {
		if rows[i].Kind == token.String.String() {
			str = &rows[i]
		}
		if len(rows[i].Comments) > 0 && commented == nil {
			commented = &rows[i]
		}
	}
	if str == nil || strings.Join(str.String, " ") != "raw bytes" || str.Start != "2:5" || str.End != "2:10" {
		t.Fatalf("string row = %+v", str)
	}
	if commented == nil || commented.Comments[0] != "# lead" {
		t.Fatalf("comment not attached: %+v", rows)
	}
}

func TestFormatTokens(t *testing.T) {
	toks, file := tokenize(t, "# lead\nx = rb'a'\n")
	rows := TokenRows(toks, file)

	var pretty bytes.Buffer
	if err := FormatTokensPretty(&pretty, toks, file); err != nil {
		t.Fatal(err)
	}
	out := pretty.String()
	if got := strings.Count(out, "\n"); got != len(rows) {
		t.Fatalf("pretty has %d lines, want %d:\n%s", got, len(rows), out)
	}
	for _, want := range []string{"[raw bytes]", "# lead", `"x"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("pretty output lacks %q:\n%s", want, out)
		}
	}

	var js bytes.Buffer
	if err := FormatTokensJSON(&js, toks, file); err != nil {
		t.Fatal(err)
	}
	var fromJSON []TokenRow
	if err := json.Unmarshal(js.Bytes(), &fromJSON); err != nil {
		t.Fatalf("json: %v", err)
	}

	var ym bytes.Buffer
	if err := FormatTokensYAML(&ym, toks, file); err != nil {
		t.Fatal(err)
	}
	var fromYAML []TokenRow
	if err := yaml.Unmarshal(ym.Bytes(), &fromYAML); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if len(fromJSON) != len(rows) || len(fromYAML) != len(rows) {
		t.Fatalf("rows: json %d, yaml %d, want %d", len(fromJSON), len(fromYAML), len(rows))
	}
}
