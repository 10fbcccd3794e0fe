package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aymanbagabas/go-udiff"

	"pytidy/internal/diag"
	"pytidy/internal/diff"
	"pytidy/internal/parser"
	"pytidy/internal/refactor"
	"pytidy/internal/source"
)

// TestPrettyFinding проверяет заголовок, строку контекста и подчёркивание
func TestPrettyFinding(t *testing.T) {
	file := source.NewFile("test.py", []byte("import os\nx = 1\n"))
	f := diag.New(file, diag.UnusedImport, diag.SevWarning, source.Span{Start: 7, End: 9}, "'os' imported but unused")

	var buf bytes.Buffer
	Pretty(&buf, "test.py", file, []diag.Finding{f}, PrettyOpts{})

	want := "test.py:1:8: WARNING PT001 unused-import: 'os' imported but unused\n" +
		" 1 | import os\n" +
		"   |        ^~\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestPrettyContextAndNotes(t *testing.T) {
	file := source.NewFile("m.py", []byte("a = 1\nb = 2\nc = 3\n"))
	f := diag.AtLine(diag.Duplication, diag.SevInfo, 2, "duplicated block")
	f.Notes = []diag.Note{{Line: 3, Msg: "other copy"}}

	var buf bytes.Buffer
	Pretty(&buf, "m.py", file, []diag.Finding{f}, PrettyOpts{Context: 1, ShowNotes: true})
	out := buf.String()

	for _, want := range []string{"m.py:2: INFO PT007 duplication: duplicated block", " 1 | a = 1", " 2 | b = 2", " 3 | c = 3", "note: line 3: other copy"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "^") {
		t.Errorf("line-level finding must not be underlined:\n%s", out)
	}
}

func TestPrettySyntaxError(t *testing.T) {
	file := source.NewFile("bad.py", []byte("def f(:\n"))
	var buf bytes.Buffer
	PrettySyntaxError(&buf, "bad.py", file, &parser.Error{Line: 1, Column: 7, Offset: 6, Msg: "expected parameter"}, PrettyOpts{})
	out := buf.String()
	if !strings.HasPrefix(out, "bad.py:1:7: ERROR expected parameter\n") {
		t.Errorf("unexpected header:\n%s", out)
	}
	if !strings.Contains(out, "|       ^") {
		t.Errorf("expected caret under column 7:\n%s", out)
	}
}

func TestUnderlineExpandsTabs(t *testing.T) {
	pad, width := underline("\tfoo()", diag.Finding{Column: 2, Span: source.Span{Start: 1, End: 4}})
	if pad != tabWidth || width != 3 {
		t.Errorf("underline = (%d, %d), want (%d, 3)", pad, width, tabWidth)
	}
	_, width = underline("x", diag.Finding{Column: 1})
	if width != 1 {
		t.Errorf("empty span must still get one caret, got %d", width)
	}
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	tests := []struct {
		name string
		mode PathMode
		want string
	}{
		{name: "Relative path", mode: PathModeRelative, want: "src/test.py"},
		{name: "Basename only", mode: PathModeBasename, want: "test.py"},
		{name: "Auto inside base", mode: PathModeAuto, want: "src/test.py"},
		{name: "Absolute path", mode: PathModeAbsolute, want: "/home/user/project/src/test.py"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatPath("/home/user/project/src/test.py", tt.mode, "/home/user/project")
			if got != tt.want {
				t.Errorf("formatPath = %q, want %q", got, tt.want)
			}
		})
	}
	if got := formatPath("", PathModeAuto, ""); got != "<stdin>" {
		t.Errorf("empty path = %q", got)
	}
}

func TestDiffSideBySide(t *testing.T) {
	entries := diff.Lines("a\nb\n", "a\nc\n")
	var buf bytes.Buffer
	Diff(&buf, entries, PrettyOpts{Width: 40})

	want := []string{
		"  1 " + fit("a", 20) + " |   1 a",
		"  2 " + fit("b", 20) + " |",
		strings.Repeat(" ", 24) + " |   2 c",
	}
	got := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), buf.String())
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d:\n got %q\nwant %q", i+1, got[i], want[i])
		}
	}
}

func TestDiffFoldsUnchangedRuns(t *testing.T) {
	var before, after strings.Builder
	for i := range 10 {
		line := "x = " + strings.Repeat("1", i+1) + "\n"
		before.WriteString(line)
		after.WriteString(line)
	}
	before.WriteString("tail = 0\n")
	after.WriteString("tail = 1\n")
	after.WriteString("end = 2\n")

	var buf bytes.Buffer
	Diff(&buf, diff.Lines(before.String(), after.String()), PrettyOpts{Context: 2})
	out := buf.String()
	if !strings.Contains(out, "... 8 unchanged lines") {
		t.Errorf("expected leading run to be folded:\n%s", out)
	}
	if strings.Contains(out, "x = 1 ") {
		t.Errorf("first line should be hidden:\n%s", out)
	}
}

func TestFoldEqual(t *testing.T) {
	show := foldEqual(10, 2, false, false)
	visible := 0
	for _, v := range show {
		if v {
			visible++
		}
	}
	if visible != 4 || !show[0] || !show[1] || show[2] || !show[9] {
		t.Errorf("unexpected fold: %v", show)
	}
	if all := foldEqual(3, 2, false, false); !all[1] {
		t.Errorf("short runs stay visible: %v", all)
	}
}

func TestPrettyReport(t *testing.T) {
	rep := &diff.Report{
		Counts: []diff.CategoryCount{{Category: diag.UnusedImport, Before: 2, After: 0}},
		Actions: []refactor.Action{{
			Kind: refactor.RemoveUnusedImport, Pass: "imports", Line: 1, Description: "removed 'os'",
		}},
		Lines: diff.LineDelta{Before: 5, After: 3, Removed: 2},
	}
	var buf bytes.Buffer
	PrettyReport(&buf, rep, PrettyOpts{})
	out := buf.String()
	for _, want := range []string{
		"findings: 2 before, 0 after, 2 fixed",
		"unused-import",
		"2 -> 0 (-2)",
		"lines: 5 -> 3 (+0 -2 ~0)",
		"actions (1):",
		"removed 'os'",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in report:\n%s", want, out)
		}
	}
	if strings.Contains(out, "partial") {
		t.Errorf("complete report must not say partial:\n%s", out)
	}
}

func TestPatch(t *testing.T) {
	original := "import os\nimport sys\n\nprint(sys.argv)\n"
	transformed := "import sys\n\nprint(sys.argv)\n"

	var buf bytes.Buffer
	if err := Patch(&buf, "/src/pkg/a.py", original, transformed, 0); err != nil {
		t.Fatalf("Patch() error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"--- a/src/pkg/a.py", "+++ b/src/pkg/a.py", "-import os"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in patch:\n%s", want, out)
		}
	}
	applied, err := udiff.Apply(original, udiff.Strings(original, transformed))
	if err != nil || applied != transformed {
		t.Errorf("edits do not reproduce the rewrite: %q, %v", applied, err)
	}

	buf.Reset()
	if err := Patch(&buf, "a.py", original, original, 0); err != nil || buf.Len() != 0 {
		t.Errorf("equal texts must produce no patch, got %q (%v)", buf.String(), err)
	}
}
