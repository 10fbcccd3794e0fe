package diag

import (
	"testing"

	"pytidy/internal/source"
)

func TestFormatGolden(t *testing.T) {
	file := source.NewFile("sample.py", []byte("import os\nx = 42\n"))

	findings := []Finding{
		NewWarning(file, MagicNumber, source.Span{Start: 14, End: 16}, "magic number 42\nuse a constant"),
		NewWarning(file, UnusedImport, source.Span{Start: 7, End: 9}, "'os' imported but unused").
			WithNote(file, source.Span{Start: 14, End: 15}, "first use would be here"),
	}

	expected := "warning PT001 unused-import 1:8 'os' imported but unused\n" +
		"note PT001 unused-import 2:0 first use would be here\n" +
		"warning PT005 magic-number 2:5 magic number 42 use a constant"

	if got := FormatGolden(findings, true); got != expected {
		t.Fatalf("unexpected golden findings:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := NewBag(0)
	r := NewDedupReporter(BagReporter{Bag: b})
	r.Report(AtLine(Naming, SevInfo, 3, "b"))
	r.Report(AtLine(LongFunction, SevWarning, 3, "a"))
	r.Report(AtLine(Naming, SevInfo, 3, "b"))
	r.Report(Finding{Category: UnusedImport, Severity: SevWarning, Line: 1, Column: 5})
	b.Sort()

	items := b.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 findings after dedup, got %d", len(items))
	}
	if items[0].Category != UnusedImport || items[1].Category != LongFunction || items[2].Category != Naming {
		t.Fatalf("unexpected order: %v", items)
	}
	if got := CountByCategory(items)[Naming]; got != 1 {
		t.Fatalf("expected one naming finding, got %d", got)
	}
}

func TestBagLimit(t *testing.T) {
	b := NewBag(1)
	if !b.Add(AtLine(Naming, SevInfo, 1, "x")) {
		t.Fatal("first add must succeed")
	}
	if b.Add(AtLine(Naming, SevInfo, 2, "y")) {
		t.Fatal("second add must hit the limit")
	}
	if b.Dropped() != 1 {
		t.Fatalf("dropped = %d, want 1", b.Dropped())
	}
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories() {
		got, ok := ParseCategory(c.String())
		if !ok || got != c {
			t.Fatalf("ParseCategory(%q) = %v, %v", c.String(), got, ok)
		}
		got, ok = ParseCategory(c.ID())
		if !ok || got != c {
			t.Fatalf("ParseCategory(%q) = %v, %v", c.ID(), got, ok)
		}
	}
	if _, ok := ParseCategory("no-such-check"); ok {
		t.Fatal("unknown name must not parse")
	}
}
