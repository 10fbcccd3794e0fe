package diag

import (
	"fmt"
	"sort"
	"strings"
)

// FormatGolden renders findings into a stable, single-line-per-entry
// representation suitable for golden comparisons and short CLI output:
//
//	warning PT001 unused-import 3:1 'os' imported but unused
//
// Entries are sorted with Less and notes follow their finding when includeNotes is set.
func FormatGolden(findings []Finding, includeNotes bool) string {
	if len(findings) == 0 {
		return ""
	}
	sorted := append([]Finding(nil), findings...)
	sort.SliceStable(sorted, func(i, j int) bool { return Less(sorted[i], sorted[j]) })

	var b strings.Builder
	for i, f := range sorted {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s %s %d:%d %s", f.Severity, f.Category.ID(), f.Category, f.Line, f.Column, sanitizeMessage(f.Message))
		if !includeNotes {
			continue
		}
		for _, n := range f.Notes {
			fmt.Fprintf(&b, "\nnote %s %s %d:0 %s", f.Category.ID(), f.Category, n.Line, sanitizeMessage(n.Msg))
		}
	}
	return b.String()
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
