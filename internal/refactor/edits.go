package refactor

import (
	"fmt"
	"sort"

	"pytidy/internal/source"
)

// TextEdit replaces the bytes of Span with NewText. OldText, when set,
// must match the current content for the edit to apply.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Change is one planned action together with the edits that realize it.
// Its edits apply all together or not at all. Also lists further actions
// realized by the same edits.
type Change struct {
	Action Action
	Also   []Action
	Edits  []TextEdit
}

// skippedChange records a change the edit engine refused.
type skippedChange struct {
	Action Action
	Reason string
}

// applyChanges applies the changes in order to content. A change whose
// edits overlap an already applied change, fall outside the buffer or do
// not match their expected old text is skipped as a whole.
func applyChanges(content []byte, changes []Change) ([]byte, []Action, []skippedChange) {
	working := append([]byte(nil), content...)
	var (
		appliedEdits []TextEdit
		applied      []Action
		skipped      []skippedChange
	)

	for _, ch := range changes {
		if len(ch.Edits) == 0 {
			skipped = append(skipped, skippedChange{Action: ch.Action, Reason: "change has no edits"})
			continue
		}
		edits := make([]TextEdit, len(ch.Edits))
		copy(edits, ch.Edits)

		if selfConflict(edits) {
			skipped = append(skipped, skippedChange{Action: ch.Action, Reason: "change has overlapping edits"})
			continue
		}
		if conflictsWithExisting(appliedEdits, edits) {
			skipped = append(skipped, skippedChange{Action: ch.Action, Reason: "conflicts with previously applied edits"})
			continue
		}

		// с конца, чтобы смещения ещё не применённых правок не менялись
		sort.SliceStable(edits, func(i, j int) bool {
			if edits[i].Span.Start == edits[j].Span.Start {
				return edits[i].Span.End > edits[j].Span.End
			}
			return edits[i].Span.Start > edits[j].Span.Start
		})

		staged := append([]byte(nil), working...)
		stagedApplied := append([]TextEdit(nil), appliedEdits...)
		var reason string
		for _, edit := range edits {
			start := int(edit.Span.Start) + cumulativeDelta(appliedEdits, int(edit.Span.Start))
			end := int(edit.Span.End) + cumulativeDelta(appliedEdits, int(edit.Span.End))
			if start < 0 || end < start || end > len(staged) {
				reason = "edit span out of range"
				break
			}
			if edit.OldText != "" && string(staged[start:end]) != edit.OldText {
				reason = fmt.Sprintf("existing text %q does not match expected %q", staged[start:end], edit.OldText)
				break
			}
			suffix := append([]byte(nil), staged[end:]...)
			staged = append(append(staged[:start], edit.NewText...), suffix...)
			stagedApplied = insertEditSorted(stagedApplied, edit)
		}
		if reason != "" {
			skipped = append(skipped, skippedChange{Action: ch.Action, Reason: reason})
			continue
		}
		working = staged
		appliedEdits = stagedApplied
		applied = append(applied, ch.Action)
		applied = append(applied, ch.Also...)
	}
	return working, applied, skipped
}

func selfConflict(edits []TextEdit) bool {
	for i := range edits {
		for j := i + 1; j < len(edits); j++ {
			if spansConflict(edits[i], edits[j]) || samePoint(edits[i], edits[j]) {
				return true
			}
		}
	}
	return false
}

// samePoint: две вставки в одну позицию дают неоднозначный порядок
func samePoint(a, b TextEdit) bool {
	return a.Span.Empty() && b.Span.Empty() && a.Span.Start == b.Span.Start
}

func conflictsWithExisting(existing []TextEdit, edits []TextEdit) bool {
	for _, prev := range existing {
		for _, cand := range edits {
			if spansConflict(prev, cand) || samePoint(prev, cand) {
				return true
			}
		}
	}
	return false
}

// spansConflict reports whether two edits' spans overlap. Spans are
// half-open; an insertion conflicts with a span strictly containing its
// position, and touching spans do not conflict.
func spansConflict(a, b TextEdit) bool {
	aStart, aEnd := a.Span.Start, a.Span.End
	bStart, bEnd := b.Span.Start, b.Span.End

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart < aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart < bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

// cumulativeDelta returns how far original offset pos has moved after the
// already applied edits.
func cumulativeDelta(edits []TextEdit, pos int) int {
	delta := 0
	for _, e := range edits {
		eStart := int(e.Span.Start)
		if eStart > pos {
			break
		}
		eEnd := int(e.Span.End)
		if eEnd <= pos {
			delta += len(e.NewText) - (eEnd - eStart)
		}
	}
	return delta
}

func insertEditSorted(edits []TextEdit, edit TextEdit) []TextEdit {
	idx := sort.Search(len(edits), func(i int) bool {
		if edits[i].Span.Start == edit.Span.Start {
			return edits[i].Span.End >= edit.Span.End
		}
		return edits[i].Span.Start > edit.Span.Start
	})
	edits = append(edits, TextEdit{})
	copy(edits[idx+1:], edits[idx:])
	edits[idx] = edit
	return edits
}
