package fix

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"syncwrap/internal/diag"
)

var (
	// ErrEditConflict is returned when two edits overlap.
	ErrEditConflict = errors.New("overlapping edits")
	// ErrEditRange is returned for a span outside the buffer.
	ErrEditRange = errors.New("edit span out of range")
	// ErrEditGuard is returned when OldText does not match the buffer.
	ErrEditGuard = errors.New("existing text does not match expected content")
)

// ApplyEdits applies edits to content in one pass. Spans are in the
// coordinates of content; insertions at the same offset keep their order
// and come before a replacement starting there.
func ApplyEdits(content []byte, edits []diag.TextEdit) ([]byte, error) {
	sorted := sortEdits(edits)
	for i := 1; i < len(sorted); i++ {
		if spansConflict(sorted[i-1], sorted[i]) || sorted[i-1].Span.End > sorted[i].Span.Start {
			return nil, fmt.Errorf("%w at %d..%d", ErrEditConflict, sorted[i].Span.Start, sorted[i].Span.End)
		}
	}
	var out bytes.Buffer
	out.Grow(len(content))
	last := 0
	for _, e := range sorted {
		start, end := int(e.Span.Start), int(e.Span.End)
		if start < last || end < start || end > len(content) {
			return nil, fmt.Errorf("%w: %d..%d of %d", ErrEditRange, start, end, len(content))
		}
		if e.OldText != "" && string(content[start:end]) != e.OldText {
			return nil, fmt.Errorf("%w at %d", ErrEditGuard, start)
		}
		out.Write(content[last:start])
		out.WriteString(e.NewText)
		last = end
	}
	out.Write(content[last:])
	return out.Bytes(), nil
}

func sortEdits(edits []diag.TextEdit) []diag.TextEdit {
	sorted := make([]diag.TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Span, sorted[j].Span
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Empty() && !b.Empty()
	})
	return sorted
}

// spansConflict reports whether two text edits' spans overlap.
// Spans are treated as half-open intervals [Start, End). Two zero-length edits
// (Start == End) never conflict. A zero-length edit conflicts with a non-zero
// span if its position is strictly inside that span.
func spansConflict(a, b diag.TextEdit) bool {
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

func conflictsWithExisting(existing, edits []diag.TextEdit) bool {
	for _, prev := range existing {
		for _, cand := range edits {
			if spansConflict(prev, cand) {
				return true
			}
		}
	}
	return false
}
