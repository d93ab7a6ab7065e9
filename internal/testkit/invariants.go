// Package testkit holds checks shared by tests of several packages.
package testkit

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"syncwrap/internal/frontend"
	"syncwrap/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) every span lies within the file content and points at sf
// 2) items are ordered by position and do not overlap
// 3) a function span covers its name and its directive
// 4) every recorded directive span starts with "//syncwrap:"
func CheckSpanInvariants(f *frontend.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	inside := func(what string, sp source.Span) error {
		if sp.File != sf.ID {
			return fmt.Errorf("%s span points to different file id: got=%d want=%d", what, sp.File, sf.ID)
		}
		if sp.Start > sp.End || sp.End > size {
			return fmt.Errorf("%s span %v out of bounds (len %d)", what, sp, size)
		}
		return nil
	}

	if f.BodyStart > size {
		return fmt.Errorf("body start beyond content: %d > %d", f.BodyStart, size)
	}

	var prevEnd uint32
	for i, it := range f.Items {
		var sp source.Span
		switch {
		case it.Func != nil:
			sp = it.Func.Span
			if !sp.Contains(it.Func.NameSpan) {
				return fmt.Errorf("item %d: name %v outside declaration %v", i, it.Func.NameSpan, sp)
			}
			if !sp.Contains(it.Directive.Span) {
				return fmt.Errorf("item %d: directive %v outside declaration %v", i, it.Directive.Span, sp)
			}
		case it.Block != nil:
			sp = it.Block.TypeSpan
			for j := range it.Block.Methods {
				m := &it.Block.Methods[j]
				if err := inside(fmt.Sprintf("item %d method %s", i, m.Name), m.Span); err != nil {
					return err
				}
				if !m.Span.Contains(m.NameSpan) {
					return fmt.Errorf("item %d method %s: name outside declaration", i, m.Name)
				}
			}
		default:
			return fmt.Errorf("item %d has neither a function nor a block", i)
		}
		if err := inside(fmt.Sprintf("item %d", i), sp); err != nil {
			return err
		}
		if sp.Empty() {
			return fmt.Errorf("item %d span is empty", i)
		}
		if sp.Start < prevEnd {
			return fmt.Errorf("item %d starts at %d before the previous item ends at %d", i, sp.Start, prevEnd)
		}
		prevEnd = sp.End
	}

	for _, sp := range f.Directives {
		if err := inside("directive", sp); err != nil {
			return err
		}
		if text := string(sf.Content[sp.Start:sp.End]); !strings.HasPrefix(text, "//syncwrap:") {
			return fmt.Errorf("directive span %v covers %q", sp, text)
		}
	}
	return nil
}
