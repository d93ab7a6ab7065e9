// Package engine turns validated asynchronous declarations into their
// synchronous counterparts. It works on decl values only; reading and
// writing Go files is left to frontend and emit.
package engine

import "syncwrap/internal/directive"

// Mode is the naming policy of a transformation.
type Mode uint8

const (
	// ModeReplace keeps the original name; the original is not kept.
	ModeReplace Mode = iota + 1
	// ModeClone appends a suffix; the original stays.
	ModeClone
	// ModeMirror keeps method names and moves them to the mirror type.
	ModeMirror
)

func (m Mode) String() string {
	switch m {
	case ModeReplace:
		return "replace"
	case ModeClone:
		return "clone"
	case ModeMirror:
		return "mirror"
	}
	return "unknown"
}

// Request is the diagnostic name of the transformation.
func (m Mode) Request() string {
	return "syncwrap:" + m.String()
}

// NamePolicy derives the name of the generated declaration.
type NamePolicy struct {
	Mode   Mode
	Suffix string
}

// Replace is the identity policy.
func Replace() NamePolicy { return NamePolicy{Mode: ModeReplace} }

// Clone appends suffix to the original name.
func Clone(suffix string) NamePolicy { return NamePolicy{Mode: ModeClone, Suffix: suffix} }

// Derive returns the generated name. Collisions with existing names are
// not checked; the compiler reports them.
func (p NamePolicy) Derive(name string) string {
	if p.Mode == ModeClone {
		return name + p.Suffix
	}
	return name
}

// PolicyFor maps a single-function directive to its policy. defaultSuffix
// applies when a clone directive names none.
func PolicyFor(d directive.Directive, defaultSuffix string) NamePolicy {
	switch d.Kind {
	case directive.KindReplace:
		return Replace()
	case directive.KindClone:
		if s, ok := d.Arg("suffix"); ok {
			return Clone(s)
		}
		return Clone(defaultSuffix)
	}
	return NamePolicy{Mode: ModeMirror}
}
