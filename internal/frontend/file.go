// Package frontend reads Go source files with go/parser and lifts the
// declarations carrying //syncwrap: directives into the decl model.
package frontend

import (
	"syncwrap/internal/decl"
	"syncwrap/internal/directive"
	"syncwrap/internal/source"
)

// Import is one import spec of a file.
type Import struct {
	Name string // explicit name, "" when absent
	Path string
	Span source.Span
}

// Constraint is the //go:build line of a file.
type Constraint struct {
	Expr string // expression text after "//go:build "
	Span source.Span
}

// Item is one transformation request found in a file, in source order.
// Exactly one of Func and Block is set.
type Item struct {
	Directive directive.Directive
	Func      *decl.AsyncFunc
	Block     *decl.ImplBlock
}

// File is the frontend view of one source file.
type File struct {
	ID      source.FileID
	Path    string
	Package string

	Constraint *Constraint
	// HeaderEnd is the offset of the package clause (or of its doc comment);
	// build constraints are inserted before it.
	HeaderEnd uint32
	// BodyStart is the offset right after the import block, or after the
	// package clause when the file has no imports.
	BodyStart uint32

	Imports []Import
	// AsyncName is the name the async package is referred to by, "." for a
	// dot import and "" when the file does not import it.
	AsyncName string

	Items []Item
	// Types lists every type declared in the file by name.
	Types map[string]*TypeInfo
	// Directives is every well-formed directive comment of the file; the
	// emitter strips them from rewritten output.
	Directives []source.Span
	// Generates lists the //go:generate lines of the file.
	Generates []source.Span
}

// HasReplace reports whether any item uses the replace policy.
func (f *File) HasReplace() bool {
	for _, it := range f.Items {
		if it.Directive.Kind == directive.KindReplace {
			return true
		}
	}
	return false
}

// TypeInfo describes a type declaration for mirror lookup.
type TypeInfo struct {
	Name     string
	Path     string
	IsStruct bool
	// FieldNames lists named fields in order; embedded fields contribute
	// their type name.
	FieldNames []string
	Span       source.Span
}
