// Package decl is the structural model of the declarations syncwrap
// transforms. Values are built by the frontend from go/parser output and
// carry source text verbatim: types, type parameters and bodies are opaque
// strings that the engine moves around but never interprets.
package decl

import (
	"strings"

	"syncwrap/internal/source"
)

// AsyncKind is the shape of an asynchronous result.
type AsyncKind uint8

const (
	// KindFuture is async.Future[T]: the blocking form returns T.
	KindFuture AsyncKind = iota + 1
	// KindTask is async.Task[T]: the blocking form returns (T, error).
	KindTask
	// KindJob is async.Job: the blocking form returns nothing.
	KindJob
)

func (k AsyncKind) String() string {
	switch k {
	case KindFuture:
		return "Future"
	case KindTask:
		return "Task"
	case KindJob:
		return "Job"
	}
	return "none"
}

// Qualifier is the asynchronous marker found in a result list.
type Qualifier struct {
	Kind AsyncKind
	// Elem is the type argument text; empty for KindJob.
	Elem string
}

// Param is one parameter. Name is empty for unnamed parameters.
type Param struct {
	Name string
	Type string
}

// Receiver is the receiver of a method.
type Receiver struct {
	Name    string
	Pointer bool
	// Base is the receiver type name without pointer or type arguments.
	Base string
	// TypeArgs is the bracketed type parameter list of a generic receiver,
	// e.g. "[K, V]"; empty otherwise.
	TypeArgs string
}

// WithBase returns a copy of r bound to another base type.
func (r Receiver) WithBase(base string) Receiver {
	r.Base = base
	return r
}

// TypeText renders the receiver type, e.g. "*Client[K, V]".
func (r Receiver) TypeText() string {
	var b strings.Builder
	if r.Pointer {
		b.WriteByte('*')
	}
	b.WriteString(r.Base)
	b.WriteString(r.TypeArgs)
	return b.String()
}

// AsyncFunc is one function or method declaration as written in source.
// Async is nil when the result list carries no asynchronous qualifier.
type AsyncFunc struct {
	Name       string
	Doc        []string // comment lines without directives, "//" kept
	Recv       *Receiver
	TypeParams string // "[T any]" or ""
	Params     []Param
	Async      *Qualifier
	// ResultText is the result list as written, for diagnostics.
	ResultText string
	// Body is the text between the braces, exclusive; HasBody is false for
	// declarations without a body (assembly stubs, linkname).
	Body    string
	HasBody bool

	Span     source.Span // whole declaration including doc
	NameSpan source.Span
}

// IsMethod reports whether fn has a receiver.
func (fn *AsyncFunc) IsMethod() bool {
	return fn.Recv != nil
}

// QualifiedName is "Client.Get" for methods and "Get" for functions.
func (fn *AsyncFunc) QualifiedName() string {
	if fn.Recv == nil {
		return fn.Name
	}
	return fn.Recv.Base + "." + fn.Name
}

// Field is one struct field of a type that owns an implementation block.
type Field struct {
	Names []string // empty for embedded fields
	Type  string
	Tag   string // raw tag literal including backquotes
}

// ImplBlock is the ordered set of methods of one type, as declared in one file.
type ImplBlock struct {
	Type       string
	TypeParams string // type parameter list of the type declaration
	Mirror     string
	// Declare asks the engine to emit the mirror type itself.
	Declare bool
	// Fields is set for struct types; IsStruct distinguishes an empty struct
	// from a non-struct type.
	Fields   []Field
	IsStruct bool
	Methods  []AsyncFunc

	Span     source.Span // type declaration
	TypeSpan source.Span // the whole type declaration statement, for inserts
}

// SyncFunc is a generated synchronous declaration.
type SyncFunc struct {
	Name       string
	Doc        []string
	Recv       *Receiver
	TypeParams string
	Params     []Param
	// Results is the rendered result list: "", "T" or "(T, error)".
	Results string
	// Body is the text between the braces.
	Body string
}

// MirrorType is a generated mirror struct.
type MirrorType struct {
	Name       string
	Doc        []string
	TypeParams string
	Fields     []Field
}
