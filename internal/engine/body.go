package engine

import (
	"strings"

	"syncwrap/internal/decl"
)

// Runtime names the runtime packages as seen from the generated file.
type Runtime struct {
	// AsyncName is the file's name for the async package, "." when dot imported.
	AsyncName string
	// BlockingName is the name the blocking package is imported under.
	BlockingName string
	// Constructor is the driver constructor called for every invocation,
	// relative to the blocking package.
	Constructor string
}

// DefaultConstructor builds a fresh blocking driver per call.
const DefaultConstructor = "New()"

func (rt Runtime) qualify(pkg, name string) string {
	if pkg == "." || pkg == "" {
		return name
	}
	return pkg + "." + name
}

func (rt Runtime) constructor() string {
	if rt.Constructor == "" {
		return rt.qualify(rt.BlockingName, DefaultConstructor)
	}
	return rt.qualify(rt.BlockingName, rt.Constructor)
}

// AsyncType renders the asynchronous result type of q, e.g. "async.Future[int]".
func (rt Runtime) AsyncType(q decl.Qualifier) string {
	switch q.Kind {
	case decl.KindFuture:
		return rt.qualify(rt.AsyncName, "Future") + "[" + q.Elem + "]"
	case decl.KindTask:
		return rt.qualify(rt.AsyncName, "Task") + "[" + q.Elem + "]"
	}
	return rt.qualify(rt.AsyncName, "Job")
}

// WrapBody returns the single statement that runs the original body on a
// fresh blocking driver and waits for its result:
//
//	return blocking.Await(blocking.New(), func() async.Future[T] { <body> }())
//
// Task bodies use AwaitTask and yield (T, error); Job bodies use Run.
func WrapBody(fn *decl.AsyncFunc, rt Runtime) string {
	var b strings.Builder
	b.WriteString("func() ")
	b.WriteString(rt.AsyncType(*fn.Async))
	b.WriteString(" {")
	b.WriteString(fn.Body)
	b.WriteString("}()")
	closure := b.String()

	driver := rt.constructor()
	switch fn.Async.Kind {
	case decl.KindFuture:
		return "return " + rt.qualify(rt.BlockingName, "Await") + "(" + driver + ", " + closure + ")"
	case decl.KindTask:
		return "return " + rt.qualify(rt.BlockingName, "AwaitTask") + "(" + driver + ", " + closure + ")"
	}
	return rt.qualify(rt.BlockingName, "Run") + "(" + driver + ", " + closure + ")"
}
