package engine

import (
	"fmt"

	"syncwrap/internal/decl"
)

// RewriteSignature returns the synchronous signature of fn under policy.
// Receiver, type parameters and parameters are carried over unchanged; the
// asynchronous qualifier is dropped from the result. The body is left empty.
func RewriteSignature(fn *decl.AsyncFunc, policy NamePolicy) decl.SyncFunc {
	out := decl.SyncFunc{
		Name:       policy.Derive(fn.Name),
		Doc:        fn.Doc,
		TypeParams: fn.TypeParams,
		Params:     fn.Params,
		Results:    Results(*fn.Async),
	}
	if fn.Recv != nil {
		recv := *fn.Recv
		out.Recv = &recv
	}
	if policy.Mode == ModeClone {
		out.Doc = []string{fmt.Sprintf("// %s is the synchronous counterpart of [%s].", out.Name, fn.QualifiedName())}
	}
	return out
}

// Results renders the blocking result list for q.
func Results(q decl.Qualifier) string {
	switch q.Kind {
	case decl.KindFuture:
		return q.Elem
	case decl.KindTask:
		return "(" + q.Elem + ", error)"
	}
	return ""
}
