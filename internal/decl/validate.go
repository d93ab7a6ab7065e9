package decl

import "fmt"

// Validate checks that fn can be transformed under request.
func Validate(fn *AsyncFunc, request string) error {
	if fn.Async == nil {
		detail := "is not asynchronous"
		if fn.ResultText == "" {
			detail += ": it has no result; expected async.Future[T], async.Task[T] or async.Job"
		} else {
			detail += fmt.Sprintf(": result %s is not async.Future[T], async.Task[T] or async.Job", fn.ResultText)
		}
		return &StructuralError{
			Request: request,
			Decl:    fn.QualifiedName(),
			Reason:  ReasonNotAsync,
			Detail:  detail,
			Span:    fn.NameSpan,
		}
	}
	if !fn.HasBody {
		return &StructuralError{
			Request: request,
			Decl:    fn.QualifiedName(),
			Reason:  ReasonNoBody,
			Detail:  "has no body to run on the blocking driver",
			Span:    fn.NameSpan,
		}
	}
	return nil
}

// ValidateBlock validates every member of block in order and returns the
// first failure; nothing about the block is usable once one member fails.
func ValidateBlock(block *ImplBlock, request string) error {
	if len(block.Methods) == 0 {
		return &StructuralError{
			Request: request,
			Decl:    block.Type,
			Reason:  ReasonEmptyBlock,
			Detail:  "has no methods in this file",
			Span:    block.Span,
		}
	}
	for i := range block.Methods {
		err := Validate(&block.Methods[i], request)
		if err == nil {
			continue
		}
		se := err.(*StructuralError) //nolint:errcheck // Validate only returns *StructuralError
		se.Block = block.Type
		if se.Reason == ReasonNotAsync {
			se.Reason = ReasonMixedBlock
			se.Detail += "; every method of a mirrored type must be asynchronous (mark exceptions with //syncwrap:skip)"
		}
		return se
	}
	return nil
}
