package engine

import (
	"fmt"
	"slices"

	"syncwrap/internal/decl"
	"syncwrap/internal/diag"
	"syncwrap/internal/frontend"
)

// TypeLookup finds type declarations of the package being generated.
// *frontend.Index implements it.
type TypeLookup interface {
	Lookup(name string) *frontend.TypeInfo
}

func lookup(types TypeLookup, name string) *frontend.TypeInfo {
	if types == nil {
		return nil
	}
	return types.Lookup(name)
}

// Block transforms every method of block onto its mirror type. mirrors maps
// each mirrored type of the file to its mirror, for declared field types.
// Any member failing validation rejects the whole block.
func (e *Engine) Block(block *decl.ImplBlock, types TypeLookup, mirrors map[string]string) Outcome {
	t := e.track(block.Type, ModeMirror)
	out := Outcome{Mode: ModeMirror, Keep: true}
	if !e.cfg.Enabled {
		out.Trace = t.trace
		return out
	}
	if err := decl.ValidateBlock(block, ModeMirror.Request()); err != nil {
		return t.reject(out, err)
	}
	if err := e.checkMirror(block, types); err != nil {
		return t.reject(out, err)
	}
	t.enter(StageValidated)

	funcs := make([]decl.SyncFunc, 0, len(block.Methods))
	for i := range block.Methods {
		sf := RewriteSignature(&block.Methods[i], NamePolicy{Mode: ModeMirror})
		recv := sf.Recv.WithBase(block.Mirror)
		sf.Recv = &recv
		funcs = append(funcs, sf)
	}
	t.enter(StageSignatureRewritten)

	for i := range funcs {
		funcs[i].Body = WrapBody(&block.Methods[i], e.cfg.Runtime)
	}
	t.enter(StageBodyWrapped)

	if block.Declare {
		m := DeclareMirror(block, mirrors)
		out.Mirror = &m
	}
	out.Funcs = funcs
	t.enter(StageEmitted)
	out.Trace = t.trace
	return out
}

func (e *Engine) checkMirror(block *decl.ImplBlock, types TypeLookup) error {
	request := ModeMirror.Request()
	existing := lookup(types, block.Mirror)
	if block.Declare {
		if !block.IsStruct {
			return &decl.StructuralError{
				Request: request,
				Decl:    block.Type,
				Reason:  decl.ReasonMirrorNotStruct,
				Detail:  "is not a struct type; declare the mirror by hand and drop the declare flag",
				Span:    block.Span,
			}
		}
		if existing != nil {
			return &decl.StructuralError{
				Request: request,
				Decl:    block.Type,
				Reason:  decl.ReasonMirrorDuplicate,
				Detail:  fmt.Sprintf("mirror type %s is already declared in %s; drop the declare flag", block.Mirror, existing.Path),
				Span:    block.Span,
			}
		}
		return nil
	}
	if existing == nil {
		return &decl.StructuralError{
			Request: request,
			Decl:    block.Type,
			Reason:  decl.ReasonMirrorNotFound,
			Detail:  fmt.Sprintf("mirror type %s not found in package; declare it or use //syncwrap:mirror declare", block.Mirror),
			Span:    block.Span,
		}
	}
	if orig := lookup(types, block.Type); orig != nil && !slices.Equal(orig.FieldNames, existing.FieldNames) {
		diag.ReportWarning(e.cfg.Reporter, diag.MirFieldMismatch, block.Span,
			fmt.Sprintf("fields of mirror type %s differ from %s (%v vs %v); the generated methods may not compile",
				block.Mirror, block.Type, existing.FieldNames, orig.FieldNames)).
			WithNote(existing.Span, "mirror declared here").Emit()
	}
	return nil
}
