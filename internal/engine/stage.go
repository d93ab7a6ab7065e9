package engine

import (
	"syncwrap/internal/decl"
)

// Stage is a step of a transformation.
type Stage uint8

const (
	StageReceived Stage = iota
	StageValidated
	StageSignatureRewritten
	StageBodyWrapped
	StageEmitted
	StageRejected
)

func (s Stage) String() string {
	switch s {
	case StageReceived:
		return "received"
	case StageValidated:
		return "validated"
	case StageSignatureRewritten:
		return "signature-rewritten"
	case StageBodyWrapped:
		return "body-wrapped"
	case StageEmitted:
		return "emitted"
	case StageRejected:
		return "rejected"
	}
	return "unknown"
}

// Outcome is the result of one transformation.
type Outcome struct {
	Mode Mode
	// Keep reports whether the original declaration stays in the source.
	Keep bool
	// Funcs holds the generated declarations in source order.
	Funcs []decl.SyncFunc
	// Mirror is set when the engine declares the mirror type itself.
	Mirror *decl.MirrorType
	// Trace lists the stages passed through, ending in Emitted or Rejected
	// (or Received for a disabled engine).
	Trace []Stage
	Err   error
}

// Final returns the last stage reached.
func (o *Outcome) Final() Stage {
	if len(o.Trace) == 0 {
		return StageReceived
	}
	return o.Trace[len(o.Trace)-1]
}

// Emitted reports whether the transformation produced output.
func (o *Outcome) Emitted() bool {
	return o.Final() == StageEmitted
}
