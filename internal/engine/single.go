package engine

import (
	"go.uber.org/zap"

	"syncwrap/internal/decl"
	"syncwrap/internal/diag"
	"syncwrap/internal/logging"
)

// Config controls an Engine.
type Config struct {
	// Enabled is the feature switch; a disabled engine passes every
	// declaration through untouched and emits nothing.
	Enabled bool
	Runtime Runtime
	// Reporter receives warnings that do not stop generation.
	Reporter diag.Reporter
}

// Engine runs transformations for one file. It keeps no state between
// calls.
type Engine struct {
	cfg Config
	log *zap.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg, log: logging.Logger().Named("engine")}
}

// tracker records stage transitions of one transformation.
type tracker struct {
	log   *zap.Logger
	trace []Stage
}

func (e *Engine) track(name string, mode Mode) *tracker {
	t := &tracker{log: e.log.With(zap.String("decl", name), zap.Stringer("mode", mode))}
	t.enter(StageReceived)
	return t
}

func (t *tracker) enter(s Stage) {
	t.trace = append(t.trace, s)
	t.log.Debug("stage", zap.Stringer("stage", s))
}

func (t *tracker) reject(out Outcome, err error) Outcome {
	t.enter(StageRejected)
	t.log.Debug("rejected", zap.Error(err))
	out.Funcs = nil
	out.Mirror = nil
	out.Err = err
	out.Trace = t.trace
	return out
}

// Single transforms one function or method under policy.
func (e *Engine) Single(fn *decl.AsyncFunc, policy NamePolicy) Outcome {
	t := e.track(fn.QualifiedName(), policy.Mode)
	out := Outcome{Mode: policy.Mode, Keep: policy.Mode != ModeReplace}
	if !e.cfg.Enabled {
		out.Keep = true
		out.Trace = t.trace
		return out
	}
	if err := decl.Validate(fn, policy.Mode.Request()); err != nil {
		return t.reject(out, err)
	}
	t.enter(StageValidated)

	sf := RewriteSignature(fn, policy)
	t.enter(StageSignatureRewritten)

	sf.Body = WrapBody(fn, e.cfg.Runtime)
	t.enter(StageBodyWrapped)

	out.Funcs = []decl.SyncFunc{sf}
	t.enter(StageEmitted)
	out.Trace = t.trace
	return out
}
