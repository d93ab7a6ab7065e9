package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultIsNop(t *testing.T) {
	if Logger() == nil {
		t.Fatal("Logger() returned nil")
	}
}

func TestSetLoggerRoutesEntries(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Logger().Debug("stage", zap.String("decl", "Foo"))
	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["decl"]; got != "Foo" {
		t.Fatalf("decl field = %v", got)
	}
}

func TestSetupRejectsBadLevel(t *testing.T) {
	if _, err := Setup("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	t.Cleanup(func() { SetLogger(nil) })
	if _, err := Setup("off"); err != nil {
		t.Fatalf("Setup(off): %v", err)
	}
}
