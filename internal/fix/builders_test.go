package fix

import (
	"testing"

	"syncwrap/internal/diag"
	"syncwrap/internal/source"
)

// TestInsertTextDefaults проверяет метаданные по умолчанию
func TestInsertTextDefaults(t *testing.T) {
	span := source.Span{File: 1, Start: 0, End: 0}
	fix := InsertText("Add constraint", span, "//go:build !sync\n\n", "")

	if fix.Applicability != diag.FixApplicabilityAlwaysSafe {
		t.Errorf("expected always-safe, got %s", fix.Applicability)
	}
	if fix.Kind != diag.FixKindQuickFix {
		t.Errorf("expected quickfix, got %s", fix.Kind)
	}
	if len(fix.Edits) != 1 || fix.Edits[0].NewText != "//go:build !sync\n\n" {
		t.Fatalf("unexpected edits: %+v", fix.Edits)
	}
}

// TestDeleteSpan проверяет удаление с охранным текстом
func TestDeleteSpan(t *testing.T) {
	span := source.Span{File: 1, Start: 9, End: 10}
	fix := DeleteSpan("Remove semicolon", span, ";")

	edit := fix.Edits[0]
	if edit.NewText != "" {
		t.Errorf("expected empty NewText for deletion, got %q", edit.NewText)
	}
	if edit.OldText != ";" {
		t.Errorf("expected OldText ';', got %q", edit.OldText)
	}
}

// TestMultipleOptions проверяет комбинацию нескольких опций
func TestMultipleOptions(t *testing.T) {
	span := source.Span{File: 1, Start: 0, End: 16}
	fix := ReplaceSpan(
		"Extend constraint",
		span,
		"//go:build linux && !sync",
		"//go:build linux",
		WithID("extend"),
		WithKind(diag.FixKindRewrite),
		WithApplicability(diag.FixApplicabilityManualReview),
		Preferred(),
		nil,
	)

	if fix.ID != "extend" || fix.Kind != diag.FixKindRewrite || !fix.IsPreferred {
		t.Errorf("options not applied: %+v", fix)
	}
	if fix.Applicability != diag.FixApplicabilityManualReview {
		t.Errorf("expected manual-review, got %s", fix.Applicability)
	}
}
