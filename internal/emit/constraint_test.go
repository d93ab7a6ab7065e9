package emit

import (
	"testing"

	"syncwrap/internal/diag"
	"syncwrap/internal/directive"
	"syncwrap/internal/fix"
	"syncwrap/internal/frontend"
	"syncwrap/internal/source"
)

func fileWith(constraintExpr string, replace bool) *frontend.File {
	f := &frontend.File{ID: 1}
	if constraintExpr != "" {
		f.Constraint = &frontend.Constraint{
			Expr: constraintExpr,
			Span: source.Span{File: 1, Start: 0, End: uint32(len("//go:build " + constraintExpr))}, //nolint:gosec // short literal
		}
	}
	kind := directive.KindClone
	if replace {
		kind = directive.KindReplace
	}
	f.Items = []frontend.Item{{Directive: directive.Directive{Kind: kind, Span: source.Span{File: 1, Start: 40, End: 58}}}}
	return f
}

func TestGeneratedConstraint(t *testing.T) {
	tests := []struct {
		src     string
		feature string
		want    string
	}{
		{"", "sync", "sync"},
		{"!sync", "sync", "sync"},
		{"linux && !sync", "sync", "linux && sync"},
		{"linux || darwin", "sync", "(linux || darwin) && sync"},
		{"linux", "", "linux"},
		{"", "", ""},
		{"!blocking", "blocking", "blocking"},
	}
	for _, tt := range tests {
		if got := GeneratedConstraint(fileWith(tt.src, false), tt.feature); got != tt.want {
			t.Errorf("GeneratedConstraint(%q, %q) = %q, want %q", tt.src, tt.feature, got, tt.want)
		}
	}
}

func TestCheckAdditiveNeedsNothing(t *testing.T) {
	if diags := Check(fileWith("", false), "sync"); len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags)
	}
}

func TestCheckRewrite(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		feature string
		code    diag.Code
		fixText string
	}{
		{name: "excluded", expr: "!sync", feature: "sync"},
		{name: "excluded in conjunction", expr: "linux && !sync", feature: "sync"},
		{name: "no feature", expr: "!sync", feature: "", code: diag.BldFeatureRequired},
		{name: "missing", feature: "sync", code: diag.BldConstraintMissing, fixText: "//go:build !sync\n\n"},
		{name: "not excluded", expr: "linux", feature: "sync", code: diag.BldConstraintMissing, fixText: "//go:build linux && !sync"},
		{name: "or", expr: "a || !sync", feature: "sync", code: diag.BldConstraintMissing, fixText: "//go:build (a || !sync) && !sync"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := Check(fileWith(tt.expr, true), tt.feature)
			if tt.code == 0 {
				if len(diags) != 0 {
					t.Fatalf("unexpected diagnostics: %+v", diags)
				}
				return
			}
			if len(diags) != 1 || diags[0].Code != tt.code || diags[0].Severity != diag.SevError {
				t.Fatalf("diagnostics = %+v", diags)
			}
			if diags[0].Primary.Start != 40 {
				t.Fatalf("diagnostic must point at the replace directive, got %v", diags[0].Primary)
			}
			if tt.fixText == "" {
				return
			}
			if len(diags[0].Fixes) != 1 || diags[0].Fixes[0].Edits[0].NewText != tt.fixText {
				t.Fatalf("fixes = %+v", diags[0].Fixes)
			}
		})
	}
}

func TestCheckFixAppliesToSource(t *testing.T) {
	src := []byte("//go:build linux\n\npackage p\n")
	f := fileWith("linux", true)
	diags := Check(f, "sync")
	out, err := fix.ApplyEdits(src, diags[0].Fixes[0].Edits)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "//go:build linux && !sync\n\npackage p\n" {
		t.Fatalf("fixed source = %q", out)
	}
}
