package emit

import (
	"fmt"
	"go/build/constraint"

	"syncwrap/internal/diag"
	"syncwrap/internal/directive"
	"syncwrap/internal/fix"
	"syncwrap/internal/frontend"
	"syncwrap/internal/source"
)

// Layout is the shape of a generated file.
type Layout uint8

const (
	// LayoutAdditive holds only the new declarations; the source file is
	// compiled alongside it.
	LayoutAdditive Layout = iota
	// LayoutRewrite is the whole source file with replaced declarations
	// substituted; the source file is excluded by the feature tag.
	LayoutRewrite
)

func (l Layout) String() string {
	if l == LayoutRewrite {
		return "rewrite"
	}
	return "additive"
}

// LayoutOf picks the layout for f: any replace directive forces a rewrite.
func LayoutOf(f *frontend.File) Layout {
	if f.HasReplace() {
		return LayoutRewrite
	}
	return LayoutAdditive
}

func parseExpr(c *frontend.Constraint) constraint.Expr {
	if c == nil {
		return nil
	}
	expr, err := constraint.Parse("//go:build " + c.Expr)
	if err != nil {
		return nil
	}
	return expr
}

// Check reports build constraint problems of f for the given feature tag.
// A rewrite needs the source file to be excluded when the tag is set,
// otherwise both the original and the replacement would be compiled.
func Check(f *frontend.File, feature string) []diag.Diagnostic {
	if LayoutOf(f) != LayoutRewrite {
		return nil
	}
	var at source.Span
	for _, it := range f.Items {
		if it.Directive.Kind == directive.KindReplace {
			at = it.Directive.Span
			break
		}
	}
	if feature == "" {
		return []diag.Diagnostic{diag.NewError(diag.BldFeatureRequired, at,
			"syncwrap:replace needs a feature tag to exclude this file from synchronous builds; set [generate].feature or use syncwrap:clone")}
	}
	want := &constraint.NotExpr{X: &constraint.TagExpr{Tag: feature}}
	if f.Constraint == nil {
		line := "//go:build " + want.String()
		d := diag.NewError(diag.BldConstraintMissing, at,
			fmt.Sprintf("file uses syncwrap:replace but has no build constraint; add %q", line))
		return []diag.Diagnostic{d.WithFix(fix.InsertText(
			"add "+line, source.Span{File: f.ID}, line+"\n\n", "", fix.WithID("add-constraint"), fix.Preferred()))}
	}
	expr := parseExpr(f.Constraint)
	if expr == nil || Excludes(expr, feature) {
		return nil
	}
	line := "//go:build " + (&constraint.AndExpr{X: expr, Y: want}).String()
	d := diag.NewError(diag.BldConstraintMissing, at,
		fmt.Sprintf("file uses syncwrap:replace but its build constraint does not exclude %q", feature)).
		WithNote(f.Constraint.Span, "constraint declared here")
	return []diag.Diagnostic{d.WithFix(fix.ReplaceSpan(
		"extend constraint to "+line, f.Constraint.Span, line, "//go:build "+f.Constraint.Expr,
		fix.WithID("extend-constraint"), fix.Preferred()))}
}

// Excludes reports whether expr has !feature as a conjunct.
func Excludes(expr constraint.Expr, feature string) bool {
	switch x := expr.(type) {
	case *constraint.NotExpr:
		tag, ok := x.X.(*constraint.TagExpr)
		return ok && tag.Tag == feature
	case *constraint.AndExpr:
		return Excludes(x.X, feature) || Excludes(x.Y, feature)
	}
	return false
}

// GeneratedConstraint derives the constraint expression of the generated
// file from the source one: a !feature conjunct is flipped, otherwise the
// feature is conjoined. It returns "" when no constraint is needed.
func GeneratedConstraint(f *frontend.File, feature string) string {
	expr := parseExpr(f.Constraint)
	switch {
	case feature == "" && expr == nil:
		return ""
	case feature == "":
		return expr.String()
	case expr == nil:
		return feature
	}
	if flipped, ok := flip(expr, feature); ok {
		return flipped.String()
	}
	return (&constraint.AndExpr{X: expr, Y: &constraint.TagExpr{Tag: feature}}).String()
}

func flip(expr constraint.Expr, feature string) (constraint.Expr, bool) {
	switch x := expr.(type) {
	case *constraint.NotExpr:
		if tag, ok := x.X.(*constraint.TagExpr); ok && tag.Tag == feature {
			return &constraint.TagExpr{Tag: feature}, true
		}
	case *constraint.AndExpr:
		if l, ok := flip(x.X, feature); ok {
			return &constraint.AndExpr{X: l, Y: x.Y}, true
		}
		if r, ok := flip(x.Y, feature); ok {
			return &constraint.AndExpr{X: x.X, Y: r}, true
		}
	}
	return expr, false
}
