// Package emit assembles the generated Go file of a source file from the
// engine's outcomes.
package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"

	"syncwrap/internal/diag"
	"syncwrap/internal/directive"
	"syncwrap/internal/engine"
	"syncwrap/internal/fix"
	"syncwrap/internal/frontend"
	"syncwrap/internal/source"
)

// Header marks generated files.
const Header = "// Code generated by syncwrap; DO NOT EDIT."

// Options configure Generate.
type Options struct {
	// Feature is the build tag of synchronous builds; "" means none.
	Feature      string
	BlockingPath string
	BlockingName string
}

// Result pairs an item with the engine outcome for it.
type Result struct {
	Item    frontend.Item
	Outcome engine.Outcome
}

// OutputPath derives the generated file path from the source path.
func OutputPath(srcPath, suffix string) string {
	return strings.TrimSuffix(srcPath, ".go") + suffix
}

// Generate renders the generated file for f. src is the content f was
// parsed from; every result must have been emitted by the engine.
func Generate(f *frontend.File, src []byte, results []Result, opts Options) ([]byte, error) {
	layout := LayoutOf(f)
	var (
		body string
		err  error
	)
	if layout == LayoutRewrite {
		body, err = rewriteBody(f, src, results)
		if err != nil {
			return nil, err
		}
	} else {
		body = additiveBody(results)
	}

	used, err := usedPackages(f.Package, body)
	if err != nil {
		return nil, fmt.Errorf("generated code for %s does not parse: %w", f.Path, err)
	}

	var b bytes.Buffer
	b.WriteString(Header)
	b.WriteString("\n\n")
	if c := GeneratedConstraint(f, opts.Feature); c != "" {
		b.WriteString("//go:build ")
		b.WriteString(c)
		b.WriteString("\n\n")
	}
	b.WriteString("package ")
	b.WriteString(f.Package)
	b.WriteString("\n\n")
	b.WriteString(importBlock(f, used, layout, opts.BlockingPath, opts.BlockingName))
	b.WriteString("\n")
	b.WriteString(strings.TrimLeft(body, "\n"))
	b.WriteString("\n")

	out, err := format.Source(b.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated code for %s: %w", f.Path, err)
	}
	return out, nil
}

func additiveBody(results []Result) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, renderOutcome(r.Outcome))
	}
	return strings.Join(parts, "\n\n")
}

// rewriteBody substitutes replaced declarations in place, inserts clones and
// mirror blocks after their originals and strips directive and go:generate
// lines. Everything up to the end of the import block is dropped.
func rewriteBody(f *frontend.File, src []byte, results []Result) (string, error) {
	edits := make([]diag.TextEdit, 0, len(results)+len(f.Directives))
	var replaced []source.Span
	for _, r := range results {
		text := renderOutcome(r.Outcome)
		switch {
		case r.Item.Func != nil && r.Item.Directive.Kind == directive.KindReplace:
			edits = append(edits, diag.TextEdit{Span: r.Item.Func.Span, NewText: text})
			replaced = append(replaced, r.Item.Func.Span)
		case r.Item.Func != nil:
			edits = append(edits, diag.TextEdit{Span: r.Item.Func.Span.ZeroAtEnd(), NewText: "\n\n" + text})
		default:
			edits = append(edits, diag.TextEdit{Span: r.Item.Block.TypeSpan.ZeroAtEnd(), NewText: "\n\n" + text})
		}
	}
	strip := make([]source.Span, 0, len(f.Directives)+len(f.Generates))
	strip = append(strip, f.Directives...)
	strip = append(strip, f.Generates...)
	for _, sp := range strip {
		if sp.Start < f.BodyStart || insideAny(sp, replaced) {
			continue
		}
		edits = append(edits, diag.TextEdit{Span: lineSpan(src, sp)})
	}
	out, err := fix.ApplyEdits(src, edits)
	if err != nil {
		return "", fmt.Errorf("rewrite %s: %w", f.Path, err)
	}
	return string(out[f.BodyStart:]), nil
}

func insideAny(sp source.Span, spans []source.Span) bool {
	for _, s := range spans {
		if s.Contains(sp) {
			return true
		}
	}
	return false
}

// lineSpan widens a comment span to its whole line when the comment is
// alone on it.
func lineSpan(src []byte, sp source.Span) source.Span {
	start, end := int(sp.Start), int(sp.End)
	ls := start
	for ls > 0 && (src[ls-1] == ' ' || src[ls-1] == '\t') {
		ls--
	}
	if ls > 0 && src[ls-1] != '\n' {
		return sp
	}
	le := end
	for le < len(src) && (src[le] == ' ' || src[le] == '\t') {
		le++
	}
	if le < len(src) && src[le] != '\n' {
		return sp
	}
	if le < len(src) {
		le++
	}
	// a "//" line left dangling at the end of a doc comment goes too
	if prev := lineBefore(src, ls); prev >= 0 && strings.TrimSpace(string(src[prev:ls])) == "//" && !bytes.HasPrefix(bytes.TrimLeft(src[le:], " \t"), []byte("//")) {
		ls = prev
	}
	sp.Start = uint32(ls) //nolint:gosec // offsets come from a FileSet span
	sp.End = uint32(le)   //nolint:gosec // offsets come from a FileSet span
	return sp
}

// lineBefore returns the start of the line preceding the line starting at
// ls, or -1.
func lineBefore(src []byte, ls int) int {
	if ls == 0 {
		return -1
	}
	i := bytes.LastIndexByte(src[:ls-1], '\n')
	return i + 1
}
