package frontend

import (
	"errors"
	"fmt"
	"go/ast"
	"go/build/constraint"
	"go/parser"
	"go/scanner"
	"go/token"
	"path"
	"sort"
	"strconv"
	"strings"

	"syncwrap/internal/diag"
	"syncwrap/internal/directive"
	"syncwrap/internal/source"
)

// Options configure ParseFile.
type Options struct {
	// AsyncPath is the import path of the async runtime package.
	AsyncPath string
	// MirrorSuffix names the mirror of T when //syncwrap:mirror has no type=.
	MirrorSuffix string
	Reporter     diag.Reporter
}

const maxSyntaxErrors = 10

// ParseFile parses the file id and collects its transformation requests.
// Problems are reported to opts.Reporter; a file with syntax errors yields nil.
func ParseFile(fs *source.FileSet, id source.FileID, opts Options) *File {
	f := fs.Get(id)
	if f == nil {
		return nil
	}
	tfs := token.NewFileSet()
	astFile, err := parser.ParseFile(tfs, f.Path, f.Content, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		reportSyntax(fs, id, err, opts.Reporter)
		return nil
	}
	p := &fileParser{
		fs:   fs,
		id:   id,
		src:  f,
		tf:   tfs.File(astFile.Pos()),
		ast:  astFile,
		opts: opts,
		dirs: make(map[*ast.Comment]directive.Directive),
		used: make(map[*ast.Comment]bool),
		out: &File{
			ID:      id,
			Path:    f.Path,
			Package: astFile.Name.Name,
			Types:   make(map[string]*TypeInfo),
		},
	}
	p.parse()
	return p.out
}

func reportSyntax(fs *source.FileSet, id source.FileID, err error, r diag.Reporter) {
	var list scanner.ErrorList
	if !errors.As(err, &list) {
		diag.ReportError(r, diag.IOParseError, source.Span{File: id}, err.Error()).Emit()
		return
	}
	for i, e := range list {
		if i == maxSyntaxErrors {
			break
		}
		sp := fs.Span(id, e.Pos.Offset, e.Pos.Offset)
		diag.ReportError(r, diag.IOParseError, sp, e.Msg).Emit()
	}
}

type fileParser struct {
	fs   *source.FileSet
	id   source.FileID
	src  *source.File
	tf   *token.File
	ast  *ast.File
	opts Options
	out  *File

	dirs map[*ast.Comment]directive.Directive
	used map[*ast.Comment]bool
}

func (p *fileParser) off(pos token.Pos) int {
	return p.tf.Offset(pos)
}

func (p *fileParser) span(from, to token.Pos) source.Span {
	return p.fs.Span(p.id, p.off(from), p.off(to))
}

func (p *fileParser) nodeSpan(n ast.Node) source.Span {
	return p.span(n.Pos(), n.End())
}

func (p *fileParser) text(from, to token.Pos) string {
	return string(p.src.Content[p.off(from):p.off(to)])
}

func (p *fileParser) nodeText(n ast.Node) string {
	return p.text(n.Pos(), n.End())
}

func (p *fileParser) parse() {
	p.readConstraint()
	p.readImports()
	p.readDirectives()
	p.collectTypes()
	p.collectItems()
	p.reportUnattached()
	sort.SliceStable(p.out.Items, func(i, j int) bool {
		return itemStart(p.out.Items[i]) < itemStart(p.out.Items[j])
	})
}

func itemStart(it Item) uint32 {
	if it.Func != nil {
		return it.Func.Span.Start
	}
	return it.Block.TypeSpan.Start
}

func (p *fileParser) readConstraint() {
	for _, group := range p.ast.Comments {
		if group.Pos() >= p.ast.Package {
			break
		}
		for _, c := range group.List {
			if !constraint.IsGoBuild(c.Text) {
				continue
			}
			sp := p.nodeSpan(c)
			if _, err := constraint.Parse(c.Text); err != nil {
				diag.ReportError(p.opts.Reporter, diag.BldBadConstraint, sp,
					fmt.Sprintf("malformed build constraint: %v", err)).Emit()
				continue
			}
			p.out.Constraint = &Constraint{
				Expr: strings.TrimSpace(strings.TrimPrefix(c.Text, "//go:build")),
				Span: sp,
			}
			return
		}
	}
}

func (p *fileParser) readImports() {
	end := p.ast.Name.End()
	for _, d := range p.ast.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.IMPORT {
			break
		}
		end = gd.End()
	}
	p.out.BodyStart = uint32(p.off(end)) //nolint:gosec // offsets fit, checked by FileSet.Load

	for _, spec := range p.ast.Imports {
		importPath, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		imp := Import{Path: importPath, Span: p.nodeSpan(spec)}
		if spec.Name != nil {
			imp.Name = spec.Name.Name
		}
		p.out.Imports = append(p.out.Imports, imp)
		if importPath != p.opts.AsyncPath {
			continue
		}
		switch imp.Name {
		case "":
			p.out.AsyncName = path.Base(importPath)
		case "_":
		default:
			p.out.AsyncName = imp.Name
		}
	}
}

func (p *fileParser) readDirectives() {
	for _, group := range p.ast.Comments {
		for _, c := range group.List {
			switch {
			case strings.HasPrefix(c.Text, "//go:generate"):
				p.out.Generates = append(p.out.Generates, p.nodeSpan(c))
			case directive.IsDirective(c.Text):
				sp := p.nodeSpan(c)
				p.out.Directives = append(p.out.Directives, sp)
				d, err := directive.Parse(c.Text, sp)
				if err != nil {
					p.used[c] = true
					var de *directive.Error
					if errors.As(err, &de) {
						diag.Emit(p.opts.Reporter, de.Diagnostic())
					}
					continue
				}
				p.dirs[c] = d
			}
		}
	}
}

// directivesOf returns the parsed directives of doc groups, marking them used.
func (p *fileParser) directivesOf(groups ...*ast.CommentGroup) []directive.Directive {
	var out []directive.Directive
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if d, ok := p.dirs[c]; ok && !p.used[c] {
				p.used[c] = true
				out = append(out, d)
			}
		}
	}
	return out
}

func (p *fileParser) misplaced(d directive.Directive, msg string) {
	diag.ReportError(p.opts.Reporter, diag.DirMisplaced, d.Span, d.Kind.Request()+": "+msg).Emit()
}

func (p *fileParser) reportUnattached() {
	for _, group := range p.ast.Comments {
		for _, c := range group.List {
			d, ok := p.dirs[c]
			if !ok || p.used[c] {
				continue
			}
			p.misplaced(d, "not attached to a declaration; put it in the doc comment right above one")
		}
	}
}

func (p *fileParser) docLines(doc *ast.CommentGroup) []string {
	if doc == nil {
		return nil
	}
	lines := make([]string, 0, len(doc.List))
	for _, c := range doc.List {
		if directive.IsDirective(c.Text) {
			continue
		}
		lines = append(lines, c.Text)
	}
	// "//" separating the text from the directive
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "//" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
