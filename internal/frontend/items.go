package frontend

import (
	"fmt"
	"go/ast"
	"go/token"

	"syncwrap/internal/decl"
	"syncwrap/internal/diag"
	"syncwrap/internal/directive"
)

type pendingBlock struct {
	block *decl.ImplBlock
	dir   directive.Directive
}

type pendingFunc struct {
	fd   *ast.FuncDecl
	dirs []directive.Directive
}

func (p *fileParser) collectItems() {
	blocks := make(map[string]*pendingBlock)
	var blockOrder []string
	var funcs []pendingFunc

	for _, d := range p.ast.Decls {
		switch x := d.(type) {
		case *ast.GenDecl:
			if x.Tok != token.TYPE {
				for _, dir := range p.directivesOf(x.Doc) {
					p.misplaced(dir, fmt.Sprintf("cannot be attached to a %s declaration", x.Tok))
				}
				continue
			}
			for _, spec := range x.Specs {
				ts := spec.(*ast.TypeSpec) //nolint:errcheck // TYPE decls hold TypeSpecs
				groups := []*ast.CommentGroup{ts.Doc}
				if !x.Lparen.IsValid() {
					groups = append(groups, x.Doc)
				}
				pb := p.typeDirectives(x, ts, p.directivesOf(groups...))
				if pb != nil {
					blocks[ts.Name.Name] = pb
					blockOrder = append(blockOrder, ts.Name.Name)
				}
			}
		case *ast.FuncDecl:
			funcs = append(funcs, pendingFunc{fd: x, dirs: p.directivesOf(x.Doc)})
		}
	}

	for _, pf := range funcs {
		p.funcDirectives(pf, blocks)
	}
	for _, name := range blockOrder {
		pb := blocks[name]
		p.out.Items = append(p.out.Items, Item{Directive: pb.dir, Block: pb.block})
	}
}

func (p *fileParser) typeDirectives(gd *ast.GenDecl, ts *ast.TypeSpec, dirs []directive.Directive) *pendingBlock {
	var pb *pendingBlock
	for _, d := range dirs {
		if d.Kind != directive.KindMirror {
			p.misplaced(d, "belongs on a function or method, not on type "+ts.Name.Name)
			continue
		}
		if pb != nil {
			diag.ReportError(p.opts.Reporter, diag.DirConflict, d.Span,
				"type "+ts.Name.Name+" carries more than one syncwrap:mirror directive").
				WithNote(pb.dir.Span, "first directive here").Emit()
			continue
		}
		mirror, ok := d.Arg("type")
		if !ok {
			mirror = ts.Name.Name + p.opts.MirrorSuffix
		}
		block := &decl.ImplBlock{
			Type:       ts.Name.Name,
			TypeParams: p.typeParams(ts.TypeParams),
			Mirror:     mirror,
			Declare:    d.Flags["declare"],
			Span:       p.nodeSpan(ts.Name),
			TypeSpan:   p.span(declStart(gd.Doc, gd.Pos()), gd.End()),
		}
		block.Fields, block.IsStruct = p.fields(ts)
		pb = &pendingBlock{block: block, dir: d}
	}
	return pb
}

func (p *fileParser) funcDirectives(pf pendingFunc, blocks map[string]*pendingBlock) {
	fd := pf.fd
	base := ""
	if fd.Recv != nil && len(fd.Recv.List) > 0 {
		base = p.receiver(fd.Recv).Base
	}
	var (
		request *directive.Directive
		skipped bool
	)
	for i := range pf.dirs {
		d := pf.dirs[i]
		switch d.Kind {
		case directive.KindMirror:
			p.misplaced(d, "belongs on a type declaration, not on "+fd.Name.Name)
		case directive.KindSkip:
			if base == "" {
				p.misplaced(d, "only methods of a mirrored type can be skipped")
				continue
			}
			if _, ok := blocks[base]; !ok {
				diag.ReportWarning(p.opts.Reporter, diag.DirMisplaced, d.Span,
					fmt.Sprintf("syncwrap:skip has no effect: type %s is not mirrored", base)).Emit()
			}
			skipped = true
		default:
			if request != nil {
				diag.ReportError(p.opts.Reporter, diag.DirConflict, d.Span,
					fmt.Sprintf("%s conflicts with %s on %s", d.Kind.Request(), request.Kind.Request(), fd.Name.Name)).
					WithNote(request.Span, "first directive here").Emit()
				continue
			}
			request = &d
		}
	}

	pb, mirrored := blocks[base]
	if mirrored && !skipped {
		if request != nil {
			diag.ReportError(p.opts.Reporter, diag.DirConflict, request.Span,
				fmt.Sprintf("method %s.%s is part of the mirrored block of %s; mark it //syncwrap:skip to transform it on its own",
					base, fd.Name.Name, base)).
				WithNote(pb.dir.Span, "type mirrored here").Emit()
			return
		}
		pb.block.Methods = append(pb.block.Methods, p.asyncFunc(fd))
		return
	}
	if request == nil {
		return
	}
	fn := p.asyncFunc(fd)
	if p.namedAsyncResult(fd) {
		diag.ReportError(p.opts.Reporter, diag.StrNamedAsyncResult, fn.NameSpan,
			fmt.Sprintf("%s on %s: asynchronous result must be unnamed", request.Kind.Request(), fn.QualifiedName())).Emit()
		return
	}
	p.out.Items = append(p.out.Items, Item{Directive: *request, Func: &fn})
}

func declStart(doc *ast.CommentGroup, pos token.Pos) token.Pos {
	if doc != nil {
		return doc.Pos()
	}
	return pos
}
