package frontend

import (
	"go/ast"

	"syncwrap/internal/decl"
)

func (p *fileParser) asyncFunc(fd *ast.FuncDecl) decl.AsyncFunc {
	fn := decl.AsyncFunc{
		Name:       fd.Name.Name,
		Doc:        p.docLines(fd.Doc),
		TypeParams: p.typeParams(fd.Type.TypeParams),
		Span:       p.span(declStart(fd.Doc, fd.Pos()), fd.End()),
		NameSpan:   p.nodeSpan(fd.Name),
	}
	if fd.Recv != nil && len(fd.Recv.List) > 0 {
		fn.Recv = p.receiver(fd.Recv)
	}
	for _, field := range fd.Type.Params.List {
		typ := p.nodeText(field.Type)
		if len(field.Names) == 0 {
			fn.Params = append(fn.Params, decl.Param{Type: typ})
			continue
		}
		for _, n := range field.Names {
			fn.Params = append(fn.Params, decl.Param{Name: n.Name, Type: typ})
		}
	}
	if res := fd.Type.Results; res != nil && len(res.List) > 0 {
		fn.ResultText = p.nodeText(res)
		if len(res.List) == 1 && len(res.List[0].Names) == 0 {
			fn.Async = p.qualifier(res.List[0].Type)
		}
	}
	if fd.Body != nil {
		fn.HasBody = true
		fn.Body = p.text(fd.Body.Lbrace+1, fd.Body.Rbrace)
	}
	return fn
}

// namedAsyncResult reports "func F() (f async.Future[T])".
func (p *fileParser) namedAsyncResult(fd *ast.FuncDecl) bool {
	res := fd.Type.Results
	if res == nil || len(res.List) != 1 || len(res.List[0].Names) != 1 {
		return false
	}
	return p.qualifier(res.List[0].Type) != nil
}

func (p *fileParser) receiver(fl *ast.FieldList) *decl.Receiver {
	field := fl.List[0]
	r := &decl.Receiver{}
	if len(field.Names) > 0 {
		r.Name = field.Names[0].Name
	}
	t := field.Type
	if paren, ok := t.(*ast.ParenExpr); ok {
		t = paren.X
	}
	if star, ok := t.(*ast.StarExpr); ok {
		r.Pointer = true
		t = star.X
	}
	switch x := t.(type) {
	case *ast.Ident:
		r.Base = x.Name
	case *ast.IndexExpr:
		r.Base = identName(x.X)
		r.TypeArgs = p.text(x.Lbrack, x.Rbrack+1)
	case *ast.IndexListExpr:
		r.Base = identName(x.X)
		r.TypeArgs = p.text(x.Lbrack, x.Rbrack+1)
	}
	return r
}

func identName(e ast.Expr) string {
	if id, ok := e.(*ast.Ident); ok {
		return id.Name
	}
	return ""
}

// qualifier recognises async.Future[T], async.Task[T] and async.Job.
func (p *fileParser) qualifier(expr ast.Expr) *decl.Qualifier {
	if p.out.AsyncName == "" {
		return nil
	}
	switch x := expr.(type) {
	case *ast.IndexExpr:
		switch p.asyncIdent(x.X) {
		case "Future":
			return &decl.Qualifier{Kind: decl.KindFuture, Elem: p.nodeText(x.Index)}
		case "Task":
			return &decl.Qualifier{Kind: decl.KindTask, Elem: p.nodeText(x.Index)}
		}
	case *ast.SelectorExpr, *ast.Ident:
		if p.asyncIdent(x) == "Job" {
			return &decl.Qualifier{Kind: decl.KindJob}
		}
	}
	return nil
}

func (p *fileParser) asyncIdent(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.SelectorExpr:
		if id, ok := x.X.(*ast.Ident); ok && id.Name == p.out.AsyncName {
			return x.Sel.Name
		}
	case *ast.Ident:
		if p.out.AsyncName == "." {
			return x.Name
		}
	}
	return ""
}
