package frontend

import (
	"go/ast"
	"go/token"

	"syncwrap/internal/decl"
)

func (p *fileParser) collectTypes() {
	for _, d := range p.ast.Decls {
		gd, ok := d.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts := spec.(*ast.TypeSpec) //nolint:errcheck // TYPE decls hold TypeSpecs
			info := typeInfo(ts)
			info.Path = p.out.Path
			info.Span = p.nodeSpan(ts.Name)
			p.out.Types[info.Name] = info
		}
	}
}

// typeInfo extracts what mirror lookup needs from a type spec.
func typeInfo(ts *ast.TypeSpec) *TypeInfo {
	info := &TypeInfo{Name: ts.Name.Name}
	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		return info
	}
	info.IsStruct = true
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			info.FieldNames = append(info.FieldNames, embeddedName(field.Type))
			continue
		}
		for _, n := range field.Names {
			info.FieldNames = append(info.FieldNames, n.Name)
		}
	}
	return info
}

func embeddedName(t ast.Expr) string {
	for {
		switch x := t.(type) {
		case *ast.StarExpr:
			t = x.X
		case *ast.SelectorExpr:
			return x.Sel.Name
		case *ast.IndexExpr:
			t = x.X
		case *ast.IndexListExpr:
			t = x.X
		case *ast.Ident:
			return x.Name
		default:
			return ""
		}
	}
}

func (p *fileParser) fields(ts *ast.TypeSpec) ([]decl.Field, bool) {
	st, ok := ts.Type.(*ast.StructType)
	if !ok {
		return nil, false
	}
	out := make([]decl.Field, 0, len(st.Fields.List))
	for _, field := range st.Fields.List {
		f := decl.Field{Type: p.nodeText(field.Type)}
		for _, n := range field.Names {
			f.Names = append(f.Names, n.Name)
		}
		if field.Tag != nil {
			f.Tag = field.Tag.Value
		}
		out = append(out, f)
	}
	return out, true
}

func (p *fileParser) typeParams(fl *ast.FieldList) string {
	if fl == nil || !fl.Opening.IsValid() {
		return ""
	}
	return p.text(fl.Opening, fl.Closing+1)
}
