package engine

import (
	"fmt"
	"go/scanner"
	"go/token"
	"strings"

	"syncwrap/internal/decl"
)

// DeclareMirror builds the mirror struct of block: same type parameters,
// same fields in order, with field types that name a mirrored type of the
// file pointing at its mirror instead.
func DeclareMirror(block *decl.ImplBlock, mirrors map[string]string) decl.MirrorType {
	m := decl.MirrorType{
		Name:       block.Mirror,
		Doc:        []string{fmt.Sprintf("// %s is the synchronous mirror of [%s].", block.Mirror, block.Type)},
		TypeParams: block.TypeParams,
		Fields:     make([]decl.Field, 0, len(block.Fields)),
	}
	for _, f := range block.Fields {
		f.Type = RewriteTypeRefs(f.Type, mirrors)
		m.Fields = append(m.Fields, f)
	}
	return m
}

// RewriteTypeRefs replaces identifiers in a type expression that are keys
// of mirrors. Qualified identifiers (pkg.Name) are left alone.
func RewriteTypeRefs(typ string, mirrors map[string]string) string {
	if len(mirrors) == 0 {
		return typ
	}
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(typ))
	var s scanner.Scanner
	s.Init(file, []byte(typ), nil, 0)

	var b strings.Builder
	last := 0
	prev := token.ILLEGAL
	for {
		pos, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.IDENT && prev != token.PERIOD {
			if mirror, ok := mirrors[lit]; ok {
				off := file.Offset(pos)
				b.WriteString(typ[last:off])
				b.WriteString(mirror)
				last = off + len(lit)
			}
		}
		prev = tok
	}
	b.WriteString(typ[last:])
	return b.String()
}
