package emit

import (
	"strings"

	"syncwrap/internal/decl"
	"syncwrap/internal/engine"
)

// RenderFunc renders a generated declaration as Go source (unformatted).
func RenderFunc(fn decl.SyncFunc) string {
	var b strings.Builder
	writeDoc(&b, fn.Doc)
	b.WriteString("func ")
	if fn.Recv != nil {
		b.WriteByte('(')
		if fn.Recv.Name != "" {
			b.WriteString(fn.Recv.Name)
			b.WriteByte(' ')
		}
		b.WriteString(fn.Recv.TypeText())
		b.WriteString(") ")
	}
	b.WriteString(fn.Name)
	b.WriteString(fn.TypeParams)
	b.WriteByte('(')
	b.WriteString(renderParams(fn.Params))
	b.WriteByte(')')
	if fn.Results != "" {
		b.WriteByte(' ')
		b.WriteString(fn.Results)
	}
	b.WriteString(" {\n")
	b.WriteString(fn.Body)
	b.WriteString("\n}")
	return b.String()
}

func renderParams(params []decl.Param) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.Name == "" {
			parts = append(parts, p.Type)
			continue
		}
		parts = append(parts, p.Name+" "+p.Type)
	}
	return strings.Join(parts, ", ")
}

// RenderMirror renders a mirror struct declaration.
func RenderMirror(m decl.MirrorType) string {
	var b strings.Builder
	writeDoc(&b, m.Doc)
	b.WriteString("type ")
	b.WriteString(m.Name)
	b.WriteString(m.TypeParams)
	if len(m.Fields) == 0 {
		b.WriteString(" struct{}")
		return b.String()
	}
	b.WriteString(" struct {\n")
	for _, f := range m.Fields {
		b.WriteByte('\t')
		if len(f.Names) > 0 {
			b.WriteString(strings.Join(f.Names, ", "))
			b.WriteByte(' ')
		}
		b.WriteString(f.Type)
		if f.Tag != "" {
			b.WriteByte(' ')
			b.WriteString(f.Tag)
		}
		b.WriteByte('\n')
	}
	b.WriteByte('}')
	return b.String()
}

func writeDoc(b *strings.Builder, doc []string) {
	for _, line := range doc {
		b.WriteString(line)
		b.WriteByte('\n')
	}
}

// renderOutcome renders everything one transformation produced, mirror
// type first.
func renderOutcome(out engine.Outcome) string {
	parts := make([]string, 0, len(out.Funcs)+1)
	if out.Mirror != nil {
		parts = append(parts, RenderMirror(*out.Mirror))
	}
	for _, fn := range out.Funcs {
		parts = append(parts, RenderFunc(fn))
	}
	return strings.Join(parts, "\n\n")
}
