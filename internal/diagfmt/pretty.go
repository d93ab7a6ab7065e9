package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"syncwrap/internal/diag"
	"syncwrap/internal/source"
)

type palette struct {
	on      bool
	err     *color.Color
	warn    *color.Color
	info    *color.Color
	path    *color.Color
	gutter  *color.Color
	caret   *color.Color
	note    *color.Color
	fix     *color.Color
	removed *color.Color
	added   *color.Color
}

func newPalette(on bool) palette {
	p := palette{
		on:      on,
		err:     color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		path:    color.New(color.Bold),
		gutter:  color.New(color.FgBlue),
		caret:   color.New(color.FgRed, color.Bold),
		note:    color.New(color.FgCyan),
		fix:     color.New(color.FgGreen),
		removed: color.New(color.FgRed),
		added:   color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.path, p.gutter, p.caret, p.note, p.fix, p.removed, p.added} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		prettyOne(w, &d, fs, opts, p)
	}
}

func location(fs *source.FileSet, span source.Span, mode PathMode) (string, bool) {
	f := fs.Get(span.File)
	if f == nil {
		return "", false
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", f.FormatPath(mode.mode(), fs.BaseDir()), start.Line, start.Col), true
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	loc, ok := location(fs, d.Primary, opts.PathMode)
	if !ok {
		loc = "<unknown>"
	}
	fmt.Fprintf(w, "%s: %s: %s\n",
		p.path.Sprint(loc),
		p.severity(d.Severity).Sprintf("%s %s", d.Severity, d.Code.ID()),
		d.Message)
	if ok {
		snippet(w, fs, d.Primary, opts, p)
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			nloc, _ := location(fs, n.Span, opts.PathMode)
			fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("= note:"), nloc, n.Msg)
		}
	}
	if opts.ShowFixes {
		for _, fx := range d.Fixes {
			fmt.Fprintf(w, "  %s %s (%s)\n", p.fix.Sprint("= fix:"), fx.Title, fx.Applicability)
			if !opts.ShowPreview {
				continue
			}
			for _, edit := range fx.Edits {
				preview, err := buildFixEditPreview(fs, edit)
				if err != nil {
					continue
				}
				for _, line := range preview.before {
					fmt.Fprintf(w, "      %s\n", p.removed.Sprint("- "+line))
				}
				for _, line := range preview.after {
					fmt.Fprintf(w, "      %s\n", p.added.Sprint("+ "+line))
				}
			}
		}
	}
}

// snippet prints the primary line with opts.Context lines above it and a
// caret underline aligned by display width.
func snippet(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, p palette) {
	f := fs.Get(span.File)
	start, end := fs.Resolve(span)
	if start.Line == 0 {
		return
	}
	first := start.Line
	if ctx := uint32(max(opts.Context, 0)); first > ctx { //nolint:gosec // non-negative
		first -= ctx
	} else {
		first = 1
	}
	gutterWidth := len(fmt.Sprint(start.Line))

	for ln := first; ln <= start.Line; ln++ {
		fmt.Fprintf(w, " %s %s\n",
			p.gutter.Sprintf("%*d |", gutterWidth, ln),
			clip(f.GetLine(ln), opts.Width))
	}

	line := f.GetLine(start.Line)
	col := min(int(start.Col)-1, len(line))
	stop := len(line)
	if end.Line == start.Line {
		stop = min(int(end.Col)-1, len(line))
	}
	marks := max(runewidth.StringWidth(line[col:stop]), 1)
	underline := indentFor(line[:col]) + "^" + strings.Repeat("~", marks-1)
	fmt.Fprintf(w, " %s %s\n",
		p.gutter.Sprintf("%*s |", gutterWidth, ""),
		p.caret.Sprint(underline))
}

// indentFor returns whitespace as wide as prefix, keeping tabs.
func indentFor(prefix string) string {
	var b strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return b.String()
}

func clip(line string, width uint8) string {
	if width == 0 || runewidth.StringWidth(line) <= int(width) {
		return line
	}
	return runewidth.Truncate(line, int(width), "…")
}
