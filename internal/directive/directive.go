package directive

import (
	"fmt"
	"go/token"
	"strings"
	"unicode"

	"syncwrap/internal/diag"
	"syncwrap/internal/source"
)

// Prefix starts every syncwrap directive comment.
const Prefix = "//syncwrap:"

// Kind names a transformation request.
type Kind uint8

const (
	KindReplace Kind = iota + 1
	KindClone
	KindMirror
	KindSkip
)

func (k Kind) String() string {
	switch k {
	case KindReplace:
		return "replace"
	case KindClone:
		return "clone"
	case KindMirror:
		return "mirror"
	case KindSkip:
		return "skip"
	}
	return "unknown"
}

// Request is the diagnostic name of the transformation, e.g. "syncwrap:clone".
func (k Kind) Request() string {
	return "syncwrap:" + k.String()
}

var kindsByName = map[string]Kind{
	"replace": KindReplace,
	"clone":   KindClone,
	"mirror":  KindMirror,
	"skip":    KindSkip,
}

// allowed lists accepted arguments per kind; true marks a key=value argument,
// false a bare flag.
var allowed = map[Kind]map[string]bool{
	KindReplace: {},
	KindClone:   {"suffix": true},
	KindMirror:  {"type": true, "declare": false},
	KindSkip:    {},
}

// Directive is one parsed //syncwrap: comment.
type Directive struct {
	Kind  Kind
	Args  map[string]string
	Flags map[string]bool
	Span  source.Span
}

// Arg returns the value of a key=value argument.
func (d Directive) Arg(key string) (string, bool) {
	v, ok := d.Args[key]
	return v, ok
}

// Error is a malformed directive.
type Error struct {
	Code diag.Code
	Msg  string
	Span source.Span
}

func (e *Error) Error() string { return e.Msg }

// Diagnostic converts e into an error diagnostic.
func (e *Error) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Msg)
}

// IsDirective reports whether a raw comment is a syncwrap directive.
func IsDirective(comment string) bool {
	return strings.HasPrefix(comment, Prefix)
}

// Parse parses a raw comment ("//syncwrap:clone suffix=Sync").
func Parse(comment string, span source.Span) (Directive, error) {
	if !IsDirective(comment) {
		return Directive{}, &Error{Code: diag.DirUnknown, Msg: fmt.Sprintf("%q is not a syncwrap directive", comment), Span: span}
	}
	fields := strings.Fields(strings.TrimPrefix(comment, Prefix))
	if len(fields) == 0 {
		return Directive{}, &Error{Code: diag.DirUnknown, Msg: "empty syncwrap directive", Span: span}
	}
	kind, ok := kindsByName[fields[0]]
	if !ok {
		return Directive{}, &Error{
			Code: diag.DirUnknown,
			Msg:  fmt.Sprintf("unknown directive syncwrap:%s (expected replace, clone, mirror or skip)", fields[0]),
			Span: span,
		}
	}
	d := Directive{
		Kind:  kind,
		Args:  make(map[string]string),
		Flags: make(map[string]bool),
		Span:  span,
	}
	for _, field := range fields[1:] {
		key, value, hasValue := strings.Cut(field, "=")
		wantsValue, known := allowed[kind][key]
		switch {
		case !known:
			return Directive{}, d.badArg("unknown argument %q", key)
		case wantsValue && !hasValue:
			return Directive{}, d.badArg("argument %q needs a value (%s=...)", key, key)
		case !wantsValue && hasValue:
			return Directive{}, d.badArg("argument %q takes no value", key)
		}
		if _, dup := d.Args[key]; dup || d.Flags[key] {
			return Directive{}, d.badArg("argument %q given twice", key)
		}
		if !wantsValue {
			d.Flags[key] = true
			continue
		}
		if err := d.checkValue(key, value); err != nil {
			return Directive{}, err
		}
		d.Args[key] = value
	}
	return d, nil
}

func (d Directive) checkValue(key, value string) error {
	switch key {
	case "suffix":
		if !IsSuffix(value) {
			return d.badArg("suffix %q must be non-empty and contain only letters, digits or '_'", value)
		}
	case "type":
		if !token.IsIdentifier(value) {
			return d.badArg("type %q is not a Go identifier", value)
		}
	}
	return nil
}

func (d Directive) badArg(format string, args ...any) error {
	return &Error{
		Code: diag.DirBadArgument,
		Msg:  d.Kind.Request() + ": " + fmt.Sprintf(format, args...),
		Span: d.Span,
	}
}

// IsSuffix reports whether s can be appended to an identifier.
func IsSuffix(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
