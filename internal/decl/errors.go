package decl

import (
	"errors"
	"fmt"

	"syncwrap/internal/source"
)

// Reason classifies a StructuralError.
type Reason uint8

const (
	ReasonNotAsync Reason = iota + 1
	ReasonNoBody
	ReasonMixedBlock
	ReasonEmptyBlock
	ReasonMirrorNotFound
	ReasonMirrorNotStruct
	ReasonMirrorDuplicate
)

// ErrStructural is matched by every *StructuralError via errors.Is.
var ErrStructural = errors.New("structural error")

// StructuralError reports that a declaration does not qualify for the
// requested transformation. Span points at the offending declaration.
type StructuralError struct {
	Request string // "syncwrap:clone", "syncwrap:mirror", ...
	Decl    string // qualified declaration name
	Reason  Reason
	Detail  string
	Span    source.Span
	// Block is set when the offending declaration is a member of a block.
	Block string
}

func (e *StructuralError) Error() string {
	if e.Block != "" {
		return fmt.Sprintf("%s on %s: method %s %s", e.Request, e.Block, e.Decl, e.Detail)
	}
	return fmt.Sprintf("%s on %s: %s", e.Request, e.Decl, e.Detail)
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}
