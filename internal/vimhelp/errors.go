package vimhelp

import (
	"fmt"

	"github.com/dgallion1/vimhelp/internal/doctree"
)

// StructuralError reports a tree shape the translator cannot render, such
// as a description entry without a signature. Rendering of the document
// stops and no output should be written for it.
type StructuralError struct {
	Kind   doctree.Kind
	Line   int
	Reason string
}

func (e *StructuralError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed %s node at line %d: %s", e.Kind, e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed %s node: %s", e.Kind, e.Reason)
}
