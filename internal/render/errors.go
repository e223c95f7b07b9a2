package render

import (
	"fmt"

	"periphgen/internal/common"
)

// ErrorKind discriminates render failures.
type ErrorKind int

const (
	// ErrMissingVariable means a placeholder had no substitution value.
	ErrMissingVariable ErrorKind = iota
	// ErrTemplateSyntax means the template itself is malformed.
	ErrTemplateSyntax
	// ErrUnresolvedRegisterReference means a policy method references a
	// register or bitfield absent from the supplied register map. References
	// are resolved before any emission; the semantic validation stage later
	// re-verifies the emitted values.
	ErrUnresolvedRegisterReference
)

// String returns a human-readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrMissingVariable:
		return "missing variable"
	case ErrTemplateSyntax:
		return "template syntax"
	case ErrUnresolvedRegisterReference:
		return "unresolved register reference"
	default:
		return common.UnknownStr
	}
}

// RenderError describes why rendering failed.
type RenderError struct {
	Kind ErrorKind
	// Name is the placeholder, register or field the error refers to.
	Name string
	// Location is a template position ("line:col") for syntax errors.
	Location string
	// Detail describes the failure.
	Detail string
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	switch {
	case e.Location != "":
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Location, e.Detail)
	case e.Name != "":
		return fmt.Sprintf("%s %q: %s", e.Kind, e.Name, e.Detail)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
}
