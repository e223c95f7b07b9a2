package metadata

import (
	"fmt"

	"periphgen/internal/common"
)

// ErrorKind discriminates metadata loading failures.
type ErrorKind int

const (
	// ErrSyntax means the document could not be parsed at all.
	ErrSyntax ErrorKind = iota
	// ErrMissingField means a required field is absent.
	ErrMissingField
	// ErrTypeMismatch means a field has the wrong shape or an invalid value.
	ErrTypeMismatch
)

// String returns a human-readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrSyntax:
		return "syntax"
	case ErrMissingField:
		return "missing field"
	case ErrTypeMismatch:
		return "type mismatch"
	default:
		return common.UnknownStr
	}
}

// MetadataError describes why a descriptor document was rejected. It carries
// enough context (path, field path, position) to be surfaced to a human
// directly.
type MetadataError struct {
	Kind ErrorKind
	// Path is the document path.
	Path string
	// Field is the dotted field path for MissingField / TypeMismatch.
	Field string
	// Expected and Actual describe the shape mismatch for TypeMismatch.
	Expected string
	Actual   string
	// Line and Column locate syntax errors when derivable. Zero means unknown.
	Line   int
	Column int
	// Detail is the underlying parser message for Syntax errors.
	Detail string
}

// Error implements the error interface.
func (e *MetadataError) Error() string {
	switch e.Kind {
	case ErrSyntax:
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: syntax error: %s", e.Path, e.Line, e.Detail)
		}

		return fmt.Sprintf("%s: syntax error: %s", e.Path, e.Detail)

	case ErrMissingField:
		return fmt.Sprintf("%s: missing required field %q", e.Path, e.Field)

	case ErrTypeMismatch:
		return fmt.Sprintf("%s: field %q: expected %s, got %s", e.Path, e.Field, e.Expected, e.Actual)

	default:
		return fmt.Sprintf("%s: metadata error", e.Path)
	}
}

func syntaxErr(path, detail string, line, column int) *MetadataError {
	return &MetadataError{Kind: ErrSyntax, Path: path, Detail: detail, Line: line, Column: column}
}

func missingFieldErr(path, field string) *MetadataError {
	return &MetadataError{Kind: ErrMissingField, Path: path, Field: field}
}

func typeMismatchErr(path, field, expected, actual string) *MetadataError {
	return &MetadataError{Kind: ErrTypeMismatch, Path: path, Field: field, Expected: expected, Actual: actual}
}
