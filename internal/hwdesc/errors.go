package hwdesc

import (
	"fmt"

	"periphgen/internal/common"
)

// ErrorKind discriminates import failures.
type ErrorKind int

const (
	// ErrMalformedDocument means the document could not be parsed or
	// normalized.
	ErrMalformedDocument ErrorKind = iota
	// ErrUnknownQuirkTarget means a quirk override names a peripheral,
	// register or field the documents do not define.
	ErrUnknownQuirkTarget
	// ErrConflict means two documents define the same peripheral.
	ErrConflict
)

// String returns a human-readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedDocument:
		return "malformed document"
	case ErrUnknownQuirkTarget:
		return "unknown quirk target"
	case ErrConflict:
		return "conflict"
	default:
		return common.UnknownStr
	}
}

// ImportError describes why a hardware description could not be imported.
type ImportError struct {
	Kind ErrorKind
	// Path is the offending document (or quirk file).
	Path string
	// Detail describes the failure.
	Detail string
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Kind, e.Detail)
}

func malformedErr(path, format string, args ...any) *ImportError {
	return &ImportError{Kind: ErrMalformedDocument, Path: path, Detail: fmt.Sprintf(format, args...)}
}

func quirkTargetErr(path, format string, args ...any) *ImportError {
	return &ImportError{Kind: ErrUnknownQuirkTarget, Path: path, Detail: fmt.Sprintf(format, args...)}
}

func conflictErr(path, format string, args ...any) *ImportError {
	return &ImportError{Kind: ErrConflict, Path: path, Detail: fmt.Sprintf(format, args...)}
}
