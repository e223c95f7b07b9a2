package diagnostic

import (
	"errors"
	"fmt"
	"strings"

	"periphgen/internal/common"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns a human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return common.UnknownStr
	}
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	// Severity of the diagnostic.
	Severity Severity
	// File is the path the diagnostic refers to (if any).
	File string
	// Line and Column locate the diagnostic within File. Zero means unknown.
	Line   int
	Column int
	// Message is the human-readable description.
	Message string
	// Suggestion is an optional suggested fix.
	Suggestion string
}

// String returns the diagnostic in "file:line:col: severity: message" form,
// omitting position parts that are unknown.
func (d Diagnostic) String() string {
	var sb strings.Builder

	if d.File != "" {
		sb.WriteString(d.File)

		if d.Line > 0 {
			fmt.Fprintf(&sb, ":%d", d.Line)

			if d.Column > 0 {
				fmt.Fprintf(&sb, ":%d", d.Column)
			}
		}

		sb.WriteString(": ")
	}

	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	sb.WriteString(d.Message)

	if d.Suggestion != "" {
		sb.WriteString(" (suggested fix: ")
		sb.WriteString(d.Suggestion)
		sb.WriteString(")")
	}

	return sb.String()
}

// Diagnostics is an ordered collection of diagnostics. Order is the order in
// which the producing stage encountered them.
type Diagnostics struct {
	All []Diagnostic
}

// Add appends a diagnostic.
func (d *Diagnostics) Add(diag Diagnostic) {
	d.All = append(d.All, diag)
}

// AddError appends an error diagnostic.
func (d *Diagnostics) AddError(file string, line, column int, message string) {
	d.All = append(d.All, Diagnostic{
		Severity: SeverityError,
		File:     file,
		Line:     line,
		Column:   column,
		Message:  message,
	})
}

// AddWarning appends a warning diagnostic.
func (d *Diagnostics) AddWarning(file string, line, column int, message string) {
	d.All = append(d.All, Diagnostic{
		Severity: SeverityWarning,
		File:     file,
		Line:     line,
		Column:   column,
		Message:  message,
	})
}

// AddInfo appends an info diagnostic.
func (d *Diagnostics) AddInfo(file string, line, column int, message string) {
	d.All = append(d.All, Diagnostic{
		Severity: SeverityInfo,
		File:     file,
		Line:     line,
		Column:   column,
		Message:  message,
	})
}

// HasErrors returns true if any diagnostic has error severity.
func (d *Diagnostics) HasErrors() bool {
	for _, diag := range d.All {
		if diag.Severity == SeverityError {
			return true
		}
	}

	return false
}

// Errors returns the error-severity diagnostics in order.
func (d *Diagnostics) Errors() []Diagnostic {
	var out []Diagnostic

	for _, diag := range d.All {
		if diag.Severity == SeverityError {
			out = append(out, diag)
		}
	}

	return out
}

// Merge appends another collection, preserving order.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.All = append(d.All, other.All...)
}

// Len returns the number of diagnostics.
func (d *Diagnostics) Len() int {
	return len(d.All)
}

// Error returns a combined error from all error diagnostics, or nil if there
// are none.
func (d *Diagnostics) Error() error {
	errs := d.Errors()
	if len(errs) == 0 {
		return nil
	}

	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.String()
	}

	return errors.New(strings.Join(parts, "; "))
}
