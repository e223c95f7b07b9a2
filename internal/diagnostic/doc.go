// Package diagnostic defines the diagnostic model shared by the metadata
// loader, the importer and the validation pipeline. A Diagnostic carries a
// severity, an optional file position and an optional suggested fix; a
// Diagnostics value is an ordered collection of them.
package diagnostic
