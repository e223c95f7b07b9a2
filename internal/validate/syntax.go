package validate

import (
	"regexp"
	"strconv"
	"strings"

	"periphgen/internal/diagnostic"
)

// compilerLineRe matches the gcc/clang diagnostic spelling
// "file:line:col: severity: message".
var compilerLineRe = regexp.MustCompile(`^(.+?):(\d+):(\d+): (error|warning|note): (.*)$`)

// parseCompilerOutput turns compiler stderr into diagnostics. Lines that
// do not match the diagnostic spelling (carets, source excerpts, summary
// counts) are dropped.
func parseCompilerOutput(stderr string) []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic

	for _, line := range strings.Split(stderr, "\n") {
		m := compilerLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		lineNo, _ := strconv.Atoi(m[2])
		colNo, _ := strconv.Atoi(m[3])

		sev := diagnostic.SeverityError

		switch m[4] {
		case "warning":
			sev = diagnostic.SeverityWarning
		case "note":
			sev = diagnostic.SeverityInfo
		}

		out = append(out, diagnostic.Diagnostic{
			Severity: sev,
			File:     m[1],
			Line:     lineNo,
			Column:   colNo,
			Message:  m[5],
		})
	}

	return out
}

// hasErrors reports whether any diagnostic is error severity.
func hasErrors(diags []diagnostic.Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == diagnostic.SeverityError {
			return true
		}
	}

	return false
}
