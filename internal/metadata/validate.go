package metadata

import (
	"errors"
	"fmt"

	"periphgen/internal/diagnostic"
)

// Validate runs the same checks as Load without producing a descriptor, for
// standalone linting. Loader errors become diagnostics; a loadable descriptor
// additionally gets style warnings.
func Validate(path string) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}

	desc, err := Load(path)
	if err != nil {
		var merr *MetadataError
		if errors.As(err, &merr) {
			res.Add(diagnostic.Diagnostic{
				Severity: diagnostic.SeverityError,
				File:     path,
				Line:     merr.Line,
				Column:   merr.Column,
				Message:  lintMessage(merr),
			})

			return res
		}

		res.AddError(path, 0, 0, err.Error())

		return res
	}

	if len(desc.PolicyMethods) == 0 {
		res.AddWarning(path, 0, 0, "descriptor defines no policy methods")
	}

	if len(desc.Instances) == 0 {
		res.AddWarning(path, 0, 0, "descriptor defines no instances")
	}

	for _, inst := range desc.Instances {
		if inst.Clock == nil {
			res.AddInfo(path, 0, 0,
				fmt.Sprintf("instance %s has no clock; the family default will be used", inst.Name))
		}
	}

	return res
}

// lintMessage strips the path prefix MetadataError.Error embeds, since the
// diagnostic already carries the file.
func lintMessage(e *MetadataError) string {
	switch e.Kind {
	case ErrSyntax:
		return "syntax error: " + e.Detail
	case ErrMissingField:
		return fmt.Sprintf("missing required field %q", e.Field)
	case ErrTypeMismatch:
		return fmt.Sprintf("field %q: expected %s, got %s", e.Field, e.Expected, e.Actual)
	default:
		return e.Error()
	}
}
