package render

import (
	"fmt"
	"strings"
)

// A Template is a validated list of literal and placeholder segments.
// Placeholders use the ${name} spelling and must come from the closed set
// passed to parseTemplate; anything else is rejected when the template is
// parsed, never at render time.

type segmentKind int

const (
	segLiteral segmentKind = iota
	segPlaceholder
)

type segment struct {
	kind segmentKind
	// text is the literal text or the placeholder name.
	text string
}

// Template is a parsed, validated segment list.
type Template struct {
	segments []segment
}

// parseTemplate splits src into segments, validating every placeholder
// against the allowed set. Error positions are relative to the whole
// template, not the text after the previous placeholder.
func parseTemplate(src string, allowed map[string]bool) (*Template, error) {
	t := &Template{}

	pos := 0

	for pos < len(src) {
		start := strings.Index(src[pos:], "${")
		if start < 0 {
			t.segments = append(t.segments, segment{segLiteral, src[pos:]})
			break
		}

		start += pos

		if start > pos {
			t.segments = append(t.segments, segment{segLiteral, src[pos:start]})
		}

		rest := src[start+2:]

		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return nil, &RenderError{
				Kind:     ErrTemplateSyntax,
				Location: location(src, start),
				Detail:   "unterminated placeholder",
			}
		}

		name := rest[:end]
		if name == "" || !allowed[name] {
			return nil, &RenderError{
				Kind:     ErrTemplateSyntax,
				Location: location(src, start),
				Detail:   fmt.Sprintf("unknown placeholder %q", name),
			}
		}

		t.segments = append(t.segments, segment{segPlaceholder, name})
		pos = start + 2 + end + 1
	}

	return t, nil
}

// mustParse is for package-level templates that are validated at init.
func mustParse(src string, allowed map[string]bool) *Template {
	t, err := parseTemplate(src, allowed)
	if err != nil {
		panic(err)
	}

	return t
}

// render substitutes vars into the template. Every placeholder must have a
// value, even if empty values are supplied explicitly.
func (t *Template) render(vars map[string]string) (string, error) {
	var sb strings.Builder

	for _, seg := range t.segments {
		switch seg.kind {
		case segLiteral:
			sb.WriteString(seg.text)
		case segPlaceholder:
			v, ok := vars[seg.text]
			if !ok {
				return "", &RenderError{
					Kind:   ErrMissingVariable,
					Name:   seg.text,
					Detail: "no substitution value supplied",
				}
			}

			sb.WriteString(v)
		}
	}

	return sb.String(), nil
}

// placeholders returns the distinct placeholder names in order of first use.
func (t *Template) placeholders() []string {
	seen := map[string]bool{}

	var out []string

	for _, seg := range t.segments {
		if seg.kind == segPlaceholder && !seen[seg.text] {
			seen[seg.text] = true
			out = append(out, seg.text)
		}
	}

	return out
}

// location converts a byte offset into a "line:col" string.
func location(src string, offset int) string {
	line := 1
	col := 1

	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}

	return fmt.Sprintf("%d:%d", line, col)
}
