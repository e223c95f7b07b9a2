package metadata

import (
	"fmt"
)

// requiredFields enumerates the top-level fields every descriptor document
// must carry, together with the shape each one must have.
var requiredFields = []struct {
	name string
	kind string // "string", "list", "map"
}{
	{"family", "string"},
	{"vendor", "string"},
	{"peripheral_name", "string"},
	{"register_include", "string"},
	{"template_params", "list"},
	{"constants", "list"},
	{"policy_methods", "map"},
	{"instances", "list"},
}

// checkSchema verifies the presence and shape of required top-level fields
// against the loosely-typed document, before the typed descriptor is trusted.
func checkSchema(doc map[string]any, path string) *MetadataError {
	for _, rf := range requiredFields {
		v, ok := doc[rf.name]
		if !ok || v == nil {
			return missingFieldErr(path, rf.name)
		}

		switch rf.kind {
		case "string":
			if _, ok := v.(string); !ok {
				return typeMismatchErr(path, rf.name, "string", shapeName(v))
			}

		case "list":
			if !isList(v) {
				return typeMismatchErr(path, rf.name, "list", shapeName(v))
			}

		case "map":
			if !isMap(v) {
				return typeMismatchErr(path, rf.name, "mapping", shapeName(v))
			}
		}
	}

	return nil
}

// checkDescriptor runs the deeper value checks the loose shape check cannot
// express: empty names, unknown op actions, operand consistency.
func checkDescriptor(d *Descriptor, path string) *MetadataError {
	if d.Family == "" {
		return missingFieldErr(path, "family")
	}

	if d.Vendor == "" {
		return missingFieldErr(path, "vendor")
	}

	if d.Peripheral == "" {
		return missingFieldErr(path, "peripheral_name")
	}

	if d.RegisterInclude == "" {
		return missingFieldErr(path, "register_include")
	}

	for i, tp := range d.TemplateParams {
		if tp.Name == "" {
			return missingFieldErr(path, fmt.Sprintf("template_params[%d].name", i))
		}

		if tp.Type == "" {
			return missingFieldErr(path, fmt.Sprintf("template_params[%d].type", i))
		}
	}

	for i, c := range d.Constants {
		if c.Name == "" {
			return missingFieldErr(path, fmt.Sprintf("constants[%d].name", i))
		}

		if c.Value == "" {
			return missingFieldErr(path, fmt.Sprintf("constants[%d].value", i))
		}
	}

	seenParams := map[string]map[string]bool{}

	for _, pm := range d.PolicyMethods {
		params := map[string]bool{}
		for _, p := range pm.Params {
			params[p.Name] = true
		}

		seenParams[pm.Name] = params

		for i, op := range pm.Ops {
			field := fmt.Sprintf("policy_methods.%s.code[%d]", pm.Name, i)

			if !op.Action.IsValid() {
				return typeMismatchErr(path, field+".action",
					"one of write|set|clear|read|wait", string(op.Action))
			}

			if op.Register == "" {
				return missingFieldErr(path, field+".register")
			}

			if op.Param != "" && !params[op.Param] {
				return typeMismatchErr(path, field+".param",
					"name of a declared parameter", op.Param)
			}

			if op.Action == OpWrite && op.Value == nil && op.Param == "" && op.Field == "" {
				return missingFieldErr(path, field+".value")
			}
		}
	}

	for i, inst := range d.Instances {
		if inst.Name == "" {
			return missingFieldErr(path, fmt.Sprintf("instances[%d].name", i))
		}

		if inst.Base == 0 {
			return missingFieldErr(path, fmt.Sprintf("instances[%d].base", i))
		}
	}

	return nil
}

func isList(v any) bool {
	switch v.(type) {
	case []any, []map[string]any:
		return true
	default:
		return false
	}
}

func isMap(v any) bool {
	switch v.(type) {
	case map[string]any, map[any]any:
		return true
	default:
		return false
	}
}

func shapeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, uint64, float64:
		return "number"
	case []any, []map[string]any:
		return "list"
	case map[string]any, map[any]any:
		return "mapping"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}
