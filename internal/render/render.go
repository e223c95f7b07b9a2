package render

import (
	"fmt"
	"strings"

	"periphgen/internal/common"
	"periphgen/internal/hwdesc"
	"periphgen/internal/metadata"
)

// headerSkeleton is the closed template for a generated driver header. The
// trailing comments on the register constants are load-bearing: the semantic
// validation stage and the test emission stage parse them.
const headerSkeleton = `// Generated by periphgen. DO NOT EDIT.
// peripheral ${peripheral} (vendor ${vendor}, family ${family})
#ifndef ${guard}
#define ${guard}

#include <cstdint>

namespace ${vendor}::${family} {

template <${template_params}>
struct ${struct_name} {
${register_constants}${constants}${methods}
 private:
  static volatile uint32_t& reg(uint32_t addr) {
    return *reinterpret_cast<volatile uint32_t*>(addr);
  }
};

${instances}
} // namespace ${vendor}::${family}

#endif // ${guard}
`

var headerPlaceholders = map[string]bool{
	"peripheral":         true,
	"vendor":             true,
	"family":             true,
	"guard":              true,
	"template_params":    true,
	"struct_name":        true,
	"register_constants": true,
	"constants":          true,
	"methods":            true,
	"instances":          true,
}

var headerTemplate = mustParse(headerSkeleton, headerPlaceholders)

// Render combines a descriptor and its register map into generated driver
// source. It is a pure function: no clocks, no maps iterated unsorted, no
// filesystem access.
func Render(desc *metadata.Descriptor, rm *hwdesc.RegisterMap) (string, error) {
	regs, fields, err := collectReferences(desc, rm)
	if err != nil {
		return "", err
	}

	var methods strings.Builder

	for _, pm := range desc.PolicyMethods {
		if err := emitMethod(&methods, desc, rm, pm); err != nil {
			return "", err
		}
	}

	vars := map[string]string{
		"peripheral":         desc.Peripheral,
		"vendor":             desc.Vendor,
		"family":             desc.Family,
		"guard":              guard(desc),
		"template_params":    templateParams(desc),
		"struct_name":        structName(desc.Peripheral),
		"register_constants": registerConstants(rm, regs, fields),
		"constants":          constants(desc),
		"methods":            methods.String(),
		"instances":          instances(desc),
	}

	return headerTemplate.render(vars)
}

// StructName exposes the policy struct naming rule to the validation
// pipeline, which synthesizes translation units referring to it.
func StructName(peripheral string) string {
	return structName(peripheral)
}

func structName(peripheral string) string {
	lower := strings.ToLower(peripheral)
	return strings.ToUpper(lower[:1]) + lower[1:] + "Driver"
}

func guard(desc *metadata.Descriptor) string {
	up := func(s string) string {
		return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(s))
	}

	return fmt.Sprintf("PERIPHGEN_%s_%s_%s_HPP", up(desc.Vendor), up(desc.Family), up(desc.Peripheral))
}

func templateParams(desc *metadata.Descriptor) string {
	if len(desc.TemplateParams) == 0 {
		return "uint32_t Base"
	}

	parts := make([]string, len(desc.TemplateParams))
	for i, tp := range desc.TemplateParams {
		parts[i] = tp.Type + " " + tp.Name
	}

	return strings.Join(parts, ", ")
}

// collectReferences gathers every register and bitfield the policy methods
// touch, failing early on references absent from the register map. The
// result is ordered by register offset (then field bit offset) so output is
// stable.
func collectReferences(desc *metadata.Descriptor, rm *hwdesc.RegisterMap) ([]hwdesc.Register, []hwdesc.Bitfield, error) {
	regSet := map[string]bool{}
	fieldSet := map[string]map[string]bool{}

	for _, pm := range desc.PolicyMethods {
		for _, op := range pm.Ops {
			if _, ok := rm.Register(op.Register); !ok {
				return nil, nil, &RenderError{
					Kind:   ErrUnresolvedRegisterReference,
					Name:   op.Register,
					Detail: fmt.Sprintf("policy method %s references register %s absent from the register map", pm.Name, op.Register),
				}
			}

			regSet[op.Register] = true

			if op.Field != "" {
				if _, ok := rm.Bitfield(op.Register, op.Field); !ok {
					return nil, nil, &RenderError{
						Kind: ErrUnresolvedRegisterReference,
						Name: op.Register + "." + op.Field,
						Detail: fmt.Sprintf("policy method %s references bitfield %s.%s absent from the register map",
							pm.Name, op.Register, op.Field),
					}
				}

				if fieldSet[op.Register] == nil {
					fieldSet[op.Register] = map[string]bool{}
				}

				fieldSet[op.Register][op.Field] = true
			}
		}
	}

	var regs []hwdesc.Register

	var fields []hwdesc.Bitfield

	// rm.Registers is already offset-ordered.
	for _, r := range rm.Registers {
		if !regSet[r.Name] {
			continue
		}

		regs = append(regs, r)

		for _, b := range rm.Bitfields(r.Name) {
			if fieldSet[r.Name][b.Name] {
				fields = append(fields, b)
			}
		}
	}

	return regs, fields, nil
}

func registerConstants(rm *hwdesc.RegisterMap, regs []hwdesc.Register, fields []hwdesc.Bitfield) string {
	var sb strings.Builder

	sb.WriteString("  // register layout, cross-checked against the imported register map\n")
	fmt.Fprintf(&sb, "  static constexpr uint32_t kBaseAddress = %su; // base address\n", common.Hex(rm.Base))

	for _, r := range regs {
		fmt.Fprintf(&sb, "  static constexpr uint32_t %s_Offset = %su; // register %s offset\n",
			r.Name, common.Hex(r.Offset), r.Name)
	}

	for _, b := range fields {
		fmt.Fprintf(&sb, "  static constexpr uint32_t %s_%s_Pos = %du; // bitfield %s.%s position\n",
			b.Register, b.Name, b.Offset, b.Register, b.Name)
		fmt.Fprintf(&sb, "  static constexpr uint32_t %s_%s_Width = %du; // bitfield %s.%s width\n",
			b.Register, b.Name, b.Width, b.Register, b.Name)
		fmt.Fprintf(&sb, "  static constexpr uint32_t %s_%s_Msk = %su; // bitfield %s.%s mask\n",
			b.Register, b.Name, common.Hex(b.Mask()), b.Register, b.Name)
	}

	return sb.String()
}

func constants(desc *metadata.Descriptor) string {
	if len(desc.Constants) == 0 {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("\n")

	for _, c := range desc.Constants {
		fmt.Fprintf(&sb, "  static constexpr %s %s = %s;\n", c.Type, c.Name, string(c.Value))
	}

	return sb.String()
}

func emitMethod(sb *strings.Builder, desc *metadata.Descriptor, rm *hwdesc.RegisterMap, pm metadata.PolicyMethod) error {
	sb.WriteString("\n")

	if pm.Description != "" {
		fmt.Fprintf(sb, "  // %s\n", pm.Description)
	}

	ret := pm.ReturnType
	if ret == "" {
		ret = "void"
	}

	params := make([]string, len(pm.Params))
	for i, p := range pm.Params {
		params[i] = p.Type + " " + p.Name
	}

	fmt.Fprintf(sb, "  static %s %s(%s) {\n", ret, pm.Name, strings.Join(params, ", "))

	if pm.TestHook != "" {
		hook := "PERIPHGEN_HOOK_" + strings.ToUpper(pm.TestHook)

		fmt.Fprintf(sb, "#if defined(%s)\n", hook)

		if pm.ReturnType != "" {
			fmt.Fprintf(sb, "    return %s();\n", strings.ToLower(hook))
		} else {
			fmt.Fprintf(sb, "    %s();\n    return;\n", strings.ToLower(hook))
		}

		sb.WriteString("#endif\n")
	}

	for _, op := range pm.Ops {
		line, err := emitOp(desc, rm, pm, op)
		if err != nil {
			return err
		}

		sb.WriteString(line)
	}

	sb.WriteString("  }\n")

	return nil
}

// emitOp lowers one register operation to a statement. References were
// already resolved by collectReferences; lookups here cannot fail.
func emitOp(desc *metadata.Descriptor, rm *hwdesc.RegisterMap, pm metadata.PolicyMethod, op metadata.RegisterOp) (string, error) {
	access := fmt.Sprintf("reg(Base + %s_Offset)", op.Register)

	mask := ""
	pos := ""

	if op.Field != "" {
		mask = fmt.Sprintf("%s_%s_Msk", op.Register, op.Field)
		pos = fmt.Sprintf("%s_%s_Pos", op.Register, op.Field)
	}

	operand := ""

	switch {
	case op.Param != "":
		operand = op.Param
	case op.Value != nil:
		operand = common.Hex(*op.Value) + "u"
	}

	switch op.Action {
	case metadata.OpWrite:
		switch {
		case op.Field != "" && operand != "":
			// Masked insert into the field.
			return fmt.Sprintf("    %s = (%s & ~%s) | ((%s << %s) & %s);\n",
				access, access, mask, operand, pos, mask), nil
		case operand != "":
			return fmt.Sprintf("    %s = %s;\n", access, operand), nil
		case op.Field != "":
			return fmt.Sprintf("    %s = %s;\n", access, mask), nil
		default:
			return "", &RenderError{
				Kind:   ErrMissingVariable,
				Name:   op.Register,
				Detail: fmt.Sprintf("policy method %s: write without value or param", pm.Name),
			}
		}

	case metadata.OpSet:
		if op.Field != "" {
			return fmt.Sprintf("    %s |= %s;\n", access, mask), nil
		}

		return fmt.Sprintf("    %s |= %s;\n", access, operand), nil

	case metadata.OpClear:
		if op.Field != "" {
			return fmt.Sprintf("    %s &= ~%s;\n", access, mask), nil
		}

		return fmt.Sprintf("    %s &= ~%s;\n", access, operand), nil

	case metadata.OpRead:
		if pm.ReturnType == "" {
			// Read-to-clear idiom; the value is discarded on purpose.
			return fmt.Sprintf("    (void)%s;\n", access), nil
		}

		if op.Field != "" {
			return fmt.Sprintf("    return (%s & %s) >> %s;\n", access, mask, pos), nil
		}

		return fmt.Sprintf("    return %s;\n", access), nil

	case metadata.OpWait:
		if op.Field != "" {
			return fmt.Sprintf("    while ((%s & %s) == 0u) {}\n", access, mask), nil
		}

		return fmt.Sprintf("    while ((%s & %s) == 0u) {}\n", access, operand), nil

	default:
		return "", &RenderError{
			Kind:   ErrTemplateSyntax,
			Name:   string(op.Action),
			Detail: fmt.Sprintf("policy method %s: unsupported action", pm.Name),
		}
	}
}

// instances emits one alias per concrete instance, binding the policy struct
// to its base address and clock. Template parameters beyond the recognized
// base/clock names are bound to zero.
func instances(desc *metadata.Descriptor) string {
	var sb strings.Builder

	name := structName(desc.Peripheral)

	for _, inst := range desc.Instances {
		args := make([]string, 0, len(desc.TemplateParams))

		for _, tp := range desc.TemplateParams {
			switch strings.ToLower(tp.Name) {
			case "base", "baseaddress":
				args = append(args, common.Hex(inst.Base)+"u")
			case "clock", "clockhz", "clock_hz":
				if inst.Clock != nil {
					args = append(args, fmt.Sprintf("%du", *inst.Clock))
				} else {
					args = append(args, "0u")
				}
			default:
				args = append(args, "0u")
			}
		}

		if len(args) == 0 {
			args = []string{common.Hex(inst.Base) + "u"}
		}

		fmt.Fprintf(&sb, "using %s = %s<%s>;\n", inst.Name, name, strings.Join(args, ", "))
	}

	return sb.String()
}
