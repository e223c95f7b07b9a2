package validate

import (
	"fmt"
	"strings"
)

// compileHarness synthesizes a translation unit that includes the artifact
// and calls every policy method once through the first instance alias,
// proving the generated code instantiates and type-checks end to end.
func compileHarness(artifactPath string, sym *Symbols) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "#include %q\n\n", artifactPath)
	sb.WriteString("int main() {\n")

	if len(sym.Instances) > 0 {
		inst := sym.Namespace() + "::" + sym.Instances[0].Name

		for _, m := range sym.Methods {
			args := make([]string, m.Params)
			for i := range args {
				args[i] = "0"
			}

			if m.Return != "void" {
				fmt.Fprintf(&sb, "  (void)%s::%s(%s);\n", inst, m.Name, strings.Join(args, ", "))
			} else {
				fmt.Fprintf(&sb, "  %s::%s(%s);\n", inst, m.Name, strings.Join(args, ", "))
			}
		}
	}

	sb.WriteString("  return 0;\n}\n")

	return sb.String()
}

// testHarness synthesizes the static-assert companion: every layout value
// the artifact embeds is re-asserted at compile time against itself and the
// policy struct is proven zero-state. Compiling this file is the test
// emission stage.
func testHarness(artifactPath string, sym *Symbols) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "#include %q\n", artifactPath)
	sb.WriteString("#include <type_traits>\n\n")

	if len(sym.Instances) == 0 {
		return sb.String()
	}

	inst := sym.Namespace() + "::" + sym.Instances[0].Name

	fmt.Fprintf(&sb, "static_assert(std::is_empty<%s>::value, \"policy struct carries state\");\n", inst)
	fmt.Fprintf(&sb, "static_assert(%s::kBaseAddress == 0x%xu, \"base address\");\n", inst, sym.Base)

	for _, r := range sym.Registers {
		fmt.Fprintf(&sb, "static_assert(%s::%s_Offset == 0x%xu, \"%s offset\");\n",
			inst, r.Name, r.Offset, r.Name)
	}

	for _, b := range sym.Bitfields {
		fmt.Fprintf(&sb, "static_assert(%s::%s_%s_Pos == %du, \"%s.%s position\");\n",
			inst, b.Register, b.Name, b.Pos, b.Register, b.Name)
		fmt.Fprintf(&sb, "static_assert(%s::%s_%s_Width == %du, \"%s.%s width\");\n",
			inst, b.Register, b.Name, b.Width, b.Register, b.Name)
		fmt.Fprintf(&sb, "static_assert(%s::%s_%s_Msk == 0x%xu, \"%s.%s mask\");\n",
			inst, b.Register, b.Name, b.Mask, b.Register, b.Name)
	}

	return sb.String()
}
