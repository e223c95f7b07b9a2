package render

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"periphgen/internal/hwdesc"
	"periphgen/internal/metadata"
)

func uint64p(v uint64) *uint64 { return &v }

func uartDescriptor() *metadata.Descriptor {
	return &metadata.Descriptor{
		Family:          "stm32f4",
		Vendor:          "st",
		Peripheral:      "UART",
		RegisterInclude: "UART",
		TemplateParams: []metadata.TemplateParam{
			{Name: "Base", Type: "uint32_t"},
			{Name: "ClockHz", Type: "uint32_t"},
		},
		Constants: []metadata.Constant{
			{Name: "kFifoDepth", Type: "uint32_t", Value: "16"},
		},
		PolicyMethods: []metadata.PolicyMethod{
			{
				Name:        "enable",
				Description: "Enable the receiver.",
				Ops:         []metadata.RegisterOp{{Action: metadata.OpSet, Register: "CR", Field: "EN"}},
			},
			{
				Name:       "read_status",
				ReturnType: "uint32_t",
				Ops:        []metadata.RegisterOp{{Action: metadata.OpRead, Register: "SR"}},
			},
			{
				Name: "reset",
				Ops:  []metadata.RegisterOp{{Action: metadata.OpWrite, Register: "CR", Value: uint64p(0x3)}},
			},
			{
				Name:   "set_divisor",
				Params: []metadata.Param{{Name: "divisor", Type: "uint32_t"}},
				Ops:    []metadata.RegisterOp{{Action: metadata.OpWrite, Register: "BRR", Param: "divisor"}},
			},
			{
				Name: "wait_rx",
				Ops:  []metadata.RegisterOp{{Action: metadata.OpWait, Register: "SR", Field: "RXNE"}},
			},
		},
		Instances: []metadata.Instance{
			{Name: "UART0", Base: 0x40004400, Clock: uint64p(16000000)},
			{Name: "UART1", Base: 0x40004800},
		},
	}
}

func uartRegisterMap() *hwdesc.RegisterMap {
	return hwdesc.NewRegisterMap("UART", 0x40004400,
		[]hwdesc.Register{
			{Name: "CR", Offset: 0x0, Access: hwdesc.AccessReadWrite},
			{Name: "BRR", Offset: 0x4, Access: hwdesc.AccessReadWrite},
			{Name: "SR", Offset: 0x8, Access: hwdesc.AccessReadOnly},
		},
		[]hwdesc.Bitfield{
			{Register: "CR", Name: "EN", Offset: 0, Width: 1},
			{Register: "SR", Name: "RXNE", Offset: 5, Width: 1},
		})
}

func TestRenderEmitsRegisterLayout(t *testing.T) {
	out, err := Render(uartDescriptor(), uartRegisterMap())
	require.NoError(t, err)

	assert.Contains(t, out, "// peripheral UART (vendor st, family stm32f4)")
	assert.Contains(t, out, "#ifndef PERIPHGEN_ST_STM32F4_UART_HPP")
	assert.Contains(t, out, "template <uint32_t Base, uint32_t ClockHz>")
	assert.Contains(t, out, "struct UartDriver {")

	assert.Contains(t, out, "static constexpr uint32_t kBaseAddress = 0x40004400u; // base address")
	assert.Contains(t, out, "static constexpr uint32_t CR_Offset = 0x0u; // register CR offset")
	assert.Contains(t, out, "static constexpr uint32_t BRR_Offset = 0x4u; // register BRR offset")
	assert.Contains(t, out, "static constexpr uint32_t SR_Offset = 0x8u; // register SR offset")
	assert.Contains(t, out, "static constexpr uint32_t CR_EN_Pos = 0u; // bitfield CR.EN position")
	assert.Contains(t, out, "static constexpr uint32_t CR_EN_Width = 1u; // bitfield CR.EN width")
	assert.Contains(t, out, "static constexpr uint32_t SR_RXNE_Msk = 0x20u; // bitfield SR.RXNE mask")

	assert.Contains(t, out, "static constexpr uint32_t kFifoDepth = 16;")
}

func TestRenderEmitsPolicyMethods(t *testing.T) {
	out, err := Render(uartDescriptor(), uartRegisterMap())
	require.NoError(t, err)

	assert.Contains(t, out, "static void reset() {")
	assert.Contains(t, out, "reg(Base + CR_Offset) = 0x3u;")

	assert.Contains(t, out, "static void enable() {")
	assert.Contains(t, out, "reg(Base + CR_Offset) |= CR_EN_Msk;")

	assert.Contains(t, out, "static void set_divisor(uint32_t divisor) {")
	assert.Contains(t, out, "reg(Base + BRR_Offset) = divisor;")

	assert.Contains(t, out, "static uint32_t read_status() {")
	assert.Contains(t, out, "return reg(Base + SR_Offset);")

	assert.Contains(t, out, "while ((reg(Base + SR_Offset) & SR_RXNE_Msk) == 0u) {}")
}

func TestRenderEmitsInstances(t *testing.T) {
	out, err := Render(uartDescriptor(), uartRegisterMap())
	require.NoError(t, err)

	assert.Contains(t, out, "using UART0 = UartDriver<0x40004400u, 16000000u>;")
	assert.Contains(t, out, "using UART1 = UartDriver<0x40004800u, 0u>;")
}

func TestRenderDeterminism(t *testing.T) {
	desc := uartDescriptor()
	rm := uartRegisterMap()

	first, err := Render(desc, rm)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Render(desc, rm)
		require.NoError(t, err)
		require.Equal(t, first, again, "render must be byte-identical for identical inputs")
	}
}

func TestRenderUnresolvedRegister(t *testing.T) {
	desc := uartDescriptor()
	desc.PolicyMethods = append(desc.PolicyMethods, metadata.PolicyMethod{
		Name: "bad",
		Ops:  []metadata.RegisterOp{{Action: metadata.OpWrite, Register: "DR", Value: uint64p(1)}},
	})

	_, err := Render(desc, uartRegisterMap())
	require.Error(t, err)

	rerr, ok := err.(*RenderError)
	require.True(t, ok)
	assert.Equal(t, ErrUnresolvedRegisterReference, rerr.Kind)
	assert.Equal(t, "DR", rerr.Name)
}

func TestRenderUnresolvedBitfield(t *testing.T) {
	desc := uartDescriptor()
	desc.PolicyMethods = append(desc.PolicyMethods, metadata.PolicyMethod{
		Name: "bad",
		Ops:  []metadata.RegisterOp{{Action: metadata.OpSet, Register: "CR", Field: "NOPE"}},
	})

	_, err := Render(desc, uartRegisterMap())
	require.Error(t, err)

	rerr, ok := err.(*RenderError)
	require.True(t, ok)
	assert.Equal(t, ErrUnresolvedRegisterReference, rerr.Kind)
	assert.Equal(t, "CR.NOPE", rerr.Name)
}

// Rendered policy structs must be zero-state: only static members, so an
// instance carries no data.
func TestRenderZeroState(t *testing.T) {
	out, err := Render(uartDescriptor(), uartRegisterMap())
	require.NoError(t, err)

	structBody := out[strings.Index(out, "struct "):strings.Index(out, "};")]

	memberDecl := regexp.MustCompile(`(?m)^\s+(?:const\s+)?[A-Za-z_][A-Za-z0-9_:<>*&]*\s+[A-Za-z_][A-Za-z0-9_]*\s*(?:=[^;]*)?;`)

	for _, line := range memberDecl.FindAllString(structBody, -1) {
		assert.Contains(t, line, "static", "non-static member declaration leaked into policy struct: %q", line)
	}
}

func TestRenderTestHook(t *testing.T) {
	desc := uartDescriptor()
	desc.PolicyMethods[1].TestHook = "uart_status" // read_status

	out, err := Render(desc, uartRegisterMap())
	require.NoError(t, err)

	assert.Contains(t, out, "#if defined(PERIPHGEN_HOOK_UART_STATUS)")
	assert.Contains(t, out, "return periphgen_hook_uart_status();")
}

func TestParseTemplateRejectsUnknownPlaceholder(t *testing.T) {
	_, err := parseTemplate("hello ${nope}", map[string]bool{"yes": true})
	require.Error(t, err)

	rerr, ok := err.(*RenderError)
	require.True(t, ok)
	assert.Equal(t, ErrTemplateSyntax, rerr.Kind)
	assert.Equal(t, "1:7", rerr.Location)
}

func TestParseTemplateRejectsUnterminated(t *testing.T) {
	_, err := parseTemplate("line1\nx ${open", map[string]bool{"open": true})
	require.Error(t, err)

	rerr, ok := err.(*RenderError)
	require.True(t, ok)
	assert.Equal(t, ErrTemplateSyntax, rerr.Kind)
	assert.Equal(t, "2:3", rerr.Location)
}

// Positions of errors after an earlier placeholder must still be
// relative to the start of the template.
func TestParseTemplateReportsAbsolutePositions(t *testing.T) {
	_, err := parseTemplate("a ${x} ${bad}", map[string]bool{"x": true})
	require.Error(t, err)

	rerr, ok := err.(*RenderError)
	require.True(t, ok)
	assert.Equal(t, ErrTemplateSyntax, rerr.Kind)
	assert.Equal(t, "1:8", rerr.Location)

	_, err = parseTemplate("${x}\nnext ${bad}", map[string]bool{"x": true})
	require.Error(t, err)

	rerr, ok = err.(*RenderError)
	require.True(t, ok)
	assert.Equal(t, "2:6", rerr.Location)
}

func TestTemplateRenderMissingVariable(t *testing.T) {
	tmpl, err := parseTemplate("a ${x} b ${y}", map[string]bool{"x": true, "y": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tmpl.placeholders())

	_, err = tmpl.render(map[string]string{"x": "1"})
	require.Error(t, err)

	rerr, ok := err.(*RenderError)
	require.True(t, ok)
	assert.Equal(t, ErrMissingVariable, rerr.Kind)
	assert.Equal(t, "y", rerr.Name)
}
