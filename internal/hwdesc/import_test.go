package hwdesc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uartXML = `<?xml version="1.0" encoding="utf-8"?>
<device>
  <vendor>st</vendor>
  <name>STM32F4</name>
  <peripherals>
    <peripheral>
      <name>UART</name>
      <baseAddress>0x40004400</baseAddress>
      <registers>
        <register>
          <name>CR</name>
          <addressOffset>0x0</addressOffset>
          <access>read-write</access>
          <fields>
            <field><name>EN</name><bitOffset>0</bitOffset><bitWidth>1</bitWidth></field>
            <field><name>PARITY</name><bitOffset>1</bitOffset><bitWidth>2</bitWidth></field>
          </fields>
        </register>
        <register>
          <name>SR</name>
          <addressOffset>0x8</addressOffset>
          <access>read-only</access>
          <fields>
            <field><name>RXNE</name><bitOffset>5</bitOffset></field>
          </fields>
        </register>
        <register>
          <name>BRR</name>
          <addressOffset>0x4</addressOffset>
        </register>
      </registers>
    </peripheral>
    <peripheral>
      <name>SPI</name>
      <baseAddress>0x40013000</baseAddress>
      <registers>
        <register>
          <name>DR</name>
          <addressOffset>0xC</addressOffset>
          <dim>2</dim>
          <dimIncrement>0x4</dimIncrement>
        </register>
      </registers>
    </peripheral>
  </peripherals>
</device>
`

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestImport(t *testing.T) {
	idx, err := Import(writeDoc(t, "stm32f4.svd", uartXML))
	require.NoError(t, err)

	assert.Equal(t, []string{"SPI", "UART"}, idx.Peripherals())

	uart, ok := idx.Peripheral("UART")
	require.True(t, ok)
	assert.Equal(t, uint64(0x40004400), uart.Base)

	// Registers come back sorted by offset, not document order.
	require.Len(t, uart.Registers, 3)
	assert.Equal(t, "CR", uart.Registers[0].Name)
	assert.Equal(t, "BRR", uart.Registers[1].Name)
	assert.Equal(t, "SR", uart.Registers[2].Name)
	assert.Equal(t, uint64(0x4), uart.Registers[1].Offset)
	assert.Equal(t, AccessReadOnly, uart.Registers[2].Access)
	assert.Equal(t, AccessReadWrite, uart.Registers[1].Access) // defaulted

	cr, ok := uart.Register("CR")
	require.True(t, ok)
	assert.Equal(t, uint64(0x0), cr.Offset)

	en, ok := uart.Bitfield("CR", "EN")
	require.True(t, ok)
	assert.Equal(t, uint(0), en.Offset)
	assert.Equal(t, uint(1), en.Width)
	assert.Equal(t, uint64(0x1), en.Mask())

	parity, ok := uart.Bitfield("CR", "PARITY")
	require.True(t, ok)
	assert.Equal(t, uint64(0x6), parity.Mask())

	// Missing bitWidth defaults to 1.
	rxne, ok := uart.Bitfield("SR", "RXNE")
	require.True(t, ok)
	assert.Equal(t, uint(1), rxne.Width)
	assert.Equal(t, uint64(0x20), rxne.Mask())

	fields := uart.Bitfields("CR")
	require.Len(t, fields, 2)
	assert.Equal(t, "EN", fields[0].Name)
	assert.Equal(t, "PARITY", fields[1].Name)
}

func TestImportExpandsRegisterArrays(t *testing.T) {
	idx, err := Import(writeDoc(t, "stm32f4.svd", uartXML))
	require.NoError(t, err)

	spi, ok := idx.Peripheral("SPI")
	require.True(t, ok)

	require.Len(t, spi.Registers, 2)
	assert.Equal(t, "DR0", spi.Registers[0].Name)
	assert.Equal(t, uint64(0xC), spi.Registers[0].Offset)
	assert.Equal(t, "DR1", spi.Registers[1].Name)
	assert.Equal(t, uint64(0x10), spi.Registers[1].Offset)
}

func TestImportMalformed(t *testing.T) {
	_, err := Import(writeDoc(t, "broken.svd", "<device><peripherals><peripheral>"))
	require.Error(t, err)

	ierr, ok := err.(*ImportError)
	require.True(t, ok)
	assert.Equal(t, ErrMalformedDocument, ierr.Kind)
}

func TestImportNoPeripherals(t *testing.T) {
	_, err := Import(writeDoc(t, "empty.svd", "<device><name>X</name></device>"))
	require.Error(t, err)

	ierr, ok := err.(*ImportError)
	require.True(t, ok)
	assert.Equal(t, ErrMalformedDocument, ierr.Kind)
}

const timerXML = `<device>
  <peripherals>
    <peripheral>
      <name>TIM</name>
      <baseAddress>0x40000000</baseAddress>
      <registers>
        <register><name>CNT</name><addressOffset>0x24</addressOffset></register>
      </registers>
    </peripheral>
  </peripherals>
</device>
`

func TestImportAllMerges(t *testing.T) {
	a := writeDoc(t, "uart.svd", uartXML)
	b := writeDoc(t, "tim.svd", timerXML)

	idx, err := ImportAll([]string{a, b}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"SPI", "TIM", "UART"}, idx.Peripherals())
}

func TestImportAllConflict(t *testing.T) {
	a := writeDoc(t, "uart.svd", uartXML)
	b := writeDoc(t, "uart2.svd", uartXML)

	_, err := ImportAll([]string{a, b}, "")
	require.Error(t, err)

	ierr, ok := err.(*ImportError)
	require.True(t, ok)
	assert.Equal(t, ErrConflict, ierr.Kind)
	assert.Contains(t, ierr.Detail, "UART")
}

func TestApplyQuirks(t *testing.T) {
	docPath := writeDoc(t, "uart.svd", uartXML)
	quirkPath := writeDoc(t, "quirks.yaml", `
quirks:
  - peripheral: UART
    register: SR
    offset: 0x10
    reason: vendor document places SR at the reserved slot
  - peripheral: UART
    register: CR
    field: PARITY
    bit_width: 1
    reason: PARITY is a single bit on this family
  - peripheral: TIM
    register: CNT
    dim: 3
    stride: 8
    reason: CNT is a banked array of three counters
`)

	timPath := writeDoc(t, "tim.svd", timerXML)

	idx, err := ImportAll([]string{docPath, timPath}, quirkPath)
	require.NoError(t, err)

	uart, _ := idx.Peripheral("UART")

	sr, ok := uart.Register("SR")
	require.True(t, ok)
	assert.Equal(t, uint64(0x10), sr.Offset)

	parity, _ := uart.Bitfield("CR", "PARITY")
	assert.Equal(t, uint(1), parity.Width)
	assert.Equal(t, uint64(0x2), parity.Mask())

	tim, _ := idx.Peripheral("TIM")
	require.Len(t, tim.Registers, 3)
	assert.Equal(t, "CNT0", tim.Registers[0].Name)
	assert.Equal(t, uint64(0x24), tim.Registers[0].Offset)
	assert.Equal(t, "CNT2", tim.Registers[2].Name)
	assert.Equal(t, uint64(0x34), tim.Registers[2].Offset)
}

func TestApplyQuirksUnknownTarget(t *testing.T) {
	docPath := writeDoc(t, "uart.svd", uartXML)
	quirkPath := writeDoc(t, "quirks.yaml", `
quirks:
  - peripheral: UART
    register: NOPE
    offset: 0x10
`)

	_, err := ImportAll([]string{docPath}, quirkPath)
	require.Error(t, err)

	ierr, ok := err.(*ImportError)
	require.True(t, ok)
	assert.Equal(t, ErrUnknownQuirkTarget, ierr.Kind)
	assert.Contains(t, ierr.Detail, "NOPE")
}
