package validate

import (
	"fmt"

	"periphgen/internal/common"
	"periphgen/internal/diagnostic"
	"periphgen/internal/hwdesc"
)

// MismatchKind classifies semantic disagreements between a generated
// artifact and the imported register map.
type MismatchKind int

const (
	MismatchAddress MismatchKind = iota
	MismatchOffset
	MismatchBitfieldPosition
	MismatchBitfieldWidth
	MismatchMissingPeripheral
)

// Mismatch is one semantic disagreement. Name is the register ("CR"),
// bitfield ("CR.EN") or peripheral the values belong to.
type Mismatch struct {
	Kind      MismatchKind
	Name      string
	Generated uint64
	Expected  uint64
}

func (m Mismatch) String() string {
	switch m.Kind {
	case MismatchAddress:
		return fmt.Sprintf("peripheral %s base address mismatch: generated %s, expected %s",
			m.Name, common.Hex(m.Generated), common.Hex(m.Expected))
	case MismatchOffset:
		return fmt.Sprintf("register %s offset mismatch: generated %s, expected %s",
			m.Name, common.Hex(m.Generated), common.Hex(m.Expected))
	case MismatchBitfieldPosition:
		return fmt.Sprintf("bitfield %s position mismatch: generated %d, expected %d",
			m.Name, m.Generated, m.Expected)
	case MismatchBitfieldWidth:
		return fmt.Sprintf("bitfield %s width mismatch: generated %d, expected %d",
			m.Name, m.Generated, m.Expected)
	case MismatchMissingPeripheral:
		return fmt.Sprintf("peripheral %s not present in register map", m.Name)
	}

	return "unknown mismatch"
}

// CrossCheck compares a parsed artifact against the register map index and
// returns every disagreement. An empty result means the artifact agrees
// with the hardware description on every value it embeds.
func CrossCheck(sym *Symbols, idx *hwdesc.Index) []Mismatch {
	rm, ok := idx.Peripheral(sym.Peripheral)
	if !ok {
		return []Mismatch{{Kind: MismatchMissingPeripheral, Name: sym.Peripheral}}
	}

	var out []Mismatch

	if sym.Base != rm.Base {
		out = append(out, Mismatch{
			Kind:      MismatchAddress,
			Name:      sym.Peripheral,
			Generated: sym.Base,
			Expected:  rm.Base,
		})
	}

	for _, r := range sym.Registers {
		want, ok := rm.Register(r.Name)
		if !ok {
			// A register constant with no counterpart means the offset the
			// artifact carries cannot be confirmed at all.
			out = append(out, Mismatch{
				Kind:      MismatchOffset,
				Name:      r.Name,
				Generated: r.Offset,
			})

			continue
		}

		if r.Offset != want.Offset {
			out = append(out, Mismatch{
				Kind:      MismatchOffset,
				Name:      r.Name,
				Generated: r.Offset,
				Expected:  want.Offset,
			})
		}
	}

	for _, b := range sym.Bitfields {
		want, ok := rm.Bitfield(b.Register, b.Name)
		if !ok {
			out = append(out, Mismatch{
				Kind:      MismatchBitfieldPosition,
				Name:      b.Register + "." + b.Name,
				Generated: b.Pos,
			})

			continue
		}

		if b.Pos != uint64(want.Offset) {
			out = append(out, Mismatch{
				Kind:      MismatchBitfieldPosition,
				Name:      b.Register + "." + b.Name,
				Generated: b.Pos,
				Expected:  uint64(want.Offset),
			})
		}

		if b.Width != uint64(want.Width) {
			out = append(out, Mismatch{
				Kind:      MismatchBitfieldWidth,
				Name:      b.Register + "." + b.Name,
				Generated: b.Width,
				Expected:  uint64(want.Width),
			})
		}
	}

	return out
}

// semanticDiagnostics converts mismatches into pipeline diagnostics.
func semanticDiagnostics(path string, mismatches []Mismatch) []diagnostic.Diagnostic {
	out := make([]diagnostic.Diagnostic, len(mismatches))
	for i, m := range mismatches {
		out[i] = diagnostic.Diagnostic{
			Severity: diagnostic.SeverityError,
			File:     path,
			Message:  m.String(),
		}
	}

	return out
}
