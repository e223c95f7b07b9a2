package hwdesc

import (
	"fmt"
	"os"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"
)

// Quirk is one declarative override correcting a known error in a vendor
// description. Quirks are data shipped alongside the documents; the importer
// never patches documents in code.
type Quirk struct {
	// Peripheral targets a peripheral by name. Required.
	Peripheral string `yaml:"peripheral"`
	// Register targets a register of Peripheral; required unless only Base
	// is overridden.
	Register string `yaml:"register,omitempty"`
	// Field targets a bitfield of Register.
	Field string `yaml:"field,omitempty"`

	// Base overrides the peripheral base address.
	Base *uint64 `yaml:"base,omitempty"`
	// Offset overrides the register offset.
	Offset *uint64 `yaml:"offset,omitempty"`
	// BitOffset and BitWidth override the bitfield position/width.
	BitOffset *uint `yaml:"bit_offset,omitempty"`
	BitWidth  *uint `yaml:"bit_width,omitempty"`
	// Dim re-expands Register into an array of Dim registers spaced Stride
	// bytes apart (Stride defaults to 4), correcting wrong or missing array
	// dimensions.
	Dim    *int    `yaml:"dim,omitempty"`
	Stride *uint64 `yaml:"stride,omitempty"`

	// Reason documents why the override exists.
	Reason string `yaml:"reason,omitempty"`
}

type quirkFile struct {
	Quirks []Quirk `yaml:"quirks"`
}

// LoadQuirks reads a quirk override file.
func LoadQuirks(path string) ([]Quirk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, malformedErr(path, "reading quirk file: %v", err)
	}

	var qf quirkFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, malformedErr(path, "parsing quirk file: %v", err)
	}

	return qf.Quirks, nil
}

// ApplyQuirks applies every override to the index. A quirk naming a
// peripheral, register or field the index does not define is fatal.
func ApplyQuirks(idx *Index, quirks []Quirk, path string) error {
	for i, q := range quirks {
		if err := applyQuirk(idx, q); err != nil {
			if ierr, ok := err.(*ImportError); ok {
				ierr.Path = path
				ierr.Detail = fmt.Sprintf("quirk %d: %s", i, ierr.Detail)
			}

			return err
		}
	}

	return nil
}

func applyQuirk(idx *Index, q Quirk) error {
	if q.Peripheral == "" {
		return malformedErr("", "quirk without a peripheral target")
	}

	m, ok := idx.Peripheral(q.Peripheral)
	if !ok {
		return quirkTargetErr("", "peripheral %s not defined by any document", q.Peripheral)
	}

	if q.Base != nil {
		m.Base = *q.Base
	}

	if q.Register == "" {
		if q.Offset != nil || q.BitOffset != nil || q.BitWidth != nil || q.Dim != nil {
			return malformedErr("", "quirk on %s overrides register data without a register target", q.Peripheral)
		}

		return nil
	}

	if q.Dim != nil {
		return applyDimQuirk(m, q)
	}

	ri, ok := m.regIndex[q.Register]
	if !ok {
		return quirkTargetErr("", "register %s.%s not defined", q.Peripheral, q.Register)
	}

	if q.Offset != nil {
		m.Registers[ri].Offset = *q.Offset
		m.normalize()
	}

	if q.Field == "" {
		if q.BitOffset != nil || q.BitWidth != nil {
			return malformedErr("", "quirk on %s.%s overrides bitfield data without a field target",
				q.Peripheral, q.Register)
		}

		return nil
	}

	b, ok := m.Bitfield(q.Register, q.Field)
	if !ok {
		return quirkTargetErr("", "bitfield %s.%s.%s not defined", q.Peripheral, q.Register, q.Field)
	}

	if q.BitOffset != nil {
		b.Offset = *q.BitOffset
	}

	if q.BitWidth != nil {
		b.Width = *q.BitWidth
	}

	m.fields[q.Register][q.Field] = b

	return nil
}

// applyDimQuirk replaces the targeted register (a single entry or an already
// expanded NAME0..NAMEn set) with exactly Dim entries. Bitfields of the
// first matching register are cloned onto every expanded entry.
func applyDimQuirk(m *RegisterMap, q Quirk) error {
	matches := dimMatches(m, q.Register)
	if len(matches) == 0 {
		return quirkTargetErr("", "register %s.%s not defined", q.Peripheral, q.Register)
	}

	stride := uint64(4)
	if q.Stride != nil {
		stride = *q.Stride
	}

	first := m.Registers[matches[0]]
	template := m.Bitfields(first.Name)

	// Drop the matched registers and their field entries.
	keep := m.Registers[:0]
	matched := map[int]bool{}

	for _, i := range matches {
		matched[i] = true
		delete(m.fields, m.Registers[i].Name)
	}

	for i, r := range m.Registers {
		if !matched[i] {
			keep = append(keep, r)
		}
	}

	m.Registers = keep

	for i := 0; i < *q.Dim; i++ {
		name := fmt.Sprintf("%s%d", q.Register, i)
		m.Registers = append(m.Registers, Register{
			Name:   name,
			Offset: first.Offset + uint64(i)*stride,
			Access: first.Access,
		})

		for _, b := range template {
			b.Register = name
			m.addBitfield(b)
		}
	}

	m.normalize()

	return nil
}

// dimMatches finds the register indexes targeted by a dim quirk: an exact
// name match, or the NAME<digits> set produced by a previous expansion.
func dimMatches(m *RegisterMap, name string) []int {
	var out []int

	for i, r := range m.Registers {
		if r.Name == name {
			out = append(out, i)
			continue
		}

		if suffix, found := strings.CutPrefix(r.Name, name); found && isDigits(suffix) {
			out = append(out, i)
		}
	}

	sort.Ints(out)

	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return true
}
