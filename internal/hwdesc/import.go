package hwdesc

import (
	"encoding/xml"
	"fmt"
	"os"
)

// Import parses one hardware description document into an index of register
// maps, one per peripheral the document defines.
func Import(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, malformedErr(path, "reading document: %v", err)
	}

	doc := new(document)
	if err := xml.Unmarshal(data, doc); err != nil {
		return nil, malformedErr(path, "parsing document: %v", err)
	}

	if len(doc.Peripherals) == 0 {
		return nil, malformedErr(path, "document defines no peripherals")
	}

	idx := NewIndex()

	for _, p := range doc.Peripherals {
		m, err := normalizePeripheral(path, p)
		if err != nil {
			return nil, err
		}

		if err := idx.Add(m, path); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// ImportAll imports and merges multiple documents, then applies the quirk
// overrides from quirksPath (empty means no quirks). Peripheral name
// collisions across documents are fatal.
func ImportAll(paths []string, quirksPath string) (*Index, error) {
	idx := NewIndex()

	for _, path := range paths {
		sub, err := Import(path)
		if err != nil {
			return nil, err
		}

		if err := Merge(idx, sub); err != nil {
			return nil, err
		}
	}

	if quirksPath != "" {
		quirks, err := LoadQuirks(quirksPath)
		if err != nil {
			return nil, err
		}

		if err := ApplyQuirks(idx, quirks, quirksPath); err != nil {
			return nil, err
		}
	}

	return idx, nil
}

// Merge moves every peripheral of src into dst. A peripheral defined by both
// is a fatal conflict.
func Merge(dst, src *Index) error {
	for _, name := range src.Peripherals() {
		m := src.byPeripheral[name]
		if err := dst.Add(m, src.sources[name]); err != nil {
			return err
		}
	}

	return nil
}

// normalizePeripheral flattens one document peripheral into a RegisterMap:
// register arrays are expanded, registers sorted by offset and the reverse
// bitfield index built.
func normalizePeripheral(path string, p *docPeripheral) (*RegisterMap, error) {
	if p.Name == "" {
		return nil, malformedErr(path, "peripheral without a name")
	}

	m := &RegisterMap{
		Peripheral: p.Name,
		Base:       uint64(p.BaseAddress),
	}

	seen := map[string]bool{}

	for _, r := range p.Registers {
		if r.Name == "" {
			return nil, malformedErr(path, "peripheral %s: register without a name", p.Name)
		}

		names, offsets := expandRegister(r)

		for i, name := range names {
			if seen[name] {
				return nil, malformedErr(path, "peripheral %s: duplicate register %s", p.Name, name)
			}

			seen[name] = true

			m.Registers = append(m.Registers, Register{
				Name:   name,
				Offset: offsets[i],
				Access: access(r.Access),
			})

			for _, f := range r.Fields {
				width := uint(1)
				if f.BitWidth != nil {
					width = uint(*f.BitWidth)
				}

				if f.Name == "" {
					return nil, malformedErr(path, "peripheral %s: register %s: field without a name", p.Name, name)
				}

				if uint(f.BitOffset)+width > 64 {
					return nil, malformedErr(path,
						"peripheral %s: register %s: field %s exceeds register width", p.Name, name, f.Name)
				}

				m.addBitfield(Bitfield{
					Register: name,
					Name:     f.Name,
					Offset:   uint(f.BitOffset),
					Width:    width,
				})
			}
		}
	}

	m.normalize()

	return m, nil
}

// expandRegister expands a dim-array register element into its concrete
// instances (NAME0..NAMEn-1). The default increment is one 32-bit word.
func expandRegister(r *docRegister) (names []string, offsets []uint64) {
	dim := int(r.Dim)
	if dim <= 1 {
		return []string{r.Name}, []uint64{uint64(r.AddressOffset)}
	}

	inc := uint64(r.DimIncrement)
	if inc == 0 {
		inc = 4
	}

	for i := 0; i < dim; i++ {
		names = append(names, fmt.Sprintf("%s%d", r.Name, i))
		offsets = append(offsets, uint64(r.AddressOffset)+uint64(i)*inc)
	}

	return names, offsets
}

// access normalizes the vendor access spelling; missing means read-write.
func access(s string) string {
	switch s {
	case AccessReadOnly, AccessWriteOnly, AccessReadWrite:
		return s
	case "":
		return AccessReadWrite
	default:
		// Unrecognized refinements (write-once etc.) degrade to read-write.
		return AccessReadWrite
	}
}
