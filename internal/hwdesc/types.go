package hwdesc

import "sort"

// Register access kinds, as spelled by the vendor documents.
const (
	AccessReadOnly  = "read-only"
	AccessWriteOnly = "write-only"
	AccessReadWrite = "read-write"
)

// Register is one register of a peripheral.
type Register struct {
	Name string
	// Offset is the byte offset from the peripheral base.
	Offset uint64
	// Access is one of the Access* kinds.
	Access string
}

// Bitfield is one named bit range of a register.
type Bitfield struct {
	// Register is the owning register's name.
	Register string
	Name     string
	// Offset is the bit position of the least significant bit.
	Offset uint
	// Width is the field width in bits.
	Width uint
}

// Mask returns the field's bit mask within its register.
func (b Bitfield) Mask() uint64 {
	return ((uint64(1) << b.Width) - 1) << b.Offset
}

// RegisterMap is the normalized model of one peripheral's registers and
// bitfields, imported from a hardware description and never hand-edited.
// It is immutable for the duration of a generation run.
type RegisterMap struct {
	// Peripheral is the peripheral name.
	Peripheral string
	// Base is the vendor-documented base address.
	Base uint64
	// Registers is ordered by ascending offset.
	Registers []Register

	regIndex map[string]int
	fields   map[string]map[string]Bitfield
}

// NewRegisterMap builds a normalized register map from parts. The importer
// uses it internally; it is also the way tests and callers without a vendor
// document assemble maps.
func NewRegisterMap(peripheral string, base uint64, regs []Register, fields []Bitfield) *RegisterMap {
	m := &RegisterMap{
		Peripheral: peripheral,
		Base:       base,
		Registers:  regs,
	}

	for _, b := range fields {
		m.addBitfield(b)
	}

	m.normalize()

	return m
}

// normalize sorts registers by offset and (re)builds the reverse indexes.
func (m *RegisterMap) normalize() {
	sort.SliceStable(m.Registers, func(i, j int) bool {
		return m.Registers[i].Offset < m.Registers[j].Offset
	})

	m.regIndex = make(map[string]int, len(m.Registers))
	for i, r := range m.Registers {
		m.regIndex[r.Name] = i
	}
}

// Register looks up a register by name.
func (m *RegisterMap) Register(name string) (Register, bool) {
	i, ok := m.regIndex[name]
	if !ok {
		return Register{}, false
	}

	return m.Registers[i], true
}

// Bitfield looks up a bitfield by owning register and field name.
func (m *RegisterMap) Bitfield(register, name string) (Bitfield, bool) {
	b, ok := m.fields[register][name]
	return b, ok
}

// Bitfields returns the bitfields of a register ordered by bit offset.
func (m *RegisterMap) Bitfields(register string) []Bitfield {
	byName := m.fields[register]
	if len(byName) == 0 {
		return nil
	}

	out := make([]Bitfield, 0, len(byName))
	for _, b := range byName {
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Offset != out[j].Offset {
			return out[i].Offset < out[j].Offset
		}

		return out[i].Name < out[j].Name
	})

	return out
}

func (m *RegisterMap) addBitfield(b Bitfield) {
	if m.fields == nil {
		m.fields = make(map[string]map[string]Bitfield)
	}

	if m.fields[b.Register] == nil {
		m.fields[b.Register] = make(map[string]Bitfield)
	}

	m.fields[b.Register][b.Name] = b
}

// Index holds the register maps of every imported peripheral, keyed by
// peripheral name.
type Index struct {
	byPeripheral map[string]*RegisterMap
	// sources remembers which document defined each peripheral, for
	// conflict reporting.
	sources map[string]string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		byPeripheral: make(map[string]*RegisterMap),
		sources:      make(map[string]string),
	}
}

// Peripheral looks up a register map by peripheral name.
func (x *Index) Peripheral(name string) (*RegisterMap, bool) {
	m, ok := x.byPeripheral[name]
	return m, ok
}

// Peripherals returns the imported peripheral names in sorted order.
func (x *Index) Peripherals() []string {
	names := make([]string, 0, len(x.byPeripheral))
	for name := range x.byPeripheral {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Add registers a peripheral map; a name already present is a fatal
// conflict. The source names the defining document for conflict reporting.
func (x *Index) Add(m *RegisterMap, source string) error {
	if prev, ok := x.sources[m.Peripheral]; ok {
		return conflictErr(source, "peripheral %s already defined by %s", m.Peripheral, prev)
	}

	x.byPeripheral[m.Peripheral] = m
	x.sources[m.Peripheral] = source

	return nil
}
