package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Symbols is the layout information parsed back out of a generated header.
// The renderer writes each register constant with a trailing comment naming
// what it encodes; parsing those comments is how the semantic stage
// cross-checks an artifact without a C++ front end.
type Symbols struct {
	Peripheral string
	Vendor     string
	Family     string
	Struct     string

	Base      uint64
	Registers []RegisterSym
	Bitfields []BitfieldSym
	Methods   []MethodSym
	Instances []InstanceSym
}

// RegisterSym is one emitted register offset constant.
type RegisterSym struct {
	Name   string
	Offset uint64
}

// BitfieldSym is one emitted bitfield constant triple.
type BitfieldSym struct {
	Register string
	Name     string
	Pos      uint64
	Width    uint64
	Mask     uint64
}

// MethodSym is one emitted policy method signature.
type MethodSym struct {
	Name   string
	Return string
	// Params is the number of parameters; the synthesized translation unit
	// passes a zero for each.
	Params int
}

// InstanceSym is one emitted instance alias.
type InstanceSym struct {
	Name string
	Args []string
}

// Namespace returns the C++ namespace the driver lives in.
func (s *Symbols) Namespace() string {
	return s.Vendor + "::" + s.Family
}

var (
	headerRe   = regexp.MustCompile(`^// peripheral (\S+) \(vendor (\S+), family (\S+)\)$`)
	structRe   = regexp.MustCompile(`^struct (\w+) \{$`)
	baseRe     = regexp.MustCompile(`= (0x[0-9a-fA-F]+)u; // base address$`)
	offsetRe   = regexp.MustCompile(`= (0x[0-9a-fA-F]+)u; // register (\w+) offset$`)
	posRe      = regexp.MustCompile(`= (\d+)u; // bitfield (\w+)\.(\w+) position$`)
	widthRe    = regexp.MustCompile(`= (\d+)u; // bitfield (\w+)\.(\w+) width$`)
	maskRe     = regexp.MustCompile(`= (0x[0-9a-fA-F]+)u; // bitfield (\w+)\.(\w+) mask$`)
	methodRe   = regexp.MustCompile(`^  static (\S+) (\w+)\(([^)]*)\) \{$`)
	instanceRe = regexp.MustCompile(`^using (\w+) = (\w+)<(.*)>;$`)
)

// ParseArtifact recovers the Symbols of a generated header from its text.
// It fails on artifacts missing the structural markers, which means either
// hand-edited output or a foreign file.
func ParseArtifact(data []byte) (*Symbols, error) {
	sym := &Symbols{}
	fields := map[string]*BitfieldSym{}

	fieldFor := func(register, name string) *BitfieldSym {
		key := register + "." + name
		if b, ok := fields[key]; ok {
			return b
		}

		sym.Bitfields = append(sym.Bitfields, BitfieldSym{Register: register, Name: name})
		b := &sym.Bitfields[len(sym.Bitfields)-1]
		fields[key] = b

		return b
	}

	for _, line := range strings.Split(string(data), "\n") {
		switch {
		case headerRe.MatchString(line):
			m := headerRe.FindStringSubmatch(line)
			sym.Peripheral, sym.Vendor, sym.Family = m[1], m[2], m[3]

		case structRe.MatchString(line):
			if sym.Struct == "" {
				sym.Struct = structRe.FindStringSubmatch(line)[1]
			}

		case baseRe.MatchString(line):
			m := baseRe.FindStringSubmatch(line)
			sym.Base = parseHex(m[1])

		case offsetRe.MatchString(line):
			m := offsetRe.FindStringSubmatch(line)
			sym.Registers = append(sym.Registers, RegisterSym{Name: m[2], Offset: parseHex(m[1])})

		case posRe.MatchString(line):
			m := posRe.FindStringSubmatch(line)
			fieldFor(m[2], m[3]).Pos = parseDec(m[1])

		case widthRe.MatchString(line):
			m := widthRe.FindStringSubmatch(line)
			fieldFor(m[2], m[3]).Width = parseDec(m[1])

		case maskRe.MatchString(line):
			m := maskRe.FindStringSubmatch(line)
			fieldFor(m[2], m[3]).Mask = parseHex(m[1])

		case methodRe.MatchString(line):
			m := methodRe.FindStringSubmatch(line)

			params := 0
			if strings.TrimSpace(m[3]) != "" {
				params = strings.Count(m[3], ",") + 1
			}

			sym.Methods = append(sym.Methods, MethodSym{Name: m[2], Return: m[1], Params: params})

		case instanceRe.MatchString(line):
			m := instanceRe.FindStringSubmatch(line)

			var args []string
			for _, a := range strings.Split(m[3], ",") {
				args = append(args, strings.TrimSpace(a))
			}

			sym.Instances = append(sym.Instances, InstanceSym{Name: m[1], Args: args})
		}
	}

	if sym.Peripheral == "" {
		return nil, fmt.Errorf("not a generated driver header: peripheral marker missing")
	}

	if sym.Struct == "" {
		return nil, fmt.Errorf("not a generated driver header: policy struct missing")
	}

	return sym, nil
}

func parseHex(s string) uint64 {
	v, _ := strconv.ParseUint(s, 0, 64)
	return v
}

func parseDec(s string) uint64 {
	v, _ := strconv.ParseUint(s, 10, 64)
	return v
}
