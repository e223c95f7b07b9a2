package hwdesc

import (
	"encoding/xml"
	"strconv"
)

// The document model mirrors the relevant subset of the vendor XML schema.
// Numeric elements accept decimal, hex (0x…) and octal spellings, so they
// decode through flexible-base parsing instead of plain integer fields.

// Uint is a flexible-base unsigned XML integer.
type Uint uint

// UnmarshalXML implements xml.Unmarshaler.
func (u *Uint) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}

	v, err := strconv.ParseUint(s, 0, 0)
	*u = Uint(v)

	return err
}

// Uint64 is a flexible-base unsigned 64-bit XML integer.
type Uint64 uint64

// UnmarshalXML implements xml.Unmarshaler.
func (u *Uint64) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var s string
	if err := d.DecodeElement(&s, &start); err != nil {
		return err
	}

	v, err := strconv.ParseUint(s, 0, 64)
	*u = Uint64(v)

	return err
}

type document struct {
	XMLName     xml.Name         `xml:"device"`
	Vendor      string           `xml:"vendor"`
	Name        string           `xml:"name"`
	Peripherals []*docPeripheral `xml:"peripherals>peripheral"`
}

type docPeripheral struct {
	Name        string         `xml:"name"`
	Description string         `xml:"description"`
	BaseAddress Uint64         `xml:"baseAddress"`
	Registers   []*docRegister `xml:"registers>register"`
}

type docRegister struct {
	Name          string      `xml:"name"`
	Description   string      `xml:"description"`
	AddressOffset Uint64      `xml:"addressOffset"`
	Access        string      `xml:"access"`
	Dim           Uint        `xml:"dim"`
	DimIncrement  Uint64      `xml:"dimIncrement"`
	Fields        []*docField `xml:"fields>field"`
}

type docField struct {
	Name      string `xml:"name"`
	BitOffset Uint   `xml:"bitOffset"`
	BitWidth  *Uint  `xml:"bitWidth"`
}
