package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/davecgh/go-spew/spew"

	"periphgen/internal/common"
)

// Import imports hardware descriptions and prints the resulting register
// maps, mainly for inspecting quirk application.
type Import struct {
	HwdescFlags

	Dump bool `help:"Dump the full register map structures"`
}

// Run implements the import command.
func (c *Import) Run(logger *slog.Logger) error {
	idx, err := c.importIndex()
	if err != nil {
		return err
	}

	for _, name := range idx.Peripherals() {
		rm, _ := idx.Peripheral(name)

		fmt.Printf("%s @ %s (%d registers)\n", name, common.Hex(rm.Base), len(rm.Registers))

		for _, r := range rm.Registers {
			fmt.Printf("  %-12s %-8s %s\n", r.Name, common.Hex(r.Offset), r.Access)

			for _, b := range rm.Bitfields(r.Name) {
				fmt.Printf("    %-12s pos %-3d width %-3d mask %s\n",
					b.Name, b.Offset, b.Width, common.Hex(b.Mask()))
			}
		}
	}

	if c.Dump {
		cfg := spew.ConfigState{Indent: "  ", SortKeys: true}
		for _, name := range idx.Peripherals() {
			rm, _ := idx.Peripheral(name)
			cfg.Fdump(os.Stdout, rm)
		}
	}

	logger.Info("import finished", "peripherals", len(idx.Peripherals()))

	return nil
}
