package cmd

import (
	"fmt"
	"log/slog"

	"periphgen/internal/metadata"
)

// Lint checks metadata descriptors without generating anything.
type Lint struct {
	Metadata []string `arg:"" help:"Metadata descriptor files (YAML or TOML)" type:"existingfile"`
}

// Run implements the lint command.
func (c *Lint) Run(logger *slog.Logger) error {
	failed := 0

	for _, path := range c.Metadata {
		diags := metadata.Validate(path)

		for _, d := range diags.All {
			fmt.Println(d.String())
		}

		if diags.HasErrors() {
			failed++
		}
	}

	logger.Info("lint finished", "files", len(c.Metadata), "failed", failed)

	if failed > 0 {
		return fmt.Errorf("%d of %d descriptors failed lint", failed, len(c.Metadata))
	}

	return nil
}
