package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"periphgen/internal/generate"
	"periphgen/internal/metadata"
)

// Generate renders driver headers from metadata descriptors.
type Generate struct {
	HwdescFlags

	Metadata    []string `arg:"" help:"Metadata descriptor files (YAML or TOML)" type:"existingfile"`
	Out         string   `help:"Output directory root" default:"generated"`
	Manifest    string   `help:"Manifest path" default:"generated/manifest.yaml"`
	Incremental bool     `help:"Skip artifacts whose inputs are unchanged" default:"true" negatable:""`
	Force       bool     `help:"Regenerate everything regardless of the manifest"`
	Jobs        int      `help:"Concurrent render workers" default:"4"`
	MaxFailures int      `help:"Abort after this many descriptor failures" default:"1"`
	DumpState   bool     `help:"Dump the register map index and manifest after the run"`
}

// Run implements the generate command.
func (c *Generate) Run(logger *slog.Logger) error {
	idx, err := c.importIndex()
	if err != nil {
		return err
	}

	gctx := newContext(idx, openTracker(c.Manifest, logger), logger)

	descs := make([]*metadata.Descriptor, 0, len(c.Metadata))

	for _, path := range c.Metadata {
		d, err := gctx.LoadDescriptor(path)
		if err != nil {
			return err
		}

		descs = append(descs, d)
	}

	res, err := generate.Run(context.Background(), gctx, descs, generate.Options{
		OutputDir:    c.Out,
		ManifestPath: c.Manifest,
		Incremental:  c.Incremental,
		Force:        c.Force,
		Jobs:         c.Jobs,
		MaxFailures:  c.MaxFailures,
	})

	for _, gerr := range res.Errors {
		logger.Error("descriptor failed", "error", gerr)
	}

	logger.Info("generation finished",
		"written", len(res.Written), "skipped", len(res.Skipped),
		"failed", len(res.Errors), "duration", res.Duration)

	if c.DumpState {
		generate.DumpState(os.Stderr, gctx)
	}

	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	return nil
}
