package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periphgen/internal/generate"
	"periphgen/internal/toolchain"
	"periphgen/internal/validate"
)

// Validate runs generated headers through the staged validation pipeline.
type Validate struct {
	HwdescFlags

	Artifacts []string      `arg:"" optional:"" help:"Artifact paths relative to --out; defaults to every manifest entry"`
	Out       string        `help:"Output directory root" default:"generated"`
	Manifest  string        `help:"Manifest path" default:"generated/manifest.yaml"`
	Compiler  string        `help:"C++ front end" default:"g++"`
	Std       string        `help:"C++ language standard" default:"c++17"`
	Timeout   time.Duration `help:"Per-tool timeout" default:"30s"`
	Stage     string        `help:"Run only one stage" enum:",syntax,semantic,compile,testemit" default:""`
	Jobs      int           `help:"Concurrent validation workers" default:"4"`
}

// Run implements the validate command.
func (c *Validate) Run(logger *slog.Logger) error {
	if c.Stage != "" && !validate.KnownStage(validate.StageID(c.Stage)) {
		return fmt.Errorf("unknown stage %q", c.Stage)
	}

	idx, err := c.importIndex()
	if err != nil {
		return err
	}

	tracker := openTracker(c.Manifest, logger)
	gctx := newContext(idx, tracker, logger)

	paths := c.Artifacts
	if len(paths) == 0 {
		paths = tracker.Manifest().Paths()
	}

	if len(paths) == 0 {
		return fmt.Errorf("nothing to validate: no artifacts given and the manifest is empty")
	}

	p := validate.NewPipeline(toolchain.ExecRunner{}, idx, logger)
	p.Compiler = c.Compiler
	p.Std = c.Std
	p.Timeout = c.Timeout
	p.Only = validate.StageID(c.Stage)

	summary := generate.ValidateBatch(context.Background(), gctx, p, c.Out, paths, c.Jobs)

	for _, f := range summary.Files {
		for _, d := range f.Diagnostics() {
			fmt.Println(d.String())
		}
	}

	logger.Info("validation finished",
		"passed", summary.Passed, "failed", summary.Failed, "duration", summary.Duration)

	if err := tracker.Manifest().Save(c.Manifest); err != nil {
		return err
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d artifacts failed validation", summary.Failed, len(summary.Files))
	}

	return nil
}
