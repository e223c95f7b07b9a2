package cmd

import (
	"fmt"
	"log/slog"
)

// Invalidate marks an artifact or metadata node stale, cascading to every
// transitive dependent.
type Invalidate struct {
	ID       string `arg:"" help:"Artifact path or metadata node id (vendor, vendor/family, vendor/family/peripheral)"`
	Manifest string `help:"Manifest path" default:"generated/manifest.yaml"`
}

// Run implements the invalidate command.
func (c *Invalidate) Run(logger *slog.Logger) error {
	tracker := openTracker(c.Manifest, logger)

	stale := tracker.InvalidateCascade(c.ID)
	for _, path := range stale {
		fmt.Println(path)
	}

	if err := tracker.Manifest().Save(c.Manifest); err != nil {
		return err
	}

	logger.Info("invalidation finished", "node", c.ID, "stale", len(stale))

	return nil
}
