package generate

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"periphgen/internal/validate"
)

// ValidateBatch runs the validation pipeline over a set of artifact paths
// (relative to outputDir), up to jobs at a time, and folds the outcomes
// into a summary. Artifacts that pass every stage are stamped in the
// manifest; failures leave the manifest untouched.
func ValidateBatch(ctx context.Context, gctx *Context, p *validate.Pipeline, outputDir string, paths []string, jobs int) *validate.Summary {
	start := time.Now()

	if jobs <= 0 {
		jobs = 1
	}

	results := make([]validate.FileResult, len(paths))

	g, runCtx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, rel := range paths {
		i, rel := i, rel
		g.Go(func() error {
			results[i] = p.Validate(runCtx, joinArtifact(outputDir, rel))
			results[i].Path = rel

			return nil
		})
	}

	// Workers never return errors; failures land in their FileResult.
	_ = g.Wait()

	summary := &validate.Summary{}

	for _, r := range results {
		summary.Add(r)

		if r.Passed {
			gctx.Tracker.MarkValidated(r.Path)
		} else {
			gctx.Logger.Warn("artifact failed validation",
				"artifact", r.Path, "diagnostics", len(r.Diagnostics()))
		}
	}

	summary.Duration = time.Since(start)

	return summary
}
