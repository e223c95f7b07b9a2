package generate

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"periphgen/internal/hwdesc"
	"periphgen/internal/manifest"
	"periphgen/internal/metadata"
	"periphgen/internal/render"
)

// Options configures one generation run.
type Options struct {
	// OutputDir is the artifact tree root.
	OutputDir string
	// ManifestPath is where the manifest is persisted; empty disables
	// persistence.
	ManifestPath string
	// Incremental skips artifacts whose inputs are unchanged.
	Incremental bool
	// Force regenerates everything regardless of the manifest.
	Force bool
	// Jobs bounds render workers; zero means one.
	Jobs int
	// MaxFailures aborts the run after this many descriptor failures;
	// zero means stop at the first.
	MaxFailures int
}

// Result summarizes one generation run.
type Result struct {
	// Written are the artifact paths rewritten this run, sorted.
	Written []string
	// Skipped are the up-to-date artifact paths, sorted.
	Skipped []string
	// Errors are the per-descriptor failures, at most MaxFailures.
	Errors   []error
	Duration time.Duration
}

// ArtifactPath returns the artifact path for a descriptor, relative to
// the output directory.
func ArtifactPath(desc *metadata.Descriptor) string {
	return filepath.Join(desc.Vendor, desc.Family, strings.ToLower(desc.Peripheral)+".hpp")
}

// dependencyNodes returns the manifest dependency chain for a descriptor,
// coarse to fine.
func dependencyNodes(desc *metadata.Descriptor) []string {
	return []string{
		desc.Vendor,
		desc.Vendor + "/" + desc.Family,
		desc.ID(),
	}
}

// hashedMethod carries the full policy-method content into the input
// hash. Descriptor marshaling drops method names (they are mapping keys
// on disk), so methods are serialized through this form instead.
type hashedMethod struct {
	Name        string                `yaml:"name"`
	Description string                `yaml:"description,omitempty"`
	Params      []metadata.Param      `yaml:"parameters,omitempty"`
	ReturnType  string                `yaml:"return_type,omitempty"`
	Ops         []metadata.RegisterOp `yaml:"code,omitempty"`
	TestHook    string                `yaml:"test_hook,omitempty"`
}

// inputHash digests everything a render depends on: the descriptor in
// canonical form, every policy method body, and the resolved register
// map. Serialization order is fixed, so equal inputs always hash equal.
func inputHash(desc *metadata.Descriptor, rm *hwdesc.RegisterMap) (string, error) {
	descBytes, err := yaml.Marshal(desc)
	if err != nil {
		return "", fmt.Errorf("hashing descriptor %s: %w", desc.ID(), err)
	}

	methods := make([]hashedMethod, len(desc.PolicyMethods))
	for i, pm := range desc.PolicyMethods {
		methods[i] = hashedMethod{
			Name:        pm.Name,
			Description: pm.Description,
			Params:      pm.Params,
			ReturnType:  pm.ReturnType,
			Ops:         pm.Ops,
			TestHook:    pm.TestHook,
		}
	}

	methodBytes, err := yaml.Marshal(methods)
	if err != nil {
		return "", fmt.Errorf("hashing policy methods of %s: %w", desc.ID(), err)
	}

	var rmBuf bytes.Buffer

	fmt.Fprintf(&rmBuf, "%s %#x\n", rm.Peripheral, rm.Base)

	for _, r := range rm.Registers {
		fmt.Fprintf(&rmBuf, "%s %#x %s\n", r.Name, r.Offset, r.Access)

		for _, b := range rm.Bitfields(r.Name) {
			fmt.Fprintf(&rmBuf, "  %s %d %d\n", b.Name, b.Offset, b.Width)
		}
	}

	return manifest.InputHash(descBytes, methodBytes, rmBuf.Bytes()), nil
}

// Run renders every descriptor into the output tree. Workers run
// concurrently up to Jobs; the manifest tracker serializes writers per
// artifact path.
func Run(ctx context.Context, gctx *Context, descs []*metadata.Descriptor, opts Options) (*Result, error) {
	start := time.Now()

	maxFailures := opts.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 1
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = 1
	}

	res := &Result{}

	var mu sync.Mutex

	g, runCtx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, desc := range descs {
		desc := desc
		g.Go(func() error {
			if err := runCtx.Err(); err != nil {
				return err
			}

			written, skipped, err := generateOne(gctx, desc, opts)

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				res.Errors = append(res.Errors, fmt.Errorf("%s: %w", desc.ID(), err))
				if len(res.Errors) >= maxFailures {
					return res.Errors[len(res.Errors)-1]
				}
			case written != "":
				res.Written = append(res.Written, written)
			default:
				res.Skipped = append(res.Skipped, skipped)
			}

			return nil
		})
	}

	err := g.Wait()

	sort.Strings(res.Written)
	sort.Strings(res.Skipped)

	res.Duration = time.Since(start)

	if opts.ManifestPath != "" {
		if serr := gctx.Tracker.Manifest().Save(opts.ManifestPath); serr != nil && err == nil {
			err = serr
		}
	}

	return res, err
}

// generateOne renders a single descriptor. It returns either the written
// path or the skipped path, relative to the output directory.
func generateOne(gctx *Context, desc *metadata.Descriptor, opts Options) (written, skipped string, err error) {
	rm, ok := gctx.Index.Peripheral(desc.RegisterInclude)
	if !ok {
		return "", "", fmt.Errorf("register include %q matches no imported peripheral", desc.RegisterInclude)
	}

	rel := ArtifactPath(desc)

	hash, err := inputHash(desc, rm)
	if err != nil {
		return "", "", err
	}

	if opts.Incremental && !opts.Force && !gctx.Tracker.ShouldRegenerate(rel, hash) {
		gctx.Logger.Debug("artifact up to date", "artifact", rel)
		return "", rel, nil
	}

	out, err := render.Render(desc, rm)
	if err != nil {
		return "", "", err
	}

	abs := filepath.Join(opts.OutputDir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", "", fmt.Errorf("creating artifact directory: %w", err)
	}

	if err := os.WriteFile(abs, []byte(out), 0o644); err != nil {
		return "", "", fmt.Errorf("writing artifact: %w", err)
	}

	if err := gctx.Tracker.Record(rel, manifest.HashBytes([]byte(out)), hash, dependencyNodes(desc)); err != nil {
		return "", "", err
	}

	gctx.Logger.Info("artifact generated", "artifact", rel, "peripheral", desc.Peripheral)

	return rel, "", nil
}
