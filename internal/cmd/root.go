// Package cmd defines the periphgen command line surface. Each subcommand
// is a kong command struct with a Run method; main only parses and
// dispatches.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"periphgen/internal/generate"
	"periphgen/internal/hwdesc"
	"periphgen/internal/manifest"
)

// CLI is the root command tree.
type CLI struct {
	Log LogFlags `embed:"" prefix:"log-"`

	Generate   Generate   `cmd:"" help:"Render driver headers from metadata descriptors"`
	Validate   Validate   `cmd:"" help:"Run generated headers through the validation pipeline"`
	Lint       Lint       `cmd:"" help:"Check metadata descriptors without generating"`
	Import     Import     `cmd:"" help:"Import hardware descriptions and print the register maps"`
	Invalidate Invalidate `cmd:"" help:"Mark an artifact or metadata node stale, cascading to dependents"`
}

// LogFlags configures the slog handler.
type LogFlags struct {
	Level  string `help:"Log level" enum:"debug,info,warn,error" default:"info"`
	Format string `help:"Log format" enum:"text,json" default:"text"`
}

// SetupLogger builds the process logger from the log flags.
func (f LogFlags) SetupLogger() *slog.Logger {
	var level slog.Level

	switch f.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if f.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}

// HwdescFlags are shared by every command that needs register maps.
type HwdescFlags struct {
	Hwdesc []string `help:"Hardware description documents to import" type:"existingfile"`
	Quirks string   `help:"Quirk override file applied after import" type:"existingfile"`
}

func (f HwdescFlags) importIndex() (*hwdesc.Index, error) {
	if len(f.Hwdesc) == 0 {
		return nil, fmt.Errorf("at least one --hwdesc document is required")
	}

	return hwdesc.ImportAll(f.Hwdesc, f.Quirks)
}

// openTracker loads the manifest (degrading on cache errors) and wraps it
// in a tracker.
func openTracker(path string, logger *slog.Logger) *manifest.Tracker {
	m, err := manifest.Load(path)
	if err != nil {
		// Corrupt or unreadable caches degrade to a cold run.
		logger.Warn("manifest cache unusable, regenerating everything", "error", err)
		m.AllStale()
	}

	return manifest.NewTracker(m)
}

func newContext(idx *hwdesc.Index, tracker *manifest.Tracker, logger *slog.Logger) *generate.Context {
	return generate.NewContext(idx, tracker, logger)
}
