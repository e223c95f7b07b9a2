package validate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"periphgen/internal/diagnostic"
	"periphgen/internal/hwdesc"
	"periphgen/internal/toolchain"
)

// DefaultCompiler is the front end used when none is configured.
const DefaultCompiler = "g++"

// DefaultTimeout bounds each tool invocation.
const DefaultTimeout = 30 * time.Second

// Pipeline validates generated artifacts stage by stage. It never touches
// the manifest; recording validation outcomes is the caller's concern.
type Pipeline struct {
	// Runner invokes compiler tools; tests substitute a fake.
	Runner toolchain.Runner
	// Index is the imported register map index for semantic cross-checks.
	Index *hwdesc.Index
	// Compiler is the C++ front end binary.
	Compiler string
	// Std is the language standard flag value.
	Std string
	// Timeout bounds each tool invocation.
	Timeout time.Duration
	// WorkDir receives synthesized translation units and objects. Empty
	// means a fresh temp dir per artifact.
	WorkDir string
	// Only restricts the run to a single stage; empty runs all stages.
	Only StageID

	Logger *slog.Logger
}

// NewPipeline wires a pipeline with defaults filled in.
func NewPipeline(runner toolchain.Runner, idx *hwdesc.Index, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	return &Pipeline{
		Runner:   runner,
		Index:    idx,
		Compiler: DefaultCompiler,
		Std:      "c++17",
		Timeout:  DefaultTimeout,
		Logger:   logger,
	}
}

// Validate runs the stages in order against one artifact, halting at the
// first failing stage.
func (p *Pipeline) Validate(ctx context.Context, path string) FileResult {
	res := FileResult{Path: path, Passed: true}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Passed = false
		res.Stages = append(res.Stages, failedStage(StageSyntax, path, "reading artifact: "+err.Error()))

		return res
	}

	sym, err := ParseArtifact(data)
	if err != nil {
		res.Passed = false
		res.Stages = append(res.Stages, failedStage(StageSyntax, path, err.Error()))

		return res
	}

	for _, stage := range StageOrder {
		if p.Only != "" && stage != p.Only {
			continue
		}

		start := time.Now()
		sr := p.runStage(ctx, stage, path, sym)
		sr.Duration = time.Since(start)

		res.Stages = append(res.Stages, sr)

		p.Logger.Debug("validation stage finished",
			"artifact", path, "stage", stage, "passed", sr.Passed, "duration", sr.Duration)

		if !sr.Passed {
			res.Passed = false
			break
		}
	}

	return res
}

func (p *Pipeline) runStage(ctx context.Context, stage StageID, path string, sym *Symbols) StageResult {
	switch stage {
	case StageSyntax:
		return p.syntaxStage(ctx, path)
	case StageSemantic:
		return p.semanticStage(path, sym)
	case StageCompile:
		return p.compileStage(ctx, path, sym)
	case StageTestEmit:
		return p.testEmitStage(ctx, path, sym)
	}

	return failedStage(stage, path, fmt.Sprintf("unknown stage %q", stage))
}

// syntaxStage runs the front end in syntax-only mode over the artifact.
func (p *Pipeline) syntaxStage(ctx context.Context, path string) StageResult {
	argv := []string{p.Compiler, "-std=" + p.Std, "-fsyntax-only", "-x", "c++", path}

	return p.compilerStage(ctx, StageSyntax, path, argv)
}

// semanticStage cross-checks the artifact's embedded layout values against
// the imported register map. It runs no tools.
func (p *Pipeline) semanticStage(path string, sym *Symbols) StageResult {
	mismatches := CrossCheck(sym, p.Index)
	diags := semanticDiagnostics(path, mismatches)

	return StageResult{
		Stage:       StageSemantic,
		Passed:      len(mismatches) == 0,
		Diagnostics: diags,
	}
}

// compileStage compiles a synthesized translation unit that exercises
// every policy method, then records the object size.
func (p *Pipeline) compileStage(ctx context.Context, path string, sym *Symbols) StageResult {
	dir, cleanup, err := p.workDir()
	if err != nil {
		return failedStage(StageCompile, path, err.Error())
	}
	defer cleanup()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	tu := filepath.Join(dir, "harness.cpp")
	obj := filepath.Join(dir, "harness.o")

	if err := os.WriteFile(tu, []byte(compileHarness(abs, sym)), 0o644); err != nil {
		return failedStage(StageCompile, path, "writing harness: "+err.Error())
	}

	argv := []string{p.Compiler, "-std=" + p.Std, "-c", tu, "-o", obj}

	sr := p.compilerStage(ctx, StageCompile, path, argv)
	if !sr.Passed {
		return sr
	}

	if fi, err := os.Stat(obj); err == nil {
		sr.ObjectSize = fi.Size()
	}

	return sr
}

// testEmitStage writes the static-assert companion next to the work dir
// and syntax-checks it, proving every embedded value holds at compile time.
func (p *Pipeline) testEmitStage(ctx context.Context, path string, sym *Symbols) StageResult {
	dir, cleanup, err := p.workDir()
	if err != nil {
		return failedStage(StageTestEmit, path, err.Error())
	}
	defer cleanup()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	tu := filepath.Join(dir, "asserts.cpp")
	if err := os.WriteFile(tu, []byte(testHarness(abs, sym)), 0o644); err != nil {
		return failedStage(StageTestEmit, path, "writing assert companion: "+err.Error())
	}

	argv := []string{p.Compiler, "-std=" + p.Std, "-fsyntax-only", tu}

	return p.compilerStage(ctx, StageTestEmit, path, argv)
}

// compilerStage runs one compiler invocation and folds its outcome into a
// stage result. Non-zero exits surface the parsed compiler diagnostics;
// timeouts and missing tools surface the tool error itself.
func (p *Pipeline) compilerStage(ctx context.Context, stage StageID, path string, argv []string) StageResult {
	res, err := p.Runner.Run(ctx, argv, p.Timeout)

	diags := parseCompilerOutput(res.Stderr)

	if err != nil {
		if terr, ok := err.(*toolchain.ToolError); ok && terr.Kind == toolchain.ErrNonZeroExit {
			if len(diags) == 0 {
				diags = append(diags, diagnostic.Diagnostic{
					Severity: diagnostic.SeverityError,
					File:     path,
					Message:  terr.Error() + ": " + strings.TrimSpace(res.Stderr),
				})
			}

			return StageResult{Stage: stage, Passed: false, Diagnostics: diags}
		}

		return failedStage(stage, path, err.Error())
	}

	// A clean exit can still carry warnings.
	return StageResult{Stage: stage, Passed: !hasErrors(diags), Diagnostics: diags}
}

func (p *Pipeline) workDir() (string, func(), error) {
	if p.WorkDir != "" {
		if err := os.MkdirAll(p.WorkDir, 0o755); err != nil {
			return "", nil, fmt.Errorf("creating work dir: %w", err)
		}

		return p.WorkDir, func() {}, nil
	}

	dir, err := os.MkdirTemp("", "periphgen-validate-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating work dir: %w", err)
	}

	return dir, func() { os.RemoveAll(dir) }, nil
}

func failedStage(stage StageID, path, msg string) StageResult {
	return StageResult{
		Stage:  stage,
		Passed: false,
		Diagnostics: []diagnostic.Diagnostic{{
			Severity: diagnostic.SeverityError,
			File:     path,
			Message:  msg,
		}},
	}
}
