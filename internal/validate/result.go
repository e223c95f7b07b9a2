package validate

import (
	"time"

	"periphgen/internal/diagnostic"
)

// StageID names one pipeline stage.
type StageID string

const (
	StageSyntax   StageID = "syntax"
	StageSemantic StageID = "semantic"
	StageCompile  StageID = "compile"
	StageTestEmit StageID = "testemit"
)

// StageOrder is the fixed execution order. A failing stage halts the
// pipeline for that artifact; later stages never run.
var StageOrder = []StageID{StageSyntax, StageSemantic, StageCompile, StageTestEmit}

// KnownStage reports whether id names a pipeline stage.
func KnownStage(id StageID) bool {
	for _, s := range StageOrder {
		if s == id {
			return true
		}
	}

	return false
}

// StageResult is the outcome of one stage on one artifact.
type StageResult struct {
	Stage       StageID
	Passed      bool
	Diagnostics []diagnostic.Diagnostic
	Duration    time.Duration
	// ObjectSize is the compiled object size in bytes; compile stage only.
	ObjectSize int64
}

// FileResult is the outcome of the whole pipeline on one artifact.
type FileResult struct {
	Path   string
	Passed bool
	Stages []StageResult
}

// Diagnostics flattens every stage's diagnostics.
func (r FileResult) Diagnostics() []diagnostic.Diagnostic {
	var out []diagnostic.Diagnostic
	for _, s := range r.Stages {
		out = append(out, s.Diagnostics...)
	}

	return out
}

// Summary aggregates a batch validation run.
type Summary struct {
	Passed   int
	Failed   int
	Files    []FileResult
	Duration time.Duration
}

// Add folds one file result into the summary.
func (s *Summary) Add(r FileResult) {
	s.Files = append(s.Files, r)

	if r.Passed {
		s.Passed++
	} else {
		s.Failed++
	}
}
