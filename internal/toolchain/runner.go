package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// ErrorKind classifies tool invocation failures.
type ErrorKind int

const (
	// ErrTimeout means the tool exceeded its deadline and was killed.
	ErrTimeout ErrorKind = iota
	// ErrNonZeroExit means the tool ran to completion but failed.
	ErrNonZeroExit
	// ErrToolNotFound means the tool binary is not on PATH.
	ErrToolNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case ErrTimeout:
		return "timeout"
	case ErrNonZeroExit:
		return "non-zero exit"
	case ErrToolNotFound:
		return "tool not found"
	}

	return "unknown"
}

// ToolError reports a failed tool invocation.
type ToolError struct {
	Kind   ErrorKind
	Tool   string
	Detail string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Tool, e.Kind, e.Detail)
}

// Result captures one tool invocation.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner invokes an external tool. argv[0] is the tool; a zero timeout
// means no deadline beyond ctx. On non-zero exit the Result is still
// populated so callers can parse diagnostics out of stderr.
type Runner interface {
	Run(ctx context.Context, argv []string, timeout time.Duration) (Result, error)
}

// ExecRunner runs tools as real subprocesses.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, argv []string, timeout time.Duration) (Result, error) {
	if len(argv) == 0 {
		return Result{}, &ToolError{Kind: ErrToolNotFound, Tool: "?", Detail: "empty command"}
	}

	tool := argv[0]

	runCtx := ctx

	if timeout > 0 {
		var cancel context.CancelFunc

		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, tool, argv[1:]...)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return res, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.ExitCode = -1

		return res, &ToolError{
			Kind:   ErrTimeout,
			Tool:   tool,
			Detail: fmt.Sprintf("killed after %s", timeout),
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()

		return res, &ToolError{
			Kind:   ErrNonZeroExit,
			Tool:   tool,
			Detail: fmt.Sprintf("exit status %d", res.ExitCode),
		}
	}

	res.ExitCode = -1

	if errors.Is(err, exec.ErrNotFound) {
		return res, &ToolError{Kind: ErrToolNotFound, Tool: tool, Detail: err.Error()}
	}

	return res, &ToolError{Kind: ErrToolNotFound, Tool: tool, Detail: err.Error()}
}
