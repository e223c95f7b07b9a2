package toolchain

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireToolError(t *testing.T, err error, kind ErrorKind) *ToolError {
	t.Helper()
	require.Error(t, err)

	terr, ok := err.(*ToolError)
	require.True(t, ok, "expected *ToolError, got %T: %v", err, err)
	require.Equal(t, kind, terr.Kind)

	return terr
}

func TestRunSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell tools")
	}

	res, err := ExecRunner{}.Run(context.Background(), []string{"sh", "-c", "echo hello"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, 0, res.ExitCode)
	assert.Greater(t, res.Duration, time.Duration(0))
}

func TestRunNonZeroExitKeepsOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell tools")
	}

	res, err := ExecRunner{}.Run(context.Background(),
		[]string{"sh", "-c", "echo oops >&2; exit 3"}, 0)

	terr := requireToolError(t, err, ErrNonZeroExit)
	assert.Equal(t, "sh", terr.Tool)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "oops\n", res.Stderr, "stderr must survive failed runs for diagnostic parsing")
}

func TestRunTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell tools")
	}

	_, err := ExecRunner{}.Run(context.Background(),
		[]string{"sh", "-c", "sleep 5"}, 50*time.Millisecond)

	requireToolError(t, err, ErrTimeout)
}

func TestRunToolNotFound(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(),
		[]string{"definitely-not-a-real-tool-xyz"}, 0)

	requireToolError(t, err, ErrToolNotFound)
}

func TestRunEmptyCommand(t *testing.T) {
	_, err := ExecRunner{}.Run(context.Background(), nil, 0)
	requireToolError(t, err, ErrToolNotFound)
}
