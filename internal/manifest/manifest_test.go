package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputHashLengthPrefixed(t *testing.T) {
	a := InputHash([]byte("ab"), []byte("c"))
	b := InputHash([]byte("a"), []byte("bc"))

	assert.NotEqual(t, a, b, "part boundaries must influence the hash")
	assert.Equal(t, a, InputHash([]byte("ab"), []byte("c")))
}

func TestManifestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")

	m := New()
	m.Artifacts["st/stm32f4/uart.hpp"] = &Artifact{
		Path:         "st/stm32f4/uart.hpp",
		ContentHash:  HashBytes([]byte("content")),
		SourceHashes: map[string]string{"inputs": "abc"},
		Dependencies: []string{"st", "st/stm32f4", "st/stm32f4/uart"},
	}

	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Artifacts, 1)

	a := loaded.Artifacts["st/stm32f4/uart.hpp"]
	require.NotNil(t, a)
	assert.Equal(t, m.Artifacts["st/stm32f4/uart.hpp"].ContentHash, a.ContentHash)
	assert.Equal(t, []string{"st", "st/stm32f4", "st/stm32f4/uart"}, a.Dependencies)
}

func TestLoadMissingFile(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, m.Artifacts)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o644))

	m, err := Load(path)
	require.Error(t, err)

	cerr, ok := err.(*CacheError)
	require.True(t, ok)
	assert.Equal(t, ErrCorrupt, cerr.Kind)

	// Degraded but usable.
	require.NotNil(t, m)
	assert.Empty(t, m.Artifacts)
}

func TestLoadVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 99\nartifacts: {}\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)

	cerr, ok := err.(*CacheError)
	require.True(t, ok)
	assert.Equal(t, ErrCorrupt, cerr.Kind)
}

func TestGraphRejectsCycles(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddDependency("b", "a"))
	require.NoError(t, g.AddDependency("c", "b"))

	assert.Error(t, g.AddDependency("a", "c"))
	assert.Error(t, g.AddDependency("a", "a"))
}

func TestGraphDependents(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddDependency("st/stm32f4", "st"))
	require.NoError(t, g.AddDependency("st/stm32f4/uart", "st/stm32f4"))
	require.NoError(t, g.AddDependency("st/stm32f4/uart.hpp", "st/stm32f4/uart"))
	require.NoError(t, g.AddDependency("st/stm32f4/spi.hpp", "st/stm32f4"))
	require.NoError(t, g.AddDependency("nxp/imx8", "nxp"))

	assert.Equal(t,
		[]string{"st/stm32f4", "st/stm32f4/spi.hpp", "st/stm32f4/uart", "st/stm32f4/uart.hpp"},
		g.Dependents("st"))
	assert.Equal(t, []string{"st/stm32f4/uart.hpp"}, g.Dependents("st/stm32f4/uart"))
	assert.Empty(t, g.Dependents("st/stm32f4/uart.hpp"))
	assert.Empty(t, g.Dependents("nowhere"))
}

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()

	tr := NewTracker(New())

	deps := func(vendor, family, periph string) []string {
		return []string{vendor, vendor + "/" + family, vendor + "/" + family + "/" + periph}
	}

	require.NoError(t, tr.Record("st/stm32f4/uart.hpp", "h1", "i1", deps("st", "stm32f4", "uart")))
	require.NoError(t, tr.Record("st/stm32f4/spi.hpp", "h2", "i2", deps("st", "stm32f4", "spi")))
	require.NoError(t, tr.Record("st/stm32g0/uart.hpp", "h3", "i3", deps("st", "stm32g0", "uart")))
	require.NoError(t, tr.Record("nxp/imx8/uart.hpp", "h4", "i4", deps("nxp", "imx8", "uart")))

	return tr
}

func TestTrackerShouldRegenerate(t *testing.T) {
	tr := newTestTracker(t)

	assert.False(t, tr.ShouldRegenerate("st/stm32f4/uart.hpp", "i1"), "unchanged inputs stay fresh")
	assert.True(t, tr.ShouldRegenerate("st/stm32f4/uart.hpp", "i1-changed"))
	assert.True(t, tr.ShouldRegenerate("st/stm32f4/adc.hpp", "i9"), "unknown artifacts regenerate")
}

// Invalidating a node must mark exactly its transitive dependents stale,
// nothing more.
func TestTrackerCascadeExactness(t *testing.T) {
	tr := newTestTracker(t)

	stale := tr.InvalidateCascade("st/stm32f4")
	assert.Equal(t, []string{"st/stm32f4/spi.hpp", "st/stm32f4/uart.hpp"}, stale)

	assert.True(t, tr.ShouldRegenerate("st/stm32f4/uart.hpp", "i1"))
	assert.True(t, tr.ShouldRegenerate("st/stm32f4/spi.hpp", "i2"))

	// Siblings under other families and vendors are untouched.
	assert.False(t, tr.ShouldRegenerate("st/stm32g0/uart.hpp", "i3"))
	assert.False(t, tr.ShouldRegenerate("nxp/imx8/uart.hpp", "i4"))
}

func TestTrackerVendorCascadeReachesAllFamilies(t *testing.T) {
	tr := newTestTracker(t)

	stale := tr.InvalidateCascade("st")
	assert.Equal(t,
		[]string{"st/stm32f4/spi.hpp", "st/stm32f4/uart.hpp", "st/stm32g0/uart.hpp"},
		stale)

	assert.False(t, tr.ShouldRegenerate("nxp/imx8/uart.hpp", "i4"))
}

func TestTrackerRecordClearsStale(t *testing.T) {
	tr := newTestTracker(t)

	tr.InvalidateCascade("st/stm32f4/uart")
	require.True(t, tr.ShouldRegenerate("st/stm32f4/uart.hpp", "i1"))

	require.NoError(t, tr.Record("st/stm32f4/uart.hpp", "h1b", "i1b",
		[]string{"st", "st/stm32f4", "st/stm32f4/uart"}))

	assert.False(t, tr.ShouldRegenerate("st/stm32f4/uart.hpp", "i1b"))
}

func TestTrackerMarkValidated(t *testing.T) {
	tr := newTestTracker(t)

	assert.True(t, tr.MarkValidated("st/stm32f4/uart.hpp"))
	assert.False(t, tr.Manifest().Artifacts["st/stm32f4/uart.hpp"].LastValidated.IsZero())

	tr.InvalidateCascade("st/stm32f4/uart")
	assert.False(t, tr.MarkValidated("st/stm32f4/uart.hpp"), "stale artifacts cannot be marked")
	assert.False(t, tr.MarkValidated("unknown.hpp"))
}

func TestTrackerRebuildsGraphFromManifest(t *testing.T) {
	tr := newTestTracker(t)
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, tr.Manifest().Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	tr2 := NewTracker(loaded)

	stale := tr2.InvalidateCascade("st/stm32f4")
	assert.Equal(t, []string{"st/stm32f4/spi.hpp", "st/stm32f4/uart.hpp"}, stale)
}
