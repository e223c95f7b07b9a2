package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// formatVersion guards against decoding manifests written by an
// incompatible tool version.
const formatVersion = 1

// Artifact is the recorded state of one generated file.
type Artifact struct {
	// Path is the artifact path relative to the output directory.
	Path string `yaml:"path"`
	// ContentHash is the hex sha256 of the artifact as written.
	ContentHash string `yaml:"content_hash"`
	// SourceHashes maps each input (descriptor file, register map) to the
	// input hash it had when the artifact was generated.
	SourceHashes map[string]string `yaml:"source_hashes"`
	// GeneratedAt is when the artifact was last written.
	GeneratedAt time.Time `yaml:"generated_at"`
	// Dependencies are the metadata node ids this artifact was generated
	// from (vendor, vendor/family, vendor/family/peripheral).
	Dependencies []string `yaml:"dependencies"`
	// Stale marks the artifact for regeneration regardless of hashes.
	Stale bool `yaml:"stale,omitempty"`
	// LastValidated is when the artifact last passed the full validation
	// pipeline; zero if it never has.
	LastValidated time.Time `yaml:"last_validated,omitempty"`
}

// Manifest is the persisted generation state.
type Manifest struct {
	Version int `yaml:"version"`
	// Artifacts is keyed by artifact path.
	Artifacts map[string]*Artifact `yaml:"artifacts"`
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{
		Version:   formatVersion,
		Artifacts: make(map[string]*Artifact),
	}
}

// Paths returns the recorded artifact paths in sorted order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Artifacts))
	for p := range m.Artifacts {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

// AllStale marks every recorded artifact stale.
func (m *Manifest) AllStale() {
	for _, a := range m.Artifacts {
		a.Stale = true
	}
}

// Load reads a manifest from path. A missing file is not an error: it
// yields an empty manifest. A corrupt or unreadable file also yields a
// usable manifest with everything stale, alongside a CacheError so the
// caller can warn.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}

		return New(), &CacheError{Kind: ErrUnreadable, Path: path, Detail: err.Error()}
	}

	m := New()
	if err := yaml.Unmarshal(data, m); err != nil {
		return New(), &CacheError{Kind: ErrCorrupt, Path: path, Detail: err.Error()}
	}

	if m.Version != formatVersion {
		return New(), &CacheError{
			Kind:   ErrCorrupt,
			Path:   path,
			Detail: fmt.Sprintf("unsupported manifest version %d", m.Version),
		}
	}

	if m.Artifacts == nil {
		m.Artifacts = make(map[string]*Artifact)
	}

	return m, nil
}

// Save writes the manifest atomically: temp file in the same directory,
// then rename.
func (m *Manifest) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return fmt.Errorf("creating manifest temp file: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("writing manifest: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("closing manifest temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("replacing manifest: %w", err)
	}

	return nil
}
