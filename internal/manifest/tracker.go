package manifest

import (
	"sort"
	"sync"
	"time"
)

// Tracker layers incremental-generation decisions and cascade
// invalidation over a manifest. It is safe for concurrent use: a global
// lock guards the manifest maps and the graph, and per-artifact locks
// serialize writers of the same path.
type Tracker struct {
	mu    sync.Mutex
	m     *Manifest
	graph *Graph
	paths map[string]*sync.Mutex

	now func() time.Time
}

// NewTracker wraps a loaded manifest. The dependency graph is rebuilt
// from the recorded artifact dependencies; an edge that cannot be
// restored (cycle from a hand-edited manifest) marks the artifact stale
// instead of failing.
func NewTracker(m *Manifest) *Tracker {
	t := &Tracker{
		m:     m,
		graph: NewGraph(),
		paths: make(map[string]*sync.Mutex),
		now:   time.Now,
	}

	for _, path := range m.Paths() {
		a := m.Artifacts[path]
		for _, dep := range a.Dependencies {
			if err := t.graph.AddDependency(path, dep); err != nil {
				a.Stale = true
				break
			}
		}
	}

	return t
}

// Manifest returns the underlying manifest for persistence.
func (t *Tracker) Manifest() *Manifest {
	return t.m
}

// pathLock returns the per-artifact writer lock, creating it on first use.
func (t *Tracker) pathLock(path string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.paths[path]
	if !ok {
		l = new(sync.Mutex)
		t.paths[path] = l
	}

	return l
}

// ShouldRegenerate reports whether the artifact at path must be rewritten
// for the given combined input hash. Unknown artifacts, stale artifacts
// and changed inputs all regenerate.
func (t *Tracker) ShouldRegenerate(path, inputHash string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.m.Artifacts[path]
	if !ok || a.Stale {
		return true
	}

	return a.SourceHashes["inputs"] != inputHash
}

// Record registers a freshly written artifact: its content hash, the
// combined input hash, and the metadata node ids it depends on. The
// dependency chain vendor -> vendor/family -> vendor/family/peripheral is
// wired into the graph so invalidating any ancestor reaches the artifact.
func (t *Tracker) Record(path, contentHash, inputHash string, deps []string) error {
	l := t.pathLock(path)
	l.Lock()
	defer l.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	t.graph.RemoveNode(path)

	for _, dep := range deps {
		if err := t.graph.AddDependency(path, dep); err != nil {
			return err
		}
	}

	// Chain the node ids themselves: vendor/family depends on vendor, and
	// so on, so a vendor-level invalidation cascades through families.
	for i := 1; i < len(deps); i++ {
		if t.graph.dependsOn[deps[i]][deps[i-1]] {
			continue
		}

		if err := t.graph.AddDependency(deps[i], deps[i-1]); err != nil {
			return err
		}
	}

	t.m.Artifacts[path] = &Artifact{
		Path:         path,
		ContentHash:  contentHash,
		SourceHashes: map[string]string{"inputs": inputHash},
		GeneratedAt:  t.now(),
		Dependencies: append([]string(nil), deps...),
	}

	return nil
}

// MarkValidated stamps the artifact as having passed validation. A stale
// or unknown artifact cannot be marked.
func (t *Tracker) MarkValidated(path string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.m.Artifacts[path]
	if !ok || a.Stale {
		return false
	}

	a.LastValidated = t.now()

	return true
}

// InvalidateCascade eagerly marks stale every artifact that transitively
// depends on id, plus id itself when it names an artifact. It returns the
// affected artifact paths in sorted order.
func (t *Tracker) InvalidateCascade(id string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	affected := t.graph.Dependents(id)

	var stale []string

	mark := func(path string) {
		if a, ok := t.m.Artifacts[path]; ok {
			a.Stale = true
			stale = append(stale, path)
		}
	}

	mark(id)

	for _, n := range affected {
		mark(n)
	}

	sort.Strings(stale)

	return stale
}
