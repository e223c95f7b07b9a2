package generate

import (
	"log/slog"
	"sync"

	"periphgen/internal/hwdesc"
	"periphgen/internal/manifest"
	"periphgen/internal/metadata"
)

// Context carries the state one generation run works against: the
// descriptor cache, the imported register map index and the manifest
// tracker. All cross-run state lives here, nowhere else, so a fresh
// Context (or Reset) means a fully cold run.
type Context struct {
	Index   *hwdesc.Index
	Tracker *manifest.Tracker
	Logger  *slog.Logger

	mu          sync.Mutex
	descriptors map[string]*metadata.Descriptor
}

// NewContext wires a generation context.
func NewContext(idx *hwdesc.Index, tracker *manifest.Tracker, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}

	return &Context{
		Index:       idx,
		Tracker:     tracker,
		Logger:      logger,
		descriptors: make(map[string]*metadata.Descriptor),
	}
}

// LoadDescriptor parses and caches a descriptor by file path.
func (c *Context) LoadDescriptor(path string) (*metadata.Descriptor, error) {
	c.mu.Lock()
	if d, ok := c.descriptors[path]; ok {
		c.mu.Unlock()
		return d, nil
	}
	c.mu.Unlock()

	d, err := metadata.Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.descriptors[path] = d
	c.mu.Unlock()

	return d, nil
}

// Reset drops the descriptor cache.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.descriptors = make(map[string]*metadata.Descriptor)
}
