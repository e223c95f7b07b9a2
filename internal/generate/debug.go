package generate

import (
	"io"
	"path/filepath"

	"github.com/davecgh/go-spew/spew"
)

func joinArtifact(outputDir, rel string) string {
	if outputDir == "" {
		return rel
	}

	return filepath.Join(outputDir, rel)
}

// DumpState writes the generation context and manifest to w for
// debugging incremental-build surprises.
func DumpState(w io.Writer, gctx *Context) {
	cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisableMethods: true}

	cfg.Fdump(w, "index peripherals:", gctx.Index.Peripherals())
	cfg.Fdump(w, "manifest:", gctx.Tracker.Manifest())
}
