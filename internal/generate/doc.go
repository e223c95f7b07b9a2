// Package generate orchestrates the full pipeline: load descriptors,
// resolve register maps, render driver headers, track them in the
// manifest, and batch-validate the results.
package generate
