// Package hwdesc imports vendor-supplied hardware description documents
// (SVD-style XML) into normalized register maps: base addresses, register
// offsets and bitfield positions/widths, with a reverse index from names to
// positions. Multiple documents can be merged into one index; known vendor
// description bugs are corrected through declarative quirk overrides loaded
// from data files, never through inline code patches.
package hwdesc
