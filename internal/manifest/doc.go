// Package manifest tracks generated artifacts across runs: what was
// generated from which inputs, whether it is stale, and which artifacts
// depend on which metadata nodes. It backs incremental generation and
// cascade invalidation.
package manifest
