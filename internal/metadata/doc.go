// Package metadata loads, schema-validates and normalizes declarative
// peripheral descriptors. Descriptors can be written in either of two
// interchangeable serializations (YAML or TOML); the loader detects the
// format by extension and falls back to content sniffing. Loading is pure:
// a descriptor is parsed, checked against the schema and returned, or a
// MetadataError is reported. Nothing is cached and nothing is written.
package metadata
