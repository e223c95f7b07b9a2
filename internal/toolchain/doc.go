// Package toolchain runs external compiler tools with timeouts and maps
// their failures into a small typed error set. The validation pipeline
// depends only on the Runner interface, so tests substitute a fake.
package toolchain
