package common

import "fmt"

// UnknownStr is the fallback name for unrecognized enum values.
const UnknownStr = "unknown"

// Hex formats a value the way generated artifacts and diagnostics print
// addresses and masks: lowercase, 0x-prefixed, no padding.
func Hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
