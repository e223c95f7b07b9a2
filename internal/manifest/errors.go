package manifest

import "fmt"

// ErrorKind classifies manifest cache failures.
type ErrorKind int

const (
	// ErrCorrupt means the manifest file exists but cannot be decoded.
	ErrCorrupt ErrorKind = iota
	// ErrUnreadable means the manifest file cannot be read at all.
	ErrUnreadable
)

func (k ErrorKind) String() string {
	switch k {
	case ErrCorrupt:
		return "corrupt"
	case ErrUnreadable:
		return "unreadable"
	}

	return "unknown"
}

// CacheError reports a manifest load failure. Loads degrade rather than
// abort: the caller gets an empty manifest with everything stale, plus the
// CacheError describing why.
type CacheError struct {
	Kind   ErrorKind
	Path   string
	Detail string
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("manifest %s: %s cache: %s", e.Path, e.Kind, e.Detail)
}
