package ntfslive

import (
	"io"
	"time"
)

// Destination is the host collaborator spec.md §6 describes for copy's
// output side: the core never opens a destination file itself, it
// only asks the host to create directories, primary streams, and
// ADS-capable streams, then writes bytes into whatever the host hands
// back.
type Destination interface {
	// Exists reports whether path already exists at the destination.
	Exists(path string) bool

	// EnsureDir creates path and any missing parents, as a directory.
	EnsureDir(path string) error

	// CreatePrimary creates (or truncates) path's primary stream for
	// writing.
	CreatePrimary(path string) (io.WriteCloser, error)

	// CreateADS creates a named alternate data stream on path, using
	// the host's native ADS-capable file-open. The core never creates
	// ADS on the destination on its own.
	CreateADS(path, adsName string) (io.WriteCloser, error)

	// SetTimestamps propagates creation/last-write/last-access times
	// to the destination object at path. Failure here is logged and
	// treated as non-fatal by callers (spec.md §4.6 step 4d).
	SetTimestamps(path string, creation, lastWrite, lastAccess time.Time) error

	// SetAttributes best-effort propagates the subset of attrs that
	// are meaningful at the destination. Failure here is logged and
	// treated as non-fatal by callers.
	SetAttributes(path string, attrs Attributes) error
}
