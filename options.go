// Package ntfslive provides read-only access to files, directories,
// and NTFS-specific metadata on a live, mounted NTFS volume by parsing
// the on-disk file system directly from a raw volume handle, recovering
// artifacts the OS would otherwise deny through an exclusive lock.
package ntfslive

// Options holds the per-session tunables from spec.md §3. It is
// immutable once an Accessor is constructed from it.
type Options struct {
	// BufferSize is the byte chunk used for stream-to-stream copying
	// and sparse-region scanning.
	BufferSize int
	// MaxLinkDepth caps transitive reparse-point following.
	MaxLinkDepth int
	// FollowRelativeLinks controls whether relative-target reparse
	// points are dereferenced.
	FollowRelativeLinks bool
	// FollowAbsoluteLinks controls whether absolute-target reparse
	// points are dereferenced.
	FollowAbsoluteLinks bool
}

const (
	defaultBufferSize   = 4 * 1024 * 1024
	defaultMaxLinkDepth = 10
)

// DefaultOptions returns the documented defaults: a 4 MiB copy buffer,
// a link-following depth cap of 10, relative links followed, absolute
// links not followed.
func DefaultOptions() Options {
	return Options{
		BufferSize:          defaultBufferSize,
		MaxLinkDepth:        defaultMaxLinkDepth,
		FollowRelativeLinks: true,
		FollowAbsoluteLinks: false,
	}
}

// Normalized fills in BufferSize and MaxLinkDepth when left at their
// Go zero value, so a caller who starts from a bare Options{} still
// gets sane sizing. The two boolean fields have no such fallback:
// FollowRelativeLinks defaults to true only via DefaultOptions(), since
// a zero-valued bool is indistinguishable from an explicit false.
// Callers who want the documented defaults should start from
// DefaultOptions() and override only the fields they care about.
func (opts Options) Normalized() Options {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultBufferSize
	}
	if opts.MaxLinkDepth <= 0 {
		opts.MaxLinkDepth = defaultMaxLinkDepth
	}
	return opts
}
