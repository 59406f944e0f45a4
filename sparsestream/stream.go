package sparsestream

import (
	"io"

	"golang.org/x/exp/slices"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/ntfsiface"
)

// Stream is a read-only byte-addressable view over a sparse file. Its
// total length equals the nominal file length; reads over unallocated
// ranges return 0 bytes and skip past the hole rather than
// zero-filling it, per spec.md §4.3.
type Stream struct {
	dense    io.ReadSeeker
	regions  []Region
	length   int64
	position int64
	// currentRegionIndex is the index of the region containing (or
	// immediately following) position, maintained incrementally by
	// Read and recomputed by Seek.
	currentRegionIndex int
	degraded           bool
}

// New builds a Stream over path, discovering its allocated regions via
// interp (extents preferred, content scan as fallback — see
// DiscoverRegions). fileLength is the file's nominal size from its
// FileRecord.
func New(interp ntfsiface.Interpreter, path string, fileLength int64) (*Stream, error) {
	regions, degraded, err := DiscoverRegions(interp, path, fileLength)
	if err != nil {
		return nil, err
	}

	dense, err := interp.OpenFile(path)
	if err != nil {
		return nil, err
	}

	return &Stream{
		dense:    dense,
		regions:  regions,
		length:   fileLength,
		degraded: degraded,
	}, nil
}

// Len returns the file's nominal length.
func (s *Stream) Len() int64 { return s.length }

// Position returns the current logical read cursor.
func (s *Stream) Position() int64 { return s.position }

// Degraded reports whether the region list was produced by the
// content-scanning fallback rather than real data-run extents.
func (s *Stream) Degraded() bool { return s.degraded }

// Regions returns the allocated regions backing this stream, for
// testable-property checks (spec.md §8 law 3).
func (s *Stream) Regions() []Region { return s.regions }

// Seek repositions the cursor and recomputes currentRegionIndex by
// binary search, per spec.md §4.3.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.position + offset
	case io.SeekEnd:
		target = s.length + offset
	default:
		return s.position, ntfserrors.Newf(ntfserrors.KindInvalidSeek, "unknown whence %d", whence)
	}
	if target < 0 {
		return s.position, ntfserrors.Newf(ntfserrors.KindInvalidSeek, "negative absolute position %d", target)
	}

	s.position = target
	s.currentRegionIndex, _ = slices.BinarySearchFunc(s.regions, target, regionEndCompare)
	return s.position, nil
}

// regionEndCompare orders Region against a target offset for
// slices.BinarySearchFunc: a region strictly ending at or before
// target sorts before it; the first region whose end extends past
// target is the match, mirroring the old sort.Search predicate.
func regionEndCompare(r Region, target int64) int {
	if r.StartOffset+r.Length <= target {
		return -1
	}
	return 0
}

// Read implements the §4.3 state machine: reads from the current
// region if the cursor lies inside it, skips forward to the next
// region if the cursor lies in a hole (returning fewer bytes than
// requested rather than erroring), and returns 0 once no region
// remains ahead of the cursor.
func (s *Stream) Read(buffer []byte) (int, error) {
	if s.position >= s.length {
		// Genuine end of stream: report io.EOF like any other Go
		// Reader, so callers driving this with a plain read loop (or
		// io.Copy) terminate. The hole-skip short read below is the
		// only case that returns (0, nil).
		return 0, io.EOF
	}

	if s.currentRegionIndex >= len(s.regions) {
		s.position = s.length
		return 0, io.EOF
	}

	region := s.regions[s.currentRegionIndex]

	if s.position < region.StartOffset {
		// Cursor is in a hole before the next region: skip to its
		// start and report a short read (0 bytes), per the §4.3 spec.
		s.position = region.StartOffset
		return 0, nil
	}

	regionEnd := region.StartOffset + region.Length
	if s.position >= regionEnd {
		// Shouldn't normally happen (Seek/Read keep this in sync) but
		// guard it by advancing to the next region defensively.
		s.currentRegionIndex++
		return s.Read(buffer)
	}

	available := regionEnd - s.position
	want := int64(len(buffer))
	if want > available {
		want = available
	}

	if _, err := s.dense.Seek(s.position, io.SeekStart); err != nil {
		return 0, sparseDeviceError(err)
	}

	n, err := io.ReadFull(s.dense, buffer[:want])
	if err != nil && err != io.ErrUnexpectedEOF {
		return n, sparseDeviceError(err)
	}

	s.position += int64(n)
	if s.position >= regionEnd {
		s.currentRegionIndex++
	}
	return n, nil
}

func sparseDeviceError(err error) error {
	return ntfserrors.New(ntfserrors.KindDeviceIO).Wrap(err)
}
