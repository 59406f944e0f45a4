// Package volumestream implements the byte-addressable, seekable,
// read-only view over a sector device (C2), batching aligned sector
// reads the way the teacher's BlockStream batches block reads.
package volumestream

import (
	"io"

	"github.com/xaionaro-go/bytesextra"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/sectordevice"
)

// maxBatchSectors caps how many whole sectors are read from the device
// in one ReadSectors call, amortizing per-sector device overhead
// without growing the scratch buffer unreasonably for large requests.
const maxBatchSectors = 128

// Stream is a read-only byte cursor over a sectordevice.Device. It is
// not safe for concurrent use, matching the single-threaded-per-handle
// model the rest of the stack assumes.
type Stream struct {
	device   sectordevice.Device
	position int64
	length   int64
}

// New creates a Stream over device, with its logical length equal to
// the full addressable span of the device (sectorSize * sectorCount).
func New(device sectordevice.Device) *Stream {
	length := int64(device.SectorSize()) * int64(device.SectorCount())
	return &Stream{device: device, length: length}
}

// Len returns the total addressable length of the volume, in bytes.
func (s *Stream) Len() int64 { return s.length }

// Position returns the current read cursor, in bytes from the start.
func (s *Stream) Position() int64 { return s.position }

// Seek repositions the cursor. Only absolute, unchecked arithmetic is
// performed; a negative resulting position fails with InvalidSeek.
// Writes and length changes are not supported by this stream at all
// (there is no Write/Truncate method), matching spec.md §4.2.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case 0: // io.SeekStart
		target = offset
	case 1: // io.SeekCurrent
		target = s.position + offset
	case 2: // io.SeekEnd
		target = s.length + offset
	default:
		return s.position, ntfserrors.Newf(ntfserrors.KindInvalidSeek, "unknown whence %d", whence)
	}
	if target < 0 {
		return s.position, ntfserrors.Newf(ntfserrors.KindInvalidSeek, "negative absolute position %d", target)
	}
	s.position = target
	return s.position, nil
}

// Read implements the §4.2 read algorithm: an unaligned leading tail,
// batches of up to maxBatchSectors whole sectors, and an unaligned
// trailing head, all clamped to the remaining volume length.
func (s *Stream) Read(buffer []byte) (int, error) {
	if s.position >= s.length {
		return 0, nil
	}

	remaining := s.length - s.position
	want := int64(len(buffer))
	if want > remaining {
		want = remaining
	}
	if want <= 0 {
		return 0, nil
	}

	sectorSize := int64(s.device.SectorSize())
	scratch := make([]byte, want)
	out := bytesextra.NewReadWriteSeeker(scratch)
	written := int64(0)

	position := s.position
	toRead := want

	// 1. Unaligned leading tail of the first sector, if any.
	if offset := position % sectorSize; offset != 0 {
		sector := uint64(position / sectorSize)
		data, err := s.device.ReadSectors(sector, 1)
		if err != nil {
			return 0, sectordevice.NewDeviceIOError(err)
		}
		tail := data[offset:]
		n := int64(len(tail))
		if n > toRead {
			n = toRead
		}
		if _, werr := out.Write(tail[:n]); werr != nil {
			return 0, sectordevice.NewDeviceIOError(werr)
		}
		written += n
		toRead -= n
		position += n
	}

	// 2. Aligned whole-sector batches, up to maxBatchSectors at a time.
	for toRead >= sectorSize {
		sector := uint64(position / sectorSize)
		batch := toRead / sectorSize
		if batch > maxBatchSectors {
			batch = maxBatchSectors
		}
		data, err := s.device.ReadSectors(sector, uint32(batch))
		if err != nil {
			return int(written), sectordevice.NewDeviceIOError(err)
		}
		if _, werr := out.Write(data); werr != nil {
			return int(written), sectordevice.NewDeviceIOError(werr)
		}
		n := batch * sectorSize
		written += n
		toRead -= n
		position += n
	}

	// 3. Unaligned trailing head, if fewer than one sector remains.
	if toRead > 0 {
		sector := uint64(position / sectorSize)
		data, err := s.device.ReadSectors(sector, 1)
		if err != nil {
			return int(written), sectordevice.NewDeviceIOError(err)
		}
		if _, werr := out.Write(data[:toRead]); werr != nil {
			return int(written), sectordevice.NewDeviceIOError(werr)
		}
		written += toRead
		position += toRead
	}

	copy(buffer, scratch[:written])
	s.position = position
	return int(written), nil
}

// ReadAt implements io.ReaderAt so a Stream can be handed directly to
// the NTFS interpreter, which addresses the volume by absolute offset
// rather than through a moving cursor. The session is single-threaded
// per accessor (spec.md §5), so saving and restoring position around
// the underlying Read is safe without additional locking.
func (s *Stream) ReadAt(buffer []byte, offset int64) (int, error) {
	saved := s.position
	defer func() { s.position = saved }()

	if _, err := s.Seek(offset, 0); err != nil {
		return 0, err
	}

	total := 0
	for total < len(buffer) {
		n, err := s.Read(buffer[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.EOF
		}
	}
	return total, nil
}

// Close releases no resources of its own; the underlying Device is
// owned by the accessor, not the stream, per the ownership model in
// the design's data model section.
func (s *Stream) Close() error { return nil }
