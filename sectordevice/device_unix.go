//go:build !windows

package sectordevice

import (
	"io"
	"os"
	"sync"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
)

// defaultSectorSize is used when the caller doesn't know the physical
// sector size of the backing path (a loopback file rather than a real
// block device), matching NTFS's overwhelmingly common on-disk sector
// size.
const defaultSectorSize = 512

// fileDevice serves sector reads from a plain os.File. It exists so the
// core stack (and its tests) can run on non-Windows CI against a
// loopback-mounted NTFS image or a raw block device node, since the
// real volumeDevice (device_windows.go) needs Win32 handles that don't
// exist on this platform.
type fileDevice struct {
	mu          sync.Mutex
	file        *os.File
	sectorSize  uint32
	sectorCount uint64
	closed      bool
}

// Open opens path (a regular file or a raw block device node) and
// derives sector geometry from its size, assuming 512-byte sectors.
func Open(path string) (Device, error) {
	return OpenWithSectorSize(path, defaultSectorSize)
}

// OpenWithSectorSize is like Open but lets the caller override the
// assumed sector size; a sectorSize of 0 means 512.
func OpenWithSectorSize(path string, sectorSize uint32) (Device, error) {
	if sectorSize == 0 {
		sectorSize = defaultSectorSize
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, NewDeviceIOError(err).WithPath(path)
	}

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, NewDeviceIOError(err).WithPath(path)
	}

	return &fileDevice{
		file:        f,
		sectorSize:  sectorSize,
		sectorCount: uint64(size) / uint64(sectorSize),
	}, nil
}

func (d *fileDevice) SectorSize() uint32  { return d.sectorSize }
func (d *fileDevice) SectorCount() uint64 { return d.sectorCount }

func (d *fileDevice) ReadSectors(firstLBA uint64, count uint32) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ntfserrors.New(ntfserrors.KindDisposed)
	}

	want := int(uint64(d.sectorSize) * uint64(count))
	buffer := make([]byte, want)
	offset := int64(firstLBA) * int64(d.sectorSize)

	n, err := d.file.ReadAt(buffer, offset)
	if n != want || (err != nil && err != io.EOF) {
		return nil, NewDeviceIOError(err)
	}
	return buffer, nil
}

func (d *fileDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.file.Close()
}
