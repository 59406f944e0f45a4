// Package sectordevice defines the raw sector-granular device seam (C1)
// that the rest of the core reader stack is built on. Callers supply a
// concrete Device (typically backed by a raw volume handle); the core
// never opens the device itself.
package sectordevice

import (
	ntfserrors "github.com/ntfslive/ntfslive/errors"
)

// Device is the abstract raw sector source. Implementations are
// platform-specific (they open a volume by device path or drive
// letter) and are the one mockable seam in the whole stack: tests
// substitute an in-memory Device, production substitutes a real
// volume handle.
type Device interface {
	// SectorSize returns the size, in bytes, of one sector on this
	// device. It never changes for the lifetime of the Device.
	SectorSize() uint32

	// SectorCount returns the total number of sectors on the device.
	SectorCount() uint64

	// ReadSectors reads exactly count sectors starting at firstLBA and
	// returns them concatenated. It never returns a partial result: on
	// any failure it returns an error and a nil slice. A failed read is
	// a DeviceIo error; the implementations in this package return a
	// Disposed error once the Device has been closed.
	ReadSectors(firstLBA uint64, count uint32) ([]byte, error)

	// Close releases the underlying volume handle. Closing twice is a
	// no-op.
	Close() error
}

// NewDeviceIOError wraps a lower-level I/O failure (e.g. a syscall
// error from a platform-specific Device implementation) as the DeviceIo
// kind the rest of the stack expects.
func NewDeviceIOError(cause error) *ntfserrors.Error {
	return ntfserrors.New(ntfserrors.KindDeviceIO).Wrap(cause)
}
