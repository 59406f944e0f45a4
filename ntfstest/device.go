// Package ntfstest provides in-memory test doubles for the core reader
// stack: a fake sectordevice.Device backed by a plain byte slice (the
// same pattern the teacher's testing package uses for disk images,
// minus compression), and builders for synthetic reparse buffers and
// sparse data-run tables used across the package test suites.
package ntfstest

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
)

// FakeDevice is an in-memory sectordevice.Device over a fixed-size byte
// slice, mirroring the teacher's CreateDefaultCache fetch/flush fakes
// but narrowed to the read-only ReadSectors surface C1 requires.
type FakeDevice struct {
	sectorSize uint32
	data       []byte
	closed     bool
}

// NewFakeDevice wraps data as a device with the given sectorSize. data
// must be an exact multiple of sectorSize.
func NewFakeDevice(t *testing.T, data []byte, sectorSize uint32) *FakeDevice {
	t.Helper()
	require.Equal(t, 0, len(data)%int(sectorSize), "fake device data is not a whole number of sectors")
	return &FakeDevice{sectorSize: sectorSize, data: data}
}

// RandomImage returns bytesPerSector*totalSectors random bytes, the
// same shape as the teacher's CreateRandomImage helper.
func RandomImage(t *testing.T, bytesPerSector, totalSectors uint32) []byte {
	t.Helper()
	buf := make([]byte, uint64(bytesPerSector)*uint64(totalSectors))
	_, err := rand.Read(buf)
	require.NoError(t, err, "failed to fill fake image with random bytes")
	return buf
}

func (d *FakeDevice) SectorSize() uint32 { return d.sectorSize }

func (d *FakeDevice) SectorCount() uint64 { return uint64(len(d.data)) / uint64(d.sectorSize) }

func (d *FakeDevice) ReadSectors(firstLBA uint64, count uint32) ([]byte, error) {
	if d.closed {
		return nil, ntfserrors.New(ntfserrors.KindDeviceIO).WithMessage("device closed")
	}
	start := firstLBA * uint64(d.sectorSize)
	length := uint64(count) * uint64(d.sectorSize)
	if start+length > uint64(len(d.data)) {
		return nil, ntfserrors.New(ntfserrors.KindDeviceIO).WithMessage("read out of bounds")
	}
	out := make([]byte, length)
	copy(out, d.data[start:start+length])
	return out, nil
}

func (d *FakeDevice) Close() error {
	d.closed = true
	return nil
}
