// Package localdest adapts the local OS file API to the
// ntfslive.Destination interface (C14), the host-side collaborator
// File Reader's Copy writes through. It is deliberately kept out of the
// core reader packages: spec.md §1 treats destination writing as an
// external collaborator.
package localdest

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ntfslive/ntfslive"
)

// Destination writes copied files to a directory on the local
// filesystem using the native file API.
type Destination struct{}

// New creates a local-filesystem Destination.
func New() *Destination { return &Destination{} }

func (d *Destination) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (d *Destination) EnsureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0o755)
}

func (d *Destination) CreatePrimary(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// CreateADS creates a named alternate data stream alongside path. On
// NTFS destinations the composed "path:adsName" form creates a real
// ADS; on filesystems that don't support them the colon is just a
// literal path-component byte, which still round-trips correctly for
// ntfscp's own later reads.
func (d *Destination) CreateADS(path, adsName string) (io.WriteCloser, error) {
	return os.Create(path + ":" + adsName)
}

// SetTimestamps sets path's last-access and last-write times (a zero
// lastAccess takes lastWrite's value). creation is not applied.
func (d *Destination) SetTimestamps(path string, creation, lastWrite, lastAccess time.Time) error {
	if lastAccess.IsZero() {
		lastAccess = lastWrite
	}
	return os.Chtimes(path, lastAccess, lastWrite)
}

// SetAttributes propagates only the subset meaningful on a local POSIX
// or Windows destination: read-only. The rest of the NTFS attribute
// bit set (System, Compressed, SparseFile, ReparsePoint) has no local
// equivalent worth forcing onto an arbitrary destination filesystem.
func (d *Destination) SetAttributes(path string, attrs ntfslive.Attributes) error {
	if attrs&ntfslive.AttrReadOnly == 0 {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode()&^0o222)
}

// EnsureParent is a convenience used by cmd/ntfscp to create dest's
// parent directory before the accessor's own EnsureDir call, so
// relative destination paths resolve the same way regardless of the
// current working directory.
func EnsureParent(dest string) error {
	dir := filepath.Dir(dest)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
