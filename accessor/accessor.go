// Package accessor implements the Accessor Facade (C9): the single
// public entry point that wires C1-C8 together, owns the options and
// drive identifier, and enforces the disposed-after-close contract.
package accessor

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ntfslive/ntfslive"
	"github.com/ntfslive/ntfslive/adshandler"
	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/dirreader"
	"github.com/ntfslive/ntfslive/filereader"
	"github.com/ntfslive/ntfslive/linkresolver"
	"github.com/ntfslive/ntfslive/ntfsiface"
	"github.com/ntfslive/ntfslive/sectordevice"
	"github.com/ntfslive/ntfslive/volumestream"
)

// Accessor is the single public handle over a mounted NTFS volume. It
// owns the Sector Device and the parsed interpreter state; every
// stream it hands out borrows that state and must not outlive the
// Accessor (spec.md §5).
type Accessor struct {
	driveID string
	opts    ntfslive.Options

	device sectordevice.Device
	interp ntfsiface.Interpreter

	files *filereader.Reader
	dirs  *dirreader.Reader

	mu       sync.Mutex
	disposed bool
}

// Open constructs C1-C8 in dependency order over device, identifying
// the volume as driveID (e.g. "C:") for link-resolution purposes.
// currentVolumeGUID may be empty when the caller doesn't know the
// volume's GUID form, in which case `\??\Volume{...}` substitute names
// are always treated as foreign (spec.md §4.5(a) step 2).
func Open(device sectordevice.Device, driveID, currentVolumeGUID string, opts ntfslive.Options, log *slog.Logger) (*Accessor, error) {
	opts = opts.Normalized()
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	volume := volumestream.New(device)

	interp, err := ntfsiface.Open(volume)
	if err != nil {
		device.Close()
		return nil, err
	}

	ads := adshandler.New(interp)
	resolver := linkresolver.New(interp, driveID, currentVolumeGUID, linkresolver.Options{
		MaxLinkDepth:        opts.MaxLinkDepth,
		FollowRelativeLinks: opts.FollowRelativeLinks,
		FollowAbsoluteLinks: opts.FollowAbsoluteLinks,
	})
	files := filereader.New(interp, ads, resolver, opts, log)
	dirs := dirreader.New(interp, files, resolver, opts, log)

	return &Accessor{
		driveID: driveID,
		opts:    opts,
		device:  device,
		interp:  interp,
		files:   files,
		dirs:    dirs,
	}, nil
}

// DriveID returns the identifier this Accessor was opened with.
func (a *Accessor) DriveID() string { return a.driveID }

// Options returns the (normalized) options this Accessor was opened
// with.
func (a *Accessor) Options() ntfslive.Options { return a.opts }

func (a *Accessor) checkOpen() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return ntfserrors.New(ntfserrors.KindDisposed)
	}
	return nil
}

// normalizePath strips a caller-supplied drive prefix (e.g. "C:") and
// any leading path separator from path, so a fully-qualified source
// path like `C:\Windows\System32\config\SOFTWARE` reaches C7/C8 (and
// from there the NTFS interpreter) in interpreter-local form, per
// spec.md §6 / SPEC_FULL.md §5. Paths that are already rooted relative
// to the volume pass through unchanged.
func (a *Accessor) normalizePath(path string) string {
	if a.driveID != "" && len(path) >= len(a.driveID) && strings.EqualFold(path[:len(a.driveID)], a.driveID) {
		path = path[len(a.driveID):]
	}
	path = strings.TrimPrefix(path, `\`)
	path = strings.TrimPrefix(path, "/")
	return path
}

// FileExists reports whether path names an existing file.
func (a *Accessor) FileExists(path string) bool {
	if a.checkOpen() != nil {
		return false
	}
	return a.files.Exists(a.normalizePath(path))
}

// FileInfo implements spec.md §4.6 file_info.
func (a *Accessor) FileInfo(path string, resolveLinks bool) (ntfslive.FileRecord, error) {
	if err := a.checkOpen(); err != nil {
		return ntfslive.FileRecord{}, err
	}
	return a.files.FileInfo(a.normalizePath(path), resolveLinks)
}

// OpenFile implements spec.md §4.6 open.
func (a *Accessor) OpenFile(path string) (io.ReadSeeker, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	return a.files.Open(a.normalizePath(path))
}

// CopyFile implements spec.md §4.6 copy. Only source is interpreter-
// rooted and normalized; dest is a host filesystem path handled
// entirely by destination and never reaches the interpreter.
func (a *Accessor) CopyFile(source, dest string, overwrite bool, destination ntfslive.Destination) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	return a.files.Copy(a.normalizePath(source), dest, overwrite, destination)
}

// DirExists reports whether path names an existing directory.
func (a *Accessor) DirExists(path string) bool {
	if a.checkOpen() != nil {
		return false
	}
	return a.dirs.Exists(a.normalizePath(path))
}

// DirInfo implements spec.md §4.7 dir_info.
func (a *Accessor) DirInfo(path string, resolveLinks bool) (ntfslive.DirectoryRecord, error) {
	if err := a.checkOpen(); err != nil {
		return ntfslive.DirectoryRecord{}, err
	}
	return a.dirs.DirInfo(a.normalizePath(path), resolveLinks)
}

// ListFiles implements spec.md §4.7 list_files.
func (a *Accessor) ListFiles(path, pattern string, recurse, resolveLinks bool) ([]ntfslive.FileRecord, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	return a.dirs.ListFiles(a.normalizePath(path), pattern, recurse, resolveLinks)
}

// ListDirs implements spec.md §4.7 list_dirs.
func (a *Accessor) ListDirs(path, pattern string, recurse, resolveLinks bool) ([]ntfslive.DirectoryRecord, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	return a.dirs.ListDirs(a.normalizePath(path), pattern, recurse, resolveLinks)
}

// Dispose releases the NTFS interpreter and the Sector Device exactly
// once. Subsequent calls are a no-op, and every public operation after
// disposal fails with Disposed, per spec.md §4.8.
func (a *Accessor) Dispose() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return nil
	}
	a.disposed = true

	var err error
	if closeErr := a.interp.Close(); closeErr != nil {
		err = closeErr
	}
	if closeErr := a.device.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
