// Package dirreader implements the Directory Reader (C8): per-directory
// metadata, pattern-matched listing, and recursive preorder enumeration
// with a one-level reparse-point target switch at the listing root.
package dirreader

import (
	"log/slog"
	"strings"

	"github.com/ntfslive/ntfslive"
	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/filereader"
	"github.com/ntfslive/ntfslive/linkresolver"
	"github.com/ntfslive/ntfslive/ntfsiface"
)

// Reader implements spec.md §4.7 against a single NTFS Interpreter. It
// defers file-level metadata to a filereader.Reader so file_info's
// reparse/ADS handling is not duplicated.
type Reader struct {
	interp     ntfsiface.Interpreter
	fileReader *filereader.Reader
	resolver   *linkresolver.TargetResolver
	opts       ntfslive.Options
	log        *slog.Logger
}

// New builds a Reader.
func New(interp ntfsiface.Interpreter, fileReader *filereader.Reader, resolver *linkresolver.TargetResolver, opts ntfslive.Options, log *slog.Logger) *Reader {
	return &Reader{interp: interp, fileReader: fileReader, resolver: resolver, opts: opts, log: log}
}

// Exists swallows interpreter errors as false, per spec.md §4.6/§4.7.
func (r *Reader) Exists(path string) bool {
	return r.interp.DirExists(path)
}

// DirInfo implements spec.md §4.7 dir_info, tail-calling through a
// reparse point the same way File Reader's file_info does.
func (r *Reader) DirInfo(path string, resolveLinks bool) (ntfslive.DirectoryRecord, error) {
	if !r.interp.DirExists(path) {
		return ntfslive.DirectoryRecord{}, ntfserrors.New(ntfserrors.KindNotFound).WithPath(path)
	}

	raw, err := r.interp.DirInfo(path)
	if err != nil {
		return ntfslive.DirectoryRecord{}, err
	}
	record := dirRecordFromRaw(path, raw)

	if record.IsReparsePoint() {
		kind, target, err := r.resolver.LinkTarget(path)
		if err != nil {
			return ntfslive.DirectoryRecord{}, err
		}
		record.LinkTarget = target

		if resolveLinks && kind != linkresolver.KindNone && r.followPolicyAllows(target) {
			resolved, err := r.resolver.ResolveTarget(path)
			if err != nil {
				return ntfslive.DirectoryRecord{}, err
			}
			if resolved != path {
				return r.DirInfo(resolved, resolveLinks)
			}
		}
	}

	return record, nil
}

func (r *Reader) followPolicyAllows(rawTarget string) bool {
	absolute := len(rawTarget) >= 2 && rawTarget[1] == ':'
	if absolute {
		return r.opts.FollowAbsoluteLinks
	}
	return r.opts.FollowRelativeLinks
}

// ListFiles implements spec.md §4.7 list_files.
func (r *Reader) ListFiles(path, pattern string, recurse, resolveLinks bool) ([]ntfslive.FileRecord, error) {
	if pattern == "" {
		pattern = "*"
	}
	root, err := r.listingRoot(path, resolveLinks)
	if err != nil {
		return nil, err
	}

	var out []ntfslive.FileRecord
	r.collectFiles(root, path, pattern, recurse, resolveLinks, &out)
	return out, nil
}

// ListDirs implements spec.md §4.7 list_dirs.
func (r *Reader) ListDirs(path, pattern string, recurse, resolveLinks bool) ([]ntfslive.DirectoryRecord, error) {
	if pattern == "" {
		pattern = "*"
	}
	root, err := r.listingRoot(path, resolveLinks)
	if err != nil {
		return nil, err
	}

	var out []ntfslive.DirectoryRecord
	r.collectDirs(root, path, pattern, recurse, resolveLinks, &out)
	return out, nil
}

// listingRoot implements the one-level reparse target switch: the
// directory actually read from the interpreter may differ from path
// (the caller-visible root), but every returned record's FullPath is
// still rewritten under path.
func (r *Reader) listingRoot(path string, resolveLinks bool) (string, error) {
	if !r.interp.DirExists(path) {
		return "", ntfserrors.New(ntfserrors.KindNotFound).WithPath(path)
	}
	if !resolveLinks {
		return path, nil
	}

	info, err := r.interp.DirInfo(path)
	if err != nil {
		return "", err
	}
	if !info.Attributes.IsReparsePoint() {
		return path, nil
	}

	kind, target, err := r.resolver.LinkTarget(path)
	if err != nil {
		return "", err
	}
	if kind == linkresolver.KindNone || !r.followPolicyAllows(target) {
		return path, nil
	}

	resolved, err := r.resolver.ResolveTarget(path)
	if err != nil {
		return "", err
	}
	if r.interp.DirExists(resolved) {
		return resolved, nil
	}
	return path, nil
}

// collectFiles walks interpDir (the real interpreter path currently
// being read) in preorder, emitting FileRecords whose FullPath is
// rewritten under callerDir (the path the caller originally asked
// for), per spec.md §4.7's last bullet. Per-entry failures are logged
// and skipped; the traversal continues.
func (r *Reader) collectFiles(interpDir, callerDir, pattern string, recurse, resolveLinks bool, out *[]ntfslive.FileRecord) {
	names, err := r.interp.ListFiles(interpDir, pattern)
	if err != nil {
		r.log.Warn("failed to list files", "dir", interpDir, "error", err)
	} else {
		for _, name := range names {
			interpPath := joinPath(interpDir, name)
			record, err := r.fileReader.FileInfo(interpPath, resolveLinks)
			if err != nil {
				r.log.Warn("skipping file with unreadable metadata", "path", interpPath, "error", err)
				continue
			}
			record.FullPath = joinPath(callerDir, name)
			*out = append(*out, record)
		}
	}

	if !recurse {
		return
	}

	subdirs, err := r.interp.ListDirs(interpDir, "*")
	if err != nil {
		r.log.Warn("failed to list subdirectories", "dir", interpDir, "error", err)
		return
	}
	for _, sub := range subdirs {
		r.collectFiles(joinPath(interpDir, sub), joinPath(callerDir, sub), pattern, recurse, resolveLinks, out)
	}
}

// collectDirs mirrors collectFiles for directories.
func (r *Reader) collectDirs(interpDir, callerDir, pattern string, recurse, resolveLinks bool, out *[]ntfslive.DirectoryRecord) {
	names, err := r.interp.ListDirs(interpDir, pattern)
	if err != nil {
		r.log.Warn("failed to list subdirectories", "dir", interpDir, "error", err)
		return
	}

	for _, name := range names {
		interpPath := joinPath(interpDir, name)
		record, err := r.DirInfo(interpPath, resolveLinks)
		if err != nil {
			r.log.Warn("skipping directory with unreadable metadata", "path", interpPath, "error", err)
			continue
		}
		record.FullPath = joinPath(callerDir, name)
		*out = append(*out, record)
	}

	if !recurse {
		return
	}

	// Recursion always descends unfiltered, independent of pattern,
	// which only selects which entries at each level are reported.
	allSubdirs, err := r.interp.ListDirs(interpDir, "*")
	if err != nil {
		return
	}
	for _, sub := range allSubdirs {
		r.collectDirs(joinPath(interpDir, sub), joinPath(callerDir, sub), pattern, recurse, resolveLinks, out)
	}
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	if strings.HasSuffix(dir, `\`) {
		return dir + name
	}
	return dir + `\` + name
}

func dirRecordFromRaw(path string, raw ntfsiface.RawDirInfo) ntfslive.DirectoryRecord {
	return ntfslive.DirectoryRecord{
		FullPath:       path,
		CreationTime:   ntfslive.FiletimeToTime(raw.CreationTime),
		LastAccessTime: ntfslive.FiletimeToTime(raw.LastAccessTime),
		LastWriteTime:  ntfslive.FiletimeToTime(raw.LastWriteTime),
		Attributes:     raw.Attributes,
	}
}
