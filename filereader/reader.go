// Package filereader implements the File Reader (C7): per-file
// metadata, stream selection between primary/ADS and sparse/dense, and
// whole-file copy including every alternate data stream.
package filereader

import (
	"io"
	"log/slog"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/ntfslive/ntfslive"
	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/adshandler"
	"github.com/ntfslive/ntfslive/linkresolver"
	"github.com/ntfslive/ntfslive/ntfsiface"
	"github.com/ntfslive/ntfslive/sparsestream"
)

// Reader implements spec.md §4.6 against a single NTFS Interpreter.
type Reader struct {
	interp   ntfsiface.Interpreter
	ads      *adshandler.Handler
	resolver *linkresolver.TargetResolver
	opts     ntfslive.Options
	log      *slog.Logger
}

// New builds a Reader. log may be nil, in which case a discarding
// logger is used.
func New(interp ntfsiface.Interpreter, ads *adshandler.Handler, resolver *linkresolver.TargetResolver, opts ntfslive.Options, log *slog.Logger) *Reader {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reader{interp: interp, ads: ads, resolver: resolver, opts: opts, log: log}
}

// splitADSSuffix splits an optional ":ads" suffix off path, the same
// as the private helper in ntfsiface's govelocidex adapter, but kept
// local here since callers operate on logical paths, not interpreter
// paths.
func splitADSSuffix(p string) (base, ads string, hasADS bool) {
	idx := strings.LastIndex(p, ":")
	if idx <= 1 { // guard a drive-letter colon, e.g. `C:\foo`
		return p, "", false
	}
	return p[:idx], p[idx+1:], true
}

// Exists normalizes path, swallowing interpreter errors as false, per
// spec.md §4.6.
func (r *Reader) Exists(path string) bool {
	base, _, _ := splitADSSuffix(path)
	return r.interp.FileExists(base)
}

// FileInfo implements spec.md §4.6 file_info: splits an optional
// :ads suffix, requires the base file to exist, populates the record,
// sets AdsNames, and tail-recurses through a reparse point when
// resolveLinks and policy permit it.
func (r *Reader) FileInfo(path string, resolveLinks bool) (ntfslive.FileRecord, error) {
	base, adsName, hasADS := splitADSSuffix(path)

	if !r.interp.FileExists(base) {
		return ntfslive.FileRecord{}, ntfserrors.New(ntfserrors.KindNotFound).WithPath(path)
	}

	raw, err := r.interp.FileInfo(base)
	if err != nil {
		return ntfslive.FileRecord{}, err
	}

	record := recordFromRaw(path, raw)

	if hasADS {
		// An ADS has no attributes/timestamps of its own beyond the
		// base file's, but it does have its own length: RawFileInfo.Size
		// is the base file's primary-stream size, which is wrong here
		// (e.g. the $UsnJrnl:$J scenario's own length differs sharply
		// from $Extend\$UsnJrnl's primary stream). Open the named
		// stream and seek to its end to get its real size.
		size, err := r.streamSize(base, adsName, raw.Attributes.IsSparse(), raw.Size)
		if err != nil {
			return ntfslive.FileRecord{}, err
		}
		record.Size = size
	} else {
		names, err := r.ads.Enumerate(base)
		if err != nil {
			return ntfslive.FileRecord{}, err
		}
		record.AdsNames = names
	}

	if record.IsReparsePoint() {
		kind, target, err := r.resolver.LinkTarget(base)
		if err != nil {
			return ntfslive.FileRecord{}, err
		}
		record.LinkTarget = target

		if resolveLinks && kind != linkresolver.KindNone && r.followPolicyAllows(target) {
			resolved, err := r.resolver.ResolveTarget(base)
			if err != nil {
				return ntfslive.FileRecord{}, err
			}
			if resolved != base {
				return r.FileInfo(resolved, resolveLinks)
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

// streamSize opens the named ADS on base and seeks to its end to
// recover its own length, since the interpreter only reports the
// primary stream's size in RawFileInfo.
func (r *Reader) streamSize(base, adsName string, baseSparse bool, baseSize int64) (int64, error) {
	stream, err := r.ads.Open(base, adsName, baseSparse, baseSize)
	if err != nil {
		return 0, err
	}
	if closer, ok := stream.(io.Closer); ok {
		defer closer.Close()
	}
	size, err := stream.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, ntfserrors.New(ntfserrors.KindAttributeRead).Wrap(err).WithPath(base + ":" + adsName)
	}
	return size, nil
}

// Open implements spec.md §4.6 open: ADS delegation, reparse-point
// recursion, and sparse-vs-dense stream selection.
func (r *Reader) Open(path string) (io.ReadSeeker, error) {
	base, adsName, hasADS := splitADSSuffix(path)

	if hasADS {
		baseInfo, err := r.interp.FileInfo(base)
		if err != nil {
			return nil, ntfserrors.New(ntfserrors.KindNotFound).WithPath(base)
		}
		return r.ads.Open(base, adsName, baseInfo.Attributes.IsSparse(), baseInfo.Size)
	}

	info, err := r.interp.FileInfo(base)
	if err != nil {
		return nil, ntfserrors.New(ntfserrors.KindNotFound).WithPath(base)
	}

	if info.Attributes.IsReparsePoint() {
		target, err := r.resolver.ResolveTarget(base)
		if err != nil {
			return nil, err
		}
		if target != base {
			return r.Open(target)
		}
	}

	if info.Attributes.IsSparse() {
		return sparsestream.New(r.interp, base, info.Size)
	}
	return r.interp.OpenFile(base)
}

// Copy implements spec.md §4.6 copy: existence/overwrite check,
// destination directory creation, single-stream ADS copy, or the full
// primary+ADS fan-out with best-effort timestamp/attribute propagation.
func (r *Reader) Copy(source, dest string, overwrite bool, destination ntfslive.Destination) error {
	if destination.Exists(dest) && !overwrite {
		return ntfserrors.New(ntfserrors.KindAlreadyExists).WithPath(dest)
	}

	if err := destination.EnsureDir(parentOf(dest)); err != nil {
		return ntfserrors.New(ntfserrors.KindDestinationWrite).Wrap(err).WithPath(dest)
	}

	base, adsName, hasADS := splitADSSuffix(source)
	if hasADS {
		baseInfo, err := r.interp.FileInfo(base)
		if err != nil {
			return ntfserrors.New(ntfserrors.KindNotFound).WithPath(source)
		}
		srcStream, err := r.ads.Open(base, adsName, baseInfo.Attributes.IsSparse(), baseInfo.Size)
		if err != nil {
			return err
		}
		return r.streamCopy(srcStream, dest, destination)
	}

	record, err := r.FileInfo(base, true)
	if err != nil {
		return err
	}

	srcStream, err := r.Open(record.FullPath)
	if err != nil {
		return err
	}
	if err := r.streamCopy(srcStream, dest, destination); err != nil {
		return err
	}

	var adsErrs *multierror.Error
	for _, name := range record.AdsNames {
		adsStream, err := r.ads.Open(record.FullPath, name, record.IsSparse(), record.Size)
		if err != nil {
			adsErrs = multierror.Append(adsErrs, err)
			continue
		}
		destADSStream, err := destination.CreateADS(dest, name)
		if err != nil {
			adsErrs = multierror.Append(adsErrs, ntfserrors.New(ntfserrors.KindDestinationWrite).Wrap(err).WithPath(dest+":"+name))
			continue
		}
		if err := r.copyBuffered(adsStream, destADSStream); err != nil {
			adsErrs = multierror.Append(adsErrs, err)
		}
	}
	if adsErrs != nil {
		return adsErrs.ErrorOrNil()
	}

	r.propagateMetadata(record, dest, destination)
	return nil
}

func (r *Reader) streamCopy(src io.Reader, dest string, destination ntfslive.Destination) error {
	out, err := destination.CreatePrimary(dest)
	if err != nil {
		return ntfserrors.New(ntfserrors.KindDestinationWrite).Wrap(err).WithPath(dest)
	}
	return r.copyBuffered(src, out)
}

func (r *Reader) copyBuffered(src io.Reader, dst io.WriteCloser) error {
	defer dst.Close()
	buffer := make([]byte, r.opts.BufferSize)
	for {
		n, readErr := src.Read(buffer)
		if n > 0 {
			if _, writeErr := dst.Write(buffer[:n]); writeErr != nil {
				return ntfserrors.New(ntfserrors.KindDestinationWrite).Wrap(writeErr)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return sparsestreamReadError(readErr)
		}
		if n == 0 && readErr == nil {
			// Sparse Stream can legitimately return (0, nil) when it
			// skips a hole; keep pulling until it reports EOF.
			continue
		}
	}
}

func sparsestreamReadError(err error) error {
	return ntfserrors.New(ntfserrors.KindDeviceIO).Wrap(err)
}

// propagateMetadata is best-effort: failures are logged as warnings,
// never returned, per spec.md §4.6 step 4d / §7.
func (r *Reader) propagateMetadata(record ntfslive.FileRecord, dest string, destination ntfslive.Destination) {
	if err := destination.SetTimestamps(dest, record.CreationTime, record.LastWriteTime, record.LastAccessTime); err != nil {
		r.log.Warn("failed to propagate timestamps", "dest", dest, "error", err)
	}
	if err := destination.SetAttributes(dest, record.Attributes); err != nil {
		r.log.Warn("failed to propagate attributes", "dest", dest, "error", err)
	}
}

func parentOf(p string) string {
	idx := strings.LastIndexAny(p, `\/`)
	if idx <= 0 {
		return p
	}
	return p[:idx]
}

func recordFromRaw(path string, raw ntfsiface.RawFileInfo) ntfslive.FileRecord {
	return ntfslive.FileRecord{
		FullPath:       path,
		Size:           raw.Size,
		CreationTime:   ntfslive.FiletimeToTime(raw.CreationTime),
		LastAccessTime: ntfslive.FiletimeToTime(raw.LastAccessTime),
		LastWriteTime:  ntfslive.FiletimeToTime(raw.LastWriteTime),
		Attributes:     raw.Attributes,
	}
}
