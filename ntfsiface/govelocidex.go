// This file adapts www.velocidex.com/golang/go-ntfs, the one pack
// dependency that exposes exactly the capability surface Interpreter
// requires against a raw sector source (retrieved from the
// kmahyyg-go-rawcopy and google-osv-scalibr manifests).
package ntfsiface

import (
	"io"
	"path"
	"strings"

	ntfs "www.velocidex.com/golang/go-ntfs/parser"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
)

// velocidexInterpreter wraps an *ntfs.NTFSContext built on top of an
// io.ReaderAt (the Volume Stream). It is the production Interpreter;
// ntfstest provides the in-memory fake used in unit tests.
type velocidexInterpreter struct {
	ctx *ntfs.NTFSContext
}

// Open parses the NTFS boot sector and MFT from reader (a
// volumestream.Stream satisfies io.ReaderAt via its ReadAt method, a
// Seek+Read loop that restores the cursor) and returns the Interpreter. Boot sector parse
// failure is fatal at construction per spec.md §7 (InvalidVolume).
func Open(reader io.ReaderAt) (Interpreter, error) {
	ctx, err := ntfs.GetNTFSContext(reader, 0)
	if err != nil {
		return nil, ntfserrors.New(ntfserrors.KindInvalidVolume).Wrap(err)
	}
	return &velocidexInterpreter{ctx: ctx}, nil
}

func normalize(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func (v *velocidexInterpreter) lookup(p string) (*ntfs.MFT_ENTRY, error) {
	entry, err := v.ctx.GetMFTEntryByPath(normalize(p))
	if err != nil {
		return nil, ntfserrors.New(ntfserrors.KindNotFound).Wrap(err).WithPath(p)
	}
	return entry, nil
}

func (v *velocidexInterpreter) FileExists(p string) bool {
	entry, err := v.lookup(p)
	if err != nil || entry == nil {
		return false
	}
	return !isDirectoryEntry(entry)
}

func (v *velocidexInterpreter) DirExists(p string) bool {
	entry, err := v.lookup(p)
	if err != nil || entry == nil {
		return false
	}
	return isDirectoryEntry(entry)
}

func (v *velocidexInterpreter) FileInfo(p string) (RawFileInfo, error) {
	entry, err := v.lookup(p)
	if err != nil {
		return RawFileInfo{}, err
	}
	stat := statFromEntry(entry)
	size := entry.DataSize()
	return RawFileInfo{RawStat: stat, Size: size}, nil
}

func (v *velocidexInterpreter) DirInfo(p string) (RawDirInfo, error) {
	entry, err := v.lookup(p)
	if err != nil {
		return RawDirInfo{}, err
	}
	return RawDirInfo{RawStat: statFromEntry(entry)}, nil
}

func (v *velocidexInterpreter) ListFiles(p, pattern string) ([]string, error) {
	return v.listEntries(p, pattern, false)
}

func (v *velocidexInterpreter) ListDirs(p, pattern string) ([]string, error) {
	return v.listEntries(p, pattern, true)
}

func (v *velocidexInterpreter) listEntries(p, pattern string, wantDirs bool) ([]string, error) {
	entry, err := v.lookup(p)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, child := range entry.Dir(v.ctx) {
		name := child.Name(v.ctx)
		if isDirectoryEntry(child.MFTEntry(v.ctx)) != wantDirs {
			continue
		}
		if pattern != "" {
			matched, _ := path.Match(strings.ToLower(pattern), strings.ToLower(name))
			if !matched {
				continue
			}
		}
		names = append(names, name)
	}
	return names, nil
}

func (v *velocidexInterpreter) OpenFile(p string) (io.ReadSeeker, error) {
	basePath, stream := splitADS(p)
	entry, err := v.lookup(basePath)
	if err != nil {
		return nil, err
	}

	reader, err := entry.OpenStream(v.ctx, stream)
	if err != nil {
		return nil, ntfserrors.New(ntfserrors.KindAdsOpen).Wrap(err).WithPath(p)
	}
	return reader, nil
}

func (v *velocidexInterpreter) AlternateDataStreams(p string) ([]string, error) {
	entry, err := v.lookup(p)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, attr := range entry.EnumerateAttributes(v.ctx) {
		if attr.Type().Name != "DATA" {
			continue
		}
		name := attr.Name()
		if name == "" {
			continue // the unnamed primary stream
		}
		names = append(names, name)
	}
	return dedupeCaseInsensitive(names), nil
}

func (v *velocidexInterpreter) ReparsePoint(p string) (ReparseData, error) {
	entry, err := v.lookup(p)
	if err != nil {
		return ReparseData{}, err
	}

	raw, err := entry.ReparsePointData(v.ctx)
	if err != nil {
		return ReparseData{}, ntfserrors.New(ntfserrors.KindUnsupportedReparseTag).Wrap(err).WithPath(p)
	}
	return ReparseData{Tag: raw.Tag, Content: raw.Content}, nil
}

func (v *velocidexInterpreter) BytesPerCluster() uint32 {
	return uint32(v.ctx.Boot.ClusterSize())
}

func (v *velocidexInterpreter) DataRuns(p string) ([]Extent, bool, error) {
	entry, err := v.lookup(p)
	if err != nil {
		return nil, false, err
	}

	runs, ok := entry.DataRuns(v.ctx)
	if !ok {
		return nil, false, nil
	}

	clusterSize := int64(v.BytesPerCluster())
	extents := make([]Extent, 0, len(runs))
	for _, r := range runs {
		if !r.IsSparse {
			extents = append(extents, Extent{
				StartOffset: r.Offset * clusterSize,
				Length:      r.Length * clusterSize,
			})
		}
	}
	return extents, true, nil
}

func (v *velocidexInterpreter) Close() error {
	return nil // the underlying NTFSContext holds no independently-closable handle
}

func isDirectoryEntry(entry *ntfs.MFT_ENTRY) bool {
	if entry == nil {
		return false
	}
	return entry.IsDir()
}

func statFromEntry(entry *ntfs.MFT_ENTRY) RawStat {
	si := entry.StandardInformation()
	return RawStat{
		CreationTime:   si.CreateTime(),
		LastAccessTime: si.FileAccessTime(),
		LastWriteTime:  si.FileModifiedTime(),
		Attributes:     Attributes(si.FileAttributes()),
	}
}

func splitADS(p string) (basePath, stream string) {
	idx := strings.LastIndex(p, ":")
	// Guard against a drive-letter colon (`C:\...`) at index 1.
	if idx <= 1 {
		return p, ""
	}
	return p[:idx], p[idx+1:]
}

func dedupeCaseInsensitive(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
