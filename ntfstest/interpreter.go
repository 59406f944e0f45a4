package ntfstest

import (
	"bytes"
	"io"
	"path"
	"sort"
	"strings"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/ntfsiface"
)

// fakeEntry is one file or directory in a FakeInterpreter's in-memory
// tree.
type fakeEntry struct {
	isDir   bool
	stat    ntfsiface.RawStat
	size    int64
	content []byte
	ads     map[string][]byte

	hasReparse     bool
	reparseTag     uint32
	reparseContent []byte

	extents    []ntfsiface.Extent
	hasExtents bool
}

type fakeChild struct {
	name  string
	isDir bool
}

// FakeInterpreter is an in-memory ntfsiface.Interpreter, letting the
// packages above C3 (sparsestream, adshandler, linkresolver,
// filereader, dirreader) be unit tested without a real NTFS
// image, the same role the teacher's in-memory block cache fakes play
// for its drivers.
type FakeInterpreter struct {
	clusterSize uint32
	entries     map[string]*fakeEntry
	children    map[string][]fakeChild
}

var _ ntfsiface.Interpreter = (*FakeInterpreter)(nil)

// NewFakeInterpreter creates a tree holding only the root directory
// (""); AddDir("") replaces the root's metadata.
func NewFakeInterpreter(clusterSize uint32) *FakeInterpreter {
	f := &FakeInterpreter{
		clusterSize: clusterSize,
		entries:     make(map[string]*fakeEntry),
		children:    make(map[string][]fakeChild),
	}
	f.entries[""] = &fakeEntry{isDir: true}
	return f
}

func normalizeKey(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	p = strings.ToLower(strings.Trim(p, "/"))
	return p
}

func splitParent(key string) (parent, name string) {
	idx := strings.LastIndex(key, "/")
	if idx == -1 {
		return "", key
	}
	return key[:idx], key[idx+1:]
}

func (f *FakeInterpreter) register(key string, isDir bool) {
	parent, name := splitParent(key)
	for _, c := range f.children[parent] {
		if c.name == name {
			return
		}
	}
	f.children[parent] = append(f.children[parent], fakeChild{name: name, isDir: isDir})
}

// AddDir registers a directory at path with the given metadata.
func (f *FakeInterpreter) AddDir(path string, stat ntfsiface.RawStat) {
	key := normalizeKey(path)
	f.entries[key] = &fakeEntry{isDir: true, stat: stat}
	if key != "" {
		f.register(key, true)
	}
}

// AddFile registers a file at path with the given primary-stream
// content, nominal size, and metadata. size may exceed len(content)
// to model a sparse file whose dense backing is shorter than its
// logical length.
func (f *FakeInterpreter) AddFile(path string, content []byte, size int64, stat ntfsiface.RawStat) {
	key := normalizeKey(path)
	f.entries[key] = &fakeEntry{isDir: false, stat: stat, size: size, content: content}
	f.register(key, false)
}

// AddADS attaches a named alternate data stream to an already-added
// file at path.
func (f *FakeInterpreter) AddADS(path, name string, content []byte) {
	key := normalizeKey(path)
	entry := f.entries[key]
	if entry.ads == nil {
		entry.ads = make(map[string][]byte)
	}
	entry.ads[name] = content
}

// AddReparsePoint marks the entry at path (already added as a file or
// directory) as a reparse point with the given raw tag and payload.
func (f *FakeInterpreter) AddReparsePoint(path string, tag uint32, content []byte) {
	key := normalizeKey(path)
	entry := f.entries[key]
	entry.hasReparse = true
	entry.reparseTag = tag
	entry.reparseContent = content
	entry.stat.Attributes |= ntfsiface.AttrReparsePoint
}

// SetExtents installs explicit data-run extents for path, so
// DataRuns returns them instead of reporting ok=false.
func (f *FakeInterpreter) SetExtents(path string, extents []ntfsiface.Extent) {
	key := normalizeKey(path)
	entry := f.entries[key]
	entry.extents = extents
	entry.hasExtents = true
}

func (f *FakeInterpreter) lookup(p string) (*fakeEntry, bool) {
	base, _ := splitADSPath(p)
	entry, ok := f.entries[normalizeKey(base)]
	return entry, ok
}

func splitADSPath(p string) (base, ads string) {
	idx := strings.LastIndex(p, ":")
	if idx <= 1 {
		return p, ""
	}
	return p[:idx], p[idx+1:]
}

func (f *FakeInterpreter) FileExists(p string) bool {
	entry, ok := f.lookup(p)
	return ok && !entry.isDir
}

func (f *FakeInterpreter) DirExists(p string) bool {
	entry, ok := f.lookup(p)
	return ok && entry.isDir
}

func (f *FakeInterpreter) FileInfo(p string) (ntfsiface.RawFileInfo, error) {
	entry, ok := f.lookup(p)
	if !ok || entry.isDir {
		return ntfsiface.RawFileInfo{}, ntfserrors.New(ntfserrors.KindNotFound).WithPath(p)
	}
	return ntfsiface.RawFileInfo{RawStat: entry.stat, Size: entry.size}, nil
}

func (f *FakeInterpreter) DirInfo(p string) (ntfsiface.RawDirInfo, error) {
	entry, ok := f.lookup(p)
	if !ok || !entry.isDir {
		return ntfsiface.RawDirInfo{}, ntfserrors.New(ntfserrors.KindNotFound).WithPath(p)
	}
	return ntfsiface.RawDirInfo{RawStat: entry.stat}, nil
}

func (f *FakeInterpreter) ListFiles(p, pattern string) ([]string, error) {
	return f.listEntries(p, pattern, false)
}

func (f *FakeInterpreter) ListDirs(p, pattern string) ([]string, error) {
	return f.listEntries(p, pattern, true)
}

func (f *FakeInterpreter) listEntries(p, pattern string, wantDirs bool) ([]string, error) {
	key := normalizeKey(p)
	if _, ok := f.entries[key]; !ok {
		return nil, ntfserrors.New(ntfserrors.KindNotFound).WithPath(p)
	}
	if pattern == "" {
		pattern = "*"
	}

	var names []string
	for _, c := range f.children[key] {
		if c.isDir != wantDirs {
			continue
		}
		matched, _ := path.Match(strings.ToLower(pattern), strings.ToLower(c.name))
		if matched {
			names = append(names, c.name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (f *FakeInterpreter) OpenFile(p string) (io.ReadSeeker, error) {
	base, ads := splitADSPath(p)
	entry, ok := f.entries[normalizeKey(base)]
	if !ok || entry.isDir {
		return nil, ntfserrors.New(ntfserrors.KindNotFound).WithPath(p)
	}

	content := entry.content
	if ads != "" {
		data, found := entry.ads[ads]
		if !found {
			return nil, ntfserrors.New(ntfserrors.KindAdsOpen).WithPath(p)
		}
		content = data
	}
	return bytes.NewReader(content), nil
}

func (f *FakeInterpreter) AlternateDataStreams(p string) ([]string, error) {
	entry, ok := f.lookup(p)
	if !ok {
		return nil, ntfserrors.New(ntfserrors.KindNotFound).WithPath(p)
	}
	var names []string
	for name := range entry.ads {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FakeInterpreter) ReparsePoint(p string) (ntfsiface.ReparseData, error) {
	entry, ok := f.lookup(p)
	if !ok || !entry.hasReparse {
		return ntfsiface.ReparseData{}, ntfserrors.New(ntfserrors.KindUnsupportedReparseTag).WithPath(p)
	}
	return ntfsiface.ReparseData{Tag: entry.reparseTag, Content: entry.reparseContent}, nil
}

func (f *FakeInterpreter) BytesPerCluster() uint32 { return f.clusterSize }

func (f *FakeInterpreter) DataRuns(p string) ([]ntfsiface.Extent, bool, error) {
	entry, ok := f.lookup(p)
	if !ok {
		return nil, false, ntfserrors.New(ntfserrors.KindNotFound).WithPath(p)
	}
	if !entry.hasExtents {
		return nil, false, nil
	}
	return entry.extents, true, nil
}

func (f *FakeInterpreter) Close() error { return nil }
