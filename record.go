package ntfslive

import (
	"time"

	"github.com/ntfslive/ntfslive/ntfsiface"
)

// Attributes is the NTFS FILE_ATTRIBUTE_* bit set, re-exported from
// ntfsiface so callers never need to import that package directly.
type Attributes = ntfsiface.Attributes

const (
	AttrReadOnly     = ntfsiface.AttrReadOnly
	AttrHidden       = ntfsiface.AttrHidden
	AttrSystem       = ntfsiface.AttrSystem
	AttrDirectory    = ntfsiface.AttrDirectory
	AttrArchive      = ntfsiface.AttrArchive
	AttrSparseFile   = ntfsiface.AttrSparseFile
	AttrReparsePoint = ntfsiface.AttrReparsePoint
	AttrCompressed   = ntfsiface.AttrCompressed
)

// FileRecord is the resolved metadata for a file path, per spec.md §3.
type FileRecord struct {
	FullPath       string
	Size           int64
	CreationTime   time.Time
	LastAccessTime time.Time
	LastWriteTime  time.Time
	Attributes     Attributes
	// AdsNames is ordered, distinct, and case-insensitive-deduped.
	AdsNames []string
	// LinkTarget is set iff Attributes.IsReparsePoint().
	LinkTarget string
}

func (r FileRecord) IsSparse() bool       { return r.Attributes.IsSparse() }
func (r FileRecord) IsCompressed() bool   { return r.Attributes.IsCompressed() }
func (r FileRecord) IsReparsePoint() bool { return r.Attributes.IsReparsePoint() }

// DirectoryRecord is FileRecord minus Size and AdsNames, per spec.md §3.
type DirectoryRecord struct {
	FullPath       string
	CreationTime   time.Time
	LastAccessTime time.Time
	LastWriteTime  time.Time
	Attributes     Attributes
	LinkTarget     string
}

func (r DirectoryRecord) IsSparse() bool       { return r.Attributes.IsSparse() }
func (r DirectoryRecord) IsCompressed() bool   { return r.Attributes.IsCompressed() }
func (r DirectoryRecord) IsReparsePoint() bool { return r.Attributes.IsReparsePoint() }

// FiletimeToTime converts a Windows FILETIME (100ns ticks since
// 1601-01-01 UTC) to a time.Time. Exported so adapters outside this
// package (e.g. filereader) can build records from raw interpreter
// timestamps without duplicating the conversion.
func FiletimeToTime(ft int64) time.Time {
	if ft == 0 {
		return time.Time{}
	}
	const ticksPerSecond = 10_000_000
	const epochDelta = 11_644_473_600 // seconds between 1601-01-01 and 1970-01-01
	secs := ft/ticksPerSecond - epochDelta
	nsecs := (ft % ticksPerSecond) * 100
	return time.Unix(secs, nsecs).UTC()
}
