// Package sparsestream implements the Sparse Stream (C4): a read-only
// byte-addressable view over a sparse file that transparently skips
// unallocated regions.
package sparsestream

import (
	"github.com/boljen/go-bitmap"

	"github.com/ntfslive/ntfslive/ntfsiface"
)

// scanChunkSize is the chunk size the content-scanner fallback reads
// in, per spec.md §4.3.
const scanChunkSize = 64 * 1024

// Region is one allocated, non-overlapping byte range of a sparse
// file, sorted by StartOffset. It's the public form of
// ntfsiface.Extent, kept separate so this package doesn't leak the
// interpreter's types into callers.
type Region struct {
	StartOffset int64
	Length      int64
}

// DiscoverRegions returns the allocated regions of the file at path,
// preferring the interpreter's $DATA data-run extents and falling back
// to content scanning when extents are unavailable. degraded reports
// whether the lossy fallback was used (spec.md §4.3, §9: "Sparse
// fallback correctness").
func DiscoverRegions(interp ntfsiface.Interpreter, path string, fileLength int64) (regions []Region, degraded bool, err error) {
	extents, ok, err := interp.DataRuns(path)
	if err != nil {
		return nil, false, err
	}
	if ok {
		return clampAndSort(extentsToRegions(extents), fileLength), false, nil
	}

	regions, err = scanForRegions(interp, path, fileLength)
	if err != nil {
		return nil, false, err
	}
	return regions, true, nil
}

func extentsToRegions(extents []ntfsiface.Extent) []Region {
	out := make([]Region, len(extents))
	for i, e := range extents {
		out[i] = Region{StartOffset: e.StartOffset, Length: e.Length}
	}
	return out
}

// clampAndSort clamps each region to [0, fileLength), drops empty
// regions, and returns them sorted and coalesced — the invariant
// spec.md §3 requires for DataRegion.
func clampAndSort(regions []Region, fileLength int64) []Region {
	// Insertion sort is fine here: data-run lists are typically tiny
	// and usually already in order.
	for i := 1; i < len(regions); i++ {
		for j := i; j > 0 && regions[j-1].StartOffset > regions[j].StartOffset; j-- {
			regions[j-1], regions[j] = regions[j], regions[j-1]
		}
	}

	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		start := r.StartOffset
		end := start + r.Length
		if start < 0 {
			start = 0
		}
		if end > fileLength {
			end = fileLength
		}
		if end <= start {
			continue
		}
		if n := len(out); n > 0 && out[n-1].StartOffset+out[n-1].Length == start {
			out[n-1].Length = end - out[n-1].StartOffset
			continue
		}
		out = append(out, Region{StartOffset: start, Length: end - start})
	}
	return out
}

// scanForRegions is the degraded fallback: it reads the file in
// scanChunkSize chunks and treats any chunk containing a non-zero byte
// as allocated, coalescing adjacent allocated chunks into runs. This
// is semantically lossier than data-run extents (a real all-zero
// allocated chunk reads as a hole) and must only be used when extents
// are unavailable.
func scanForRegions(interp ntfsiface.Interpreter, path string, fileLength int64) ([]Region, error) {
	reader, err := interp.OpenFile(path)
	if err != nil {
		return nil, err
	}

	numChunks := int((fileLength + scanChunkSize - 1) / scanChunkSize)
	allocated := bitmap.New(numChunks)
	buffer := make([]byte, scanChunkSize)

	for i := 0; i < numChunks; i++ {
		n, readErr := reader.Read(buffer)
		if n > 0 && !isAllZero(buffer[:n]) {
			allocated.Set(i, true)
		}
		if readErr != nil {
			break
		}
	}

	var regions []Region
	runStart := -1
	for i := 0; i < numChunks; i++ {
		if allocated.Get(i) {
			if runStart == -1 {
				runStart = i
			}
			continue
		}
		if runStart != -1 {
			regions = append(regions, chunkRunToRegion(runStart, i, fileLength))
			runStart = -1
		}
	}
	if runStart != -1 {
		regions = append(regions, chunkRunToRegion(runStart, numChunks, fileLength))
	}
	return regions, nil
}

func chunkRunToRegion(firstChunk, lastChunkExclusive int, fileLength int64) Region {
	start := int64(firstChunk) * scanChunkSize
	end := int64(lastChunkExclusive) * scanChunkSize
	if end > fileLength {
		end = fileLength
	}
	return Region{StartOffset: start, Length: end - start}
}

func isAllZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
