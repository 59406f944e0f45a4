package sparsestream_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntfslive/ntfslive/ntfsiface"
	"github.com/ntfslive/ntfslive/ntfstest"
	"github.com/ntfslive/ntfslive/sparsestream"
)

// buildSparseFixture creates a $J stream whose dense content is "AAAA"
// at offset 0 and "BBBB" at offset 16, nominal length 20, with an
// explicit hole between them, matching spec.md §8's S2 scenario shape.
// The fake keys ADS content and extents by the base file, so the
// stream is attached with AddADS and the extents set on the base path.
func buildSparseFixture(t *testing.T) *ntfstest.FakeInterpreter {
	t.Helper()
	interp := ntfstest.NewFakeInterpreter(4096)
	interp.AddDir("", ntfsiface.RawStat{})

	dense := make([]byte, 20)
	copy(dense[0:4], []byte("AAAA"))
	copy(dense[16:20], []byte("BBBB"))
	interp.AddFile(`$Extend\$UsnJrnl`, nil, 0, ntfsiface.RawStat{Attributes: ntfsiface.AttrSparseFile})
	interp.AddADS(`$Extend\$UsnJrnl`, "$J", dense)
	interp.SetExtents(`$Extend\$UsnJrnl`, []ntfsiface.Extent{
		{StartOffset: 0, Length: 4},
		{StartOffset: 16, Length: 4},
	})
	return interp
}

func TestSparseStreamSkipsHoles(t *testing.T) {
	interp := buildSparseFixture(t)
	stream, err := sparsestream.New(interp, `$Extend\$UsnJrnl:$J`, 20)
	require.NoError(t, err)

	assert.Equal(t, int64(20), stream.Len())
	assert.False(t, stream.Degraded())

	buf := make([]byte, 4)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "AAAA", string(buf))

	// Cursor now sits in the hole at offset 4; the next read reports a
	// short read (0 bytes, no error) and skips to the next region.
	n, err = stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, int64(16), stream.Position())

	n, err = stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "BBBB", string(buf))

	n, err = stream.Read(buf)
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestSparseStreamSeekRecomputesRegionIndex(t *testing.T) {
	interp := buildSparseFixture(t)
	stream, err := sparsestream.New(interp, `$Extend\$UsnJrnl:$J`, 20)
	require.NoError(t, err)

	pos, err := stream.Seek(18, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(18), pos)

	buf := make([]byte, 4)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "BB", string(buf[:2]))
}

func TestRegionsNonOverlappingAndSorted(t *testing.T) {
	interp := buildSparseFixture(t)
	stream, err := sparsestream.New(interp, `$Extend\$UsnJrnl:$J`, 20)
	require.NoError(t, err)

	regions := stream.Regions()
	var total int64
	for i, r := range regions {
		assert.GreaterOrEqual(t, r.StartOffset, int64(0))
		assert.Less(t, r.StartOffset, int64(20))
		if i > 0 {
			assert.Greater(t, r.StartOffset, regions[i-1].StartOffset)
		}
		total += r.Length
	}
	assert.LessOrEqual(t, total, int64(20))
}

func TestDegradedFallbackWhenExtentsUnavailable(t *testing.T) {
	interp := ntfstest.NewFakeInterpreter(4096)
	interp.AddDir("", ntfsiface.RawStat{})
	dense := make([]byte, 8)
	copy(dense[0:4], []byte("DATA"))
	interp.AddFile("sparse.bin", dense, 8, ntfsiface.RawStat{Attributes: ntfsiface.AttrSparseFile})
	// No SetExtents call: DataRuns reports ok=false, forcing the
	// content-scanning fallback.

	stream, err := sparsestream.New(interp, "sparse.bin", 8)
	require.NoError(t, err)
	assert.True(t, stream.Degraded())
}
