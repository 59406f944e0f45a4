package volumestream_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/ntfstest"
	"github.com/ntfslive/ntfslive/volumestream"
)

func buildDevice(t *testing.T) (*ntfstest.FakeDevice, []byte) {
	t.Helper()
	data := ntfstest.RandomImage(t, 512, 8)
	return ntfstest.NewFakeDevice(t, data, 512), data
}

func TestReadUnalignedSpanCrossesSectors(t *testing.T) {
	device, data := buildDevice(t)
	stream := volumestream.New(device)

	_, err := stream.Seek(500, io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 40)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 40, n)
	assert.Equal(t, data[500:540], buf)
}

func TestReadClampsToVolumeLength(t *testing.T) {
	device, data := buildDevice(t)
	stream := volumestream.New(device)

	_, err := stream.Seek(int64(len(data)-10), io.SeekStart)
	require.NoError(t, err)

	buf := make([]byte, 100)
	n, err := stream.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestReadAtDoesNotDisturbSequentialPosition(t *testing.T) {
	device, data := buildDevice(t)
	stream := volumestream.New(device)

	_, err := stream.Seek(100, io.SeekStart)
	require.NoError(t, err)

	scratch := make([]byte, 16)
	n, err := stream.ReadAt(scratch, 0)
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.Equal(t, data[0:16], scratch)
	assert.Equal(t, int64(100), stream.Position())
}

func TestSeekNegativeFails(t *testing.T) {
	device, _ := buildDevice(t)
	stream := volumestream.New(device)

	_, err := stream.Seek(-1, io.SeekStart)
	require.Error(t, err)
	assert.True(t, ntfserrors.Is(err, ntfserrors.KindInvalidSeek))
}
