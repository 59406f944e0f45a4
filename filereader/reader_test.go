package filereader_test

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntfslive/ntfslive"
	"github.com/ntfslive/ntfslive/adshandler"
	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/filereader"
	"github.com/ntfslive/ntfslive/linkresolver"
	"github.com/ntfslive/ntfslive/ntfsiface"
	"github.com/ntfslive/ntfslive/ntfstest"
)

// fakeDestination is an in-memory ntfslive.Destination, enough to
// exercise Copy's full fan-out without touching a real filesystem.
type fakeDestination struct {
	primary map[string][]byte
	ads     map[string]map[string][]byte
	dirs    map[string]bool
}

func newFakeDestination() *fakeDestination {
	return &fakeDestination{
		primary: make(map[string][]byte),
		ads:     make(map[string]map[string][]byte),
		dirs:    make(map[string]bool),
	}
}

func (d *fakeDestination) Exists(path string) bool {
	_, ok := d.primary[path]
	return ok
}

func (d *fakeDestination) EnsureDir(path string) error {
	d.dirs[path] = true
	return nil
}

type writeBuf struct {
	*bytes.Buffer
	commit func([]byte)
}

func (w *writeBuf) Close() error {
	w.commit(w.Buffer.Bytes())
	return nil
}

func (d *fakeDestination) CreatePrimary(path string) (io.WriteCloser, error) {
	buf := &bytes.Buffer{}
	return &writeBuf{Buffer: buf, commit: func(b []byte) { d.primary[path] = b }}, nil
}

func (d *fakeDestination) CreateADS(path, adsName string) (io.WriteCloser, error) {
	if d.ads[path] == nil {
		d.ads[path] = make(map[string][]byte)
	}
	buf := &bytes.Buffer{}
	return &writeBuf{Buffer: buf, commit: func(b []byte) { d.ads[path][adsName] = b }}, nil
}

func (d *fakeDestination) SetTimestamps(path string, creation, lastWrite, lastAccess time.Time) error {
	return nil
}

func (d *fakeDestination) SetAttributes(path string, attrs ntfslive.Attributes) error {
	return nil
}

func buildFixture(t *testing.T) (*ntfstest.FakeInterpreter, *filereader.Reader) {
	t.Helper()
	interp := ntfstest.NewFakeInterpreter(4096)
	interp.AddDir("", ntfsiface.RawStat{})
	interp.AddFile("report.docx", []byte("A"), 1, ntfsiface.RawStat{})
	interp.AddADS("report.docx", "ads1", []byte("X"))
	interp.AddADS("report.docx", "ads2", []byte("Y"))
	interp.AddADS("report.docx", "bigstream", []byte("HELLO WORLD"))

	resolver := linkresolver.New(interp, "C:", "", linkresolver.Options{
		MaxLinkDepth: 10, FollowRelativeLinks: true,
	})
	reader := filereader.New(interp, adshandler.New(interp), resolver, ntfslive.DefaultOptions(), nil)
	return interp, reader
}

func TestExists(t *testing.T) {
	_, reader := buildFixture(t)
	assert.True(t, reader.Exists("report.docx"))
	assert.False(t, reader.Exists("missing.docx"))
}

func TestFileInfoPopulatesADSNames(t *testing.T) {
	_, reader := buildFixture(t)
	record, err := reader.FileInfo("report.docx", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"ads1", "ads2", "bigstream"}, record.AdsNames)
	assert.Equal(t, int64(1), record.Size)
}

func TestFileInfoOnADSPathReportsStreamOwnSize(t *testing.T) {
	_, reader := buildFixture(t)

	record, err := reader.FileInfo("report.docx:bigstream", true)
	require.NoError(t, err)
	assert.Equal(t, int64(len("HELLO WORLD")), record.Size, "an ADS's Size must be its own stream length, not the base file's")
	assert.Empty(t, record.AdsNames, "FileInfo on an ADS path doesn't enumerate the base file's other streams")

	baseRecord, err := reader.FileInfo("report.docx", true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), baseRecord.Size, "base file's own Size is unaffected by ADS sizes")
}

func TestFileInfoNotFound(t *testing.T) {
	_, reader := buildFixture(t)
	_, err := reader.FileInfo("missing.docx", true)
	require.Error(t, err)
	assert.True(t, ntfserrors.Is(err, ntfserrors.KindNotFound))
}

func TestCopyFansOutPrimaryAndADS(t *testing.T) {
	_, reader := buildFixture(t)
	dest := newFakeDestination()

	err := reader.Copy("report.docx", `C:\Temp\report.docx`, false, dest)
	require.NoError(t, err)

	assert.Equal(t, "A", string(dest.primary[`C:\Temp\report.docx`]))
	assert.Equal(t, "X", string(dest.ads[`C:\Temp\report.docx`]["ads1"]))
	assert.Equal(t, "Y", string(dest.ads[`C:\Temp\report.docx`]["ads2"]))
}

func TestCopyRefusesOverwriteWhenExists(t *testing.T) {
	_, reader := buildFixture(t)
	dest := newFakeDestination()
	dest.primary[`C:\Temp\report.docx`] = []byte("existing")

	err := reader.Copy("report.docx", `C:\Temp\report.docx`, false, dest)
	require.Error(t, err)
	assert.True(t, ntfserrors.Is(err, ntfserrors.KindAlreadyExists))
}
