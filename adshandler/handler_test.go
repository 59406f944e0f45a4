package adshandler_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntfslive/ntfslive/adshandler"
	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/ntfsiface"
	"github.com/ntfslive/ntfslive/ntfstest"
)

func buildFixture(t *testing.T) *ntfstest.FakeInterpreter {
	t.Helper()
	interp := ntfstest.NewFakeInterpreter(4096)
	interp.AddDir("", ntfsiface.RawStat{})
	interp.AddFile("report.docx", []byte("A"), 1, ntfsiface.RawStat{})
	interp.AddADS("report.docx", "ads2", []byte("Y"))
	interp.AddADS("report.docx", "ads1", []byte("X"))
	return interp
}

func TestEnumerateReturnsSortedDistinctNames(t *testing.T) {
	interp := buildFixture(t)
	handler := adshandler.New(interp)

	names, err := handler.Enumerate("report.docx")
	require.NoError(t, err)
	assert.Equal(t, []string{"ads1", "ads2"}, names)
}

func TestEnumerateNotFound(t *testing.T) {
	interp := buildFixture(t)
	handler := adshandler.New(interp)

	_, err := handler.Enumerate("missing.docx")
	require.Error(t, err)
	assert.True(t, ntfserrors.Is(err, ntfserrors.KindNotFound))
}

func TestOpenDenseADS(t *testing.T) {
	interp := buildFixture(t)
	handler := adshandler.New(interp)

	stream, err := handler.Open("report.docx", "ads1", false, 1)
	require.NoError(t, err)
	data, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Equal(t, "X", string(data))
}

func TestOpenRejectsEmptyName(t *testing.T) {
	interp := buildFixture(t)
	handler := adshandler.New(interp)

	_, err := handler.Open("report.docx", "", false, 1)
	require.Error(t, err)
	assert.True(t, ntfserrors.Is(err, ntfserrors.KindInvalidArgument))
}
