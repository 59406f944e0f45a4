package dirreader_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntfslive/ntfslive"
	"github.com/ntfslive/ntfslive/adshandler"
	"github.com/ntfslive/ntfslive/dirreader"
	"github.com/ntfslive/ntfslive/filereader"
	"github.com/ntfslive/ntfslive/linkresolver"
	"github.com/ntfslive/ntfslive/ntfsiface"
	"github.com/ntfslive/ntfslive/ntfstest"
)

func buildTree(t *testing.T) *dirreader.Reader {
	t.Helper()
	interp := ntfstest.NewFakeInterpreter(4096)
	interp.AddDir("", ntfsiface.RawStat{})
	interp.AddDir("docs", ntfsiface.RawStat{})
	interp.AddFile(`docs\a.txt`, []byte("a"), 1, ntfsiface.RawStat{})
	interp.AddFile(`docs\b.log`, []byte("b"), 1, ntfsiface.RawStat{})
	interp.AddDir(`docs\sub`, ntfsiface.RawStat{})
	interp.AddFile(`docs\sub\c.txt`, []byte("c"), 1, ntfsiface.RawStat{})

	resolver := linkresolver.New(interp, "C:", "", linkresolver.Options{MaxLinkDepth: 10})
	files := filereader.New(interp, adshandler.New(interp), resolver, ntfslive.DefaultOptions(), nil)
	return dirreader.New(interp, files, resolver, ntfslive.DefaultOptions(), nil)
}

func TestListFilesNonRecursivePattern(t *testing.T) {
	reader := buildTree(t)

	records, err := reader.ListFiles("docs", "*.txt", false, true)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `docs\a.txt`, records[0].FullPath)
}

func TestListFilesRecursiveDescendsSubdirectories(t *testing.T) {
	reader := buildTree(t)

	records, err := reader.ListFiles("docs", "*", true, true)
	require.NoError(t, err)

	var paths []string
	for _, r := range records {
		paths = append(paths, r.FullPath)
	}
	assert.Contains(t, paths, `docs\a.txt`)
	assert.Contains(t, paths, `docs\b.log`)
	assert.Contains(t, paths, `docs\sub\c.txt`)
}

func TestListDirsFindsSubdirectory(t *testing.T) {
	reader := buildTree(t)

	records, err := reader.ListDirs("docs", "*", false, true)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, `docs\sub`, records[0].FullPath)
}

func TestExistsAndDirInfo(t *testing.T) {
	reader := buildTree(t)
	assert.True(t, reader.Exists("docs"))
	assert.False(t, reader.Exists("missing"))

	record, err := reader.DirInfo("docs", true)
	require.NoError(t, err)
	assert.Equal(t, "docs", record.FullPath)
}
