package linkresolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntfslive/ntfslive/linkresolver"
	"github.com/ntfslive/ntfslive/ntfstest"
)

// TestParseReparseBufferProbesOffset0ByDefault and
// TestParseReparseBufferProbesOffset8WhenTagHeaderPresent pin the
// dual-offset probe SPEC_FULL.md §6 documents, and its ProbeStats
// diagnostic counter.
func TestParseReparseBufferProbesOffset0ByDefault(t *testing.T) {
	linkresolver.ResetProbeStats()
	payload := ntfstest.BuildMountPointPayload(`\??\C:\Users`)

	parsed, err := linkresolver.ParseReparseBuffer(linkresolver.TagMountPoint, payload, true)
	require.NoError(t, err)
	assert.Equal(t, 0, parsed.HeaderOffset)
	assert.Equal(t, `\??\C:\Users`, parsed.RawTarget)

	offset0, offset8 := linkresolver.ProbeStats()
	assert.Equal(t, int64(1), offset0)
	assert.Equal(t, int64(0), offset8)
}

func TestParseReparseBufferProbesOffset8WhenTagHeaderPresent(t *testing.T) {
	linkresolver.ResetProbeStats()
	payload := ntfstest.WithTagHeader(linkresolver.TagMountPoint, ntfstest.BuildMountPointPayload(`\??\C:\Users`))

	parsed, err := linkresolver.ParseReparseBuffer(linkresolver.TagMountPoint, payload, true)
	require.NoError(t, err)
	assert.Equal(t, 8, parsed.HeaderOffset)
	assert.Equal(t, `\??\C:\Users`, parsed.RawTarget)

	offset0, offset8 := linkresolver.ProbeStats()
	assert.Equal(t, int64(0), offset0)
	assert.Equal(t, int64(1), offset8)
}
