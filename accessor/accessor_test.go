package accessor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntfslive/ntfslive"
	"github.com/ntfslive/ntfslive/accessor"
	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/ntfstest"
)

// TestOpenFailsOnInvalidVolume exercises the construction-failure path
// spec.md §7 documents: a device that isn't a parseable NTFS volume
// must fail fast with InvalidVolume, and Open must have already closed
// the device by the time it returns. The functional behavior of every
// other Accessor method (disposed-flag gating, delegation into C4-C8)
// is covered at the filereader/dirreader/adshandler layer against
// ntfstest.FakeInterpreter, since building a real NTFS-formatted fixture
// image is out of scope for a unit test.
func TestOpenFailsOnInvalidVolume(t *testing.T) {
	dev := ntfstest.NewFakeDevice(t, make([]byte, 512*64), 512)
	_, err := accessor.Open(dev, "C:", "", ntfslive.DefaultOptions(), nil)
	require.Error(t, err)
	assert.True(t, ntfserrors.Is(err, ntfserrors.KindInvalidVolume))
}
