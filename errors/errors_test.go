package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
)

func TestIsMatchesSentinelAcrossWrap(t *testing.T) {
	cause := fmt.Errorf("device timeout")
	err := ntfserrors.New(ntfserrors.KindDeviceIO).WithPath(`C:\Windows`).Wrap(cause)

	assert.True(t, errors.Is(err, ntfserrors.ErrDeviceIO))
	assert.False(t, errors.Is(err, ntfserrors.ErrNotFound))
	assert.True(t, ntfserrors.Is(err, ntfserrors.KindDeviceIO))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := ntfserrors.New(ntfserrors.KindAdsOpen).Wrap(cause)

	require.Equal(t, cause, errors.Unwrap(err))
}

func TestWithMessageChains(t *testing.T) {
	err := ntfserrors.New(ntfserrors.KindInvalidArgument).
		WithMessage("empty ads name").
		WithPath(`C:\foo.txt`)

	assert.Contains(t, err.Error(), "empty ads name")
	assert.Contains(t, err.Error(), `C:\foo.txt`)
}

func TestNewfFormatsMessage(t *testing.T) {
	err := ntfserrors.Newf(ntfserrors.KindLinkRecursion, "depth %d exceeds max", 11)
	assert.Contains(t, err.Error(), "depth 11 exceeds max")
	assert.Equal(t, ntfserrors.KindLinkRecursion, err.Kind)
}
