// Package adshandler implements the ADS Handler (C5): enumeration and
// opening of alternate data streams on an NTFS file.
package adshandler

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/exp/slices"

	ntfserrors "github.com/ntfslive/ntfslive/errors"
	"github.com/ntfslive/ntfslive/ntfsiface"
	"github.com/ntfslive/ntfslive/sparsestream"
)

// Handler enumerates and opens alternate data streams for files served
// by interp.
type Handler struct {
	interp ntfsiface.Interpreter
}

// New creates a Handler over interp.
func New(interp ntfsiface.Interpreter) *Handler {
	return &Handler{interp: interp}
}

// Enumerate returns the ordered, distinct, case-insensitive-deduped
// ADS names on the file at path. Fails with NotFound if path doesn't
// exist.
func (h *Handler) Enumerate(path string) ([]string, error) {
	if !h.interp.FileExists(path) {
		return nil, ntfserrors.New(ntfserrors.KindNotFound).WithPath(path)
	}

	names, err := h.interp.AlternateDataStreams(path)
	if err != nil {
		return nil, ntfserrors.New(ntfserrors.KindAdsOpen).Wrap(err).WithPath(path)
	}

	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return names, nil
}

// Open opens the named ADS on path. The composed logical path is
// "{path}:{adsName}"; if isSparse is set the returned stream is a
// Sparse Stream over that composed path, otherwise it's the
// interpreter's dense stream.
func (h *Handler) Open(path, adsName string, isSparse bool, length int64) (io.ReadSeeker, error) {
	if adsName == "" {
		return nil, ntfserrors.New(ntfserrors.KindInvalidArgument).WithPath(path)
	}
	if !h.interp.FileExists(path) {
		return nil, ntfserrors.New(ntfserrors.KindNotFound).WithPath(path)
	}

	composed := fmt.Sprintf("%s:%s", path, adsName)

	if isSparse {
		stream, err := sparsestream.New(h.interp, composed, length)
		if err != nil {
			return nil, ntfserrors.New(ntfserrors.KindAdsOpen).Wrap(err).WithPath(composed)
		}
		return stream, nil
	}

	stream, err := h.interp.OpenFile(composed)
	if err != nil {
		return nil, ntfserrors.New(ntfserrors.KindAdsOpen).Wrap(err).WithPath(composed)
	}
	return stream, nil
}
