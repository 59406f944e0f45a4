// This file holds the Kind taxonomy and bare sentinels used to classify
// errors raised by the core reader stack. Each Kind corresponds to one
// row of the error surface table: InvalidArgument, NotFound,
// InvalidVolume, DeviceIo, UnsupportedReparseTag, LinkRecursion,
// AdsOpen, AttributeRead, DestinationWrite, AlreadyExists, Disposed,
// NotSupported, plus InvalidSeek for stream seeks to a negative
// position or with an unknown whence.

package errors

import "errors"

// Kind identifies one entry in the error taxonomy. Kind values are
// comparable and are what callers should switch on or compare against
// with errors.Is, not the formatted message text.
type Kind string

const (
	KindInvalidArgument       Kind = "invalid argument"
	KindNotFound              Kind = "no such file or directory"
	KindInvalidVolume         Kind = "not an NTFS volume"
	KindDeviceIO              Kind = "device I/O failure"
	KindUnsupportedReparseTag Kind = "unsupported reparse tag"
	KindLinkRecursion         Kind = "link recursion"
	KindAdsOpen               Kind = "alternate data stream could not be opened"
	KindAttributeRead         Kind = "attribute unreadable"
	KindDestinationWrite      Kind = "destination write failure"
	KindAlreadyExists         Kind = "destination already exists"
	KindDisposed              Kind = "accessor disposed"
	KindNotSupported          Kind = "operation not supported"
	KindInvalidSeek           Kind = "invalid seek"
)

// kindSentinel is a bare Kind wrapped as an error with no path or cause,
// usable as an errors.Is target. It mirrors the teacher's DiskoError
// string-constant sentinels.
type kindSentinel struct {
	kind Kind
}

func (s kindSentinel) Error() string { return string(s.kind) }

// Exported sentinels, one per Kind, for comparisons via errors.Is.
var (
	ErrInvalidArgument       error = kindSentinel{KindInvalidArgument}
	ErrNotFound              error = kindSentinel{KindNotFound}
	ErrInvalidVolume         error = kindSentinel{KindInvalidVolume}
	ErrDeviceIO              error = kindSentinel{KindDeviceIO}
	ErrUnsupportedReparseTag error = kindSentinel{KindUnsupportedReparseTag}
	ErrLinkRecursion         error = kindSentinel{KindLinkRecursion}
	ErrAdsOpen               error = kindSentinel{KindAdsOpen}
	ErrAttributeRead         error = kindSentinel{KindAttributeRead}
	ErrDestinationWrite      error = kindSentinel{KindDestinationWrite}
	ErrAlreadyExists         error = kindSentinel{KindAlreadyExists}
	ErrDisposed              error = kindSentinel{KindDisposed}
	ErrNotSupported          error = kindSentinel{KindNotSupported}
	ErrInvalidSeek           error = kindSentinel{KindInvalidSeek}
)

// Is reports whether err's Kind matches kind, unwrapping through any
// chain built with Error.Wrap.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
