// Package errors defines the tagged error kinds surfaced by the core
// reader stack, grounded on the teacher's two-tier DriverError design
// (a sentinel kind plus a chainable wrapper carrying path context).
package errors

import "fmt"

// Error is the concrete error type returned by the core packages. It
// carries the offending path (when meaningful) and an optional wrapped
// cause, and compares equal (via Is) to the bare Kind sentinel.
type Error struct {
	Kind    Kind
	Path    string
	message string
	cause   error
}

// New creates an Error of the given kind with a default message derived
// from the kind itself.
func New(kind Kind) *Error {
	return &Error{Kind: kind, message: string(kind)}
}

// Newf builds an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.cause.Error())
	}
	return msg
}

// Unwrap exposes the wrapped cause, if any, for errors.Unwrap/errors.As.
func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is the bare sentinel for e's Kind, or
// another *Error with the same Kind, so callers can write
// errors.Is(err, ntfserrors.ErrNotFound) regardless of message detail.
func (e *Error) Is(target error) bool {
	if s, ok := target.(kindSentinel); ok {
		return s.kind == e.Kind
	}
	if other, ok := target.(*Error); ok {
		return other.Kind == e.Kind
	}
	return false
}

// WithMessage returns a copy of e with message appended, mirroring the
// teacher's DriverError.WithMessage chainable builder.
func (e *Error) WithMessage(message string) *Error {
	clone := *e
	if clone.message == "" {
		clone.message = message
	} else {
		clone.message = fmt.Sprintf("%s: %s", clone.message, message)
	}
	return &clone
}

// WithPath returns a copy of e annotated with the path that triggered it.
func (e *Error) WithPath(path string) *Error {
	clone := *e
	clone.Path = path
	return &clone
}

// Wrap returns a copy of e with err recorded as the underlying cause.
func (e *Error) Wrap(err error) *Error {
	clone := *e
	clone.cause = err
	return &clone
}
