package rangefs

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by this package matches exactly one of
// the kinds below under errors.Is.
var (
	// ErrConnection indicates the store could not be reached.
	ErrConnection = errors.New("rangefs: connection failed")

	// ErrEnumeration indicates listing a container's contents failed.
	ErrEnumeration = errors.New("rangefs: enumeration failed")

	// ErrOpen indicates a handle could not be opened.
	ErrOpen = errors.New("rangefs: open failed")

	// ErrFetch indicates the store rejected or failed a range request.
	ErrFetch = errors.New("rangefs: range fetch failed")

	// ErrStream indicates a range response body could not be fully drained.
	ErrStream = errors.New("rangefs: response stream incomplete")

	// ErrOutOfBounds indicates a seek target outside [0, size].
	ErrOutOfBounds = errors.New("rangefs: seek out of bounds")

	// ErrUnsupportedSeek indicates an unknown seek anchor.
	ErrUnsupportedSeek = errors.New("rangefs: unsupported seek")
)

// Transport-level conditions.
var (
	// ErrNotFound indicates a container or object does not exist.
	ErrNotFound = errors.New("rangefs: not found")

	// ErrInvalidConfig indicates an unusable ConnectionConfig.
	ErrInvalidConfig = errors.New("rangefs: invalid configuration")

	// ErrUnknownCodec indicates a codec or compressor name is not registered.
	ErrUnknownCodec = errors.New("rangefs: unknown codec")
)

// Error records the operation and object a failure belongs to.
//
// Kind is one of the package error kinds; Err is the underlying cause and may
// be nil. errors.Is matches both.
type Error struct {
	Op        string
	Kind      error
	Container string
	Key       string
	Err       error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	switch {
	case e.Container != "" && e.Key != "":
		msg = fmt.Sprintf("%s %s/%s: %s", e.Op, e.Container, e.Key, msg)
	case e.Container != "":
		msg = fmt.Sprintf("%s %s: %s", e.Op, e.Container, msg)
	default:
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op string, kind error, container, key string, err error) *Error {
	return &Error{Op: op, Kind: kind, Container: container, Key: key, Err: err}
}
