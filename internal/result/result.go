// Package result implements the success/failure outcome envelope used at
// every operation boundary of the application. Fallible operations return a
// Result instead of a bare error so that callers must branch on the outcome
// before touching the payload, and so that a machine-readable failure Kind
// travels with the message (handlers map kinds to HTTP statuses instead of
// sniffing message text).
package result

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch without parsing messages.
type Kind string

const (
	// KindNone is the kind carried by successful results.
	KindNone Kind = ""
	// KindValidation marks input rejected before any I/O was performed.
	KindValidation Kind = "validation"
	// KindExternal marks a non-2xx or unparseable response from the
	// external integration.
	KindExternal Kind = "external_service"
	// KindNetwork marks a transport-level failure reaching the external
	// integration.
	KindNetwork Kind = "network"
	// KindNotFound marks a lookup that matched nothing.
	KindNotFound Kind = "not_found"
	// KindInternal marks an unexpected fault caught at an operation boundary.
	KindInternal Kind = "internal"
)

// ErrInvalidResult is returned by New when the requested construction
// violates the result invariant: a success carrying an error, or a failure
// without one.
var ErrInvalidResult = errors.New("result: success must not carry an error and failure must carry a kind and message")

// Result holds exactly one of a success value or a failure (kind + message).
// The zero value is a success carrying the zero value of T; prefer the
// constructors. Result values are immutable once constructed.
type Result[T any] struct {
	ok      bool
	value   T
	kind    Kind
	message string
}

// New is the validated constructor. It rejects, with ErrInvalidResult, any
// construction that would break the invariant: success with a non-empty
// message or a kind, or failure with an empty message or no kind.
func New[T any](ok bool, value T, kind Kind, message string) (Result[T], error) {
	if ok && (message != "" || kind != KindNone) {
		return Result[T]{}, ErrInvalidResult
	}
	if !ok && (message == "" || kind == KindNone) {
		return Result[T]{}, ErrInvalidResult
	}
	return Result[T]{ok: ok, value: value, kind: kind, message: message}, nil
}

// Success returns a successful result carrying value.
func Success[T any](value T) Result[T] {
	r, _ := New(true, value, KindNone, "")
	return r
}

// Failure returns a failed result carrying kind and message.
//
// Constructing a failure without a kind or message is a programmer error and
// panics (Must-style); use New when the inputs are not statically known to
// be valid.
func Failure[T any](kind Kind, message string) Result[T] {
	var zero T
	r, err := New(false, zero, kind, message)
	if err != nil {
		panic(err)
	}
	return r
}

// Failuref is Failure with fmt.Sprintf formatting of the message.
func Failuref[T any](kind Kind, format string, args ...any) Result[T] {
	return Failure[T](kind, fmt.Sprintf(format, args...))
}

// IsSuccess reports whether the result carries a value.
func (r Result[T]) IsSuccess() bool { return r.ok }

// IsFailure reports whether the result carries an error.
func (r Result[T]) IsFailure() bool { return !r.ok }

// Value returns the carried value. It is the zero value of T on failure.
func (r Result[T]) Value() T { return r.value }

// Kind returns the failure classification, or KindNone on success.
func (r Result[T]) Kind() Kind { return r.kind }

// Error returns the failure message, or "" on success.
func (r Result[T]) Error() string { return r.message }
