// Package mterror defines the error kinds surfaced by the multitenant layer.
// Every error produced by the layer itself carries one of these kinds;
// backing-store errors pass through wrapped with KindBackend.
package mterror

import (
	"errors"
	"fmt"
)

// Kind is a well-known error category.
type Kind string

const (
	KindInvalidArgument Kind = "InvalidArgument"
	KindUnsupported     Kind = "Unsupported"
	KindNoPhysicalTable Kind = "NoPhysicalTable"
	KindCorrupt         Kind = "Corrupt"
	KindNotFound        Kind = "NotFound"
	KindBackend         Kind = "Backend"
	KindInternal        Kind = "Internal"
)

// Error is the concrete error type of the layer. It carries a Kind, a
// message, and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Newf constructs an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to a cause. Returns nil if cause is nil.
func Wrap(kind Kind, cause error, message string) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf walks the error chain and returns the kind of the outermost Error,
// or KindInternal if the chain holds no Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether the error chain contains an Error of the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}
