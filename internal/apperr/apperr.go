// Package apperr defines the error taxonomy of the matchmaking core.
//
// Callers branch on the kind: Validation is rejected before any write,
// StateConflict and NotFound are distinct so UI messaging can differ,
// Expired covers the undo window, and anything else wrapping a storage
// failure means the whole transaction rolled back.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindStateConflict
	KindNotFound
	KindExpired
)

// Error carries a kind plus a caller-facing message. The wrapped cause, if
// any, is for logs only.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func StateConflict(format string, args ...any) *Error {
	return &Error{Kind: KindStateConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Expired(format string, args ...any) *Error {
	return &Error{Kind: KindExpired, Message: fmt.Sprintf(format, args...)}
}

// Storage wraps a persistence failure. The multi-row operation it came from
// has been rolled back in full. A cause that already carries a kind passes
// through unchanged, so domain errors raised inside a transaction keep
// their meaning at the call site.
func Storage(op string, cause error) *Error {
	var e *Error
	if errors.As(cause, &e) {
		return e
	}
	return &Error{Kind: KindInternal, Message: op + " failed", cause: cause}
}

// KindOf extracts the kind from any error in the chain, defaulting to
// KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func IsValidation(err error) bool    { return KindOf(err) == KindValidation }
func IsStateConflict(err error) bool { return KindOf(err) == KindStateConflict }
func IsNotFound(err error) bool      { return KindOf(err) == KindNotFound }
func IsExpired(err error) bool       { return KindOf(err) == KindExpired }
