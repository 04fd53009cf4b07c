// Package apperr defines the error taxonomy shared by storage and API layers.
// Every failure surfaced to a caller is classified into one of a small set of
// kinds, each with a fixed HTTP status mapping. Unclassified errors are
// treated as dependency failures so internal details never leak to clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind enumerates the failure classes the API distinguishes.
type Kind int

const (
	// KindDependency covers storage and upstream-service failures plus any
	// unclassified error. Maps to 500.
	KindDependency Kind = iota
	// KindValidation covers malformed or missing input, including bad id
	// formats. Maps to 400.
	KindValidation
	// KindUnauthenticated covers missing, malformed, or expired credentials.
	// Maps to 401.
	KindUnauthenticated
	// KindForbidden covers authenticated callers acting outside their
	// ownership scope. Maps to 403.
	KindForbidden
	// KindNotFound covers unresolvable resource ids. Maps to 404.
	KindNotFound
	// KindStaleToken covers refresh tokens superseded by a later rotation or
	// logout. Maps to 401.
	KindStaleToken
)

// Error carries a failure kind, a caller-safe message, and an optional cause
// retained for server-side logging only.
type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Error() string {
	return e.msg
}

// Unwrap exposes the cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the failure class.
func (e *Error) Kind() Kind {
	if e == nil {
		return KindDependency
	}
	return e.kind
}

// WithCause attaches an underlying error without changing the caller-visible
// message.
func (e *Error) WithCause(cause error) *Error {
	if e == nil {
		return nil
	}
	return &Error{kind: e.kind, msg: e.msg, cause: cause}
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error {
	return newf(KindValidation, format, args...)
}

func Unauthenticatedf(format string, args ...any) *Error {
	return newf(KindUnauthenticated, format, args...)
}

func Forbiddenf(format string, args ...any) *Error {
	return newf(KindForbidden, format, args...)
}

func NotFoundf(format string, args ...any) *Error {
	return newf(KindNotFound, format, args...)
}

func StaleTokenf(format string, args ...any) *Error {
	return newf(KindStaleToken, format, args...)
}

// Dependency wraps an internal failure with a generic caller-facing message.
// The cause travels with the error for logging but is never rendered to the
// client.
func Dependency(cause error) *Error {
	return &Error{kind: KindDependency, msg: "internal error", cause: cause}
}

// KindOf classifies any error. Errors outside the taxonomy are dependency
// failures by definition.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind()
	}
	return KindDependency
}

// IsKind reports whether err belongs to the given class.
func IsKind(err error, kind Kind) bool {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind() == kind
	}
	return kind == KindDependency && err != nil
}

// HTTPStatus maps an error to the response status used by the API envelope.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated, KindStaleToken:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the caller-safe message for err. Unclassified errors
// collapse to a generic message so internals stay private.
func Message(err error) string {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Error()
	}
	return "internal error"
}
