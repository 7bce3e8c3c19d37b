// Package apperr classifies errors into the small set of kinds the agent
// distinguishes: caller mistakes, violated domain constraints, missing
// entities and infrastructure failures. HTTP handlers map kinds to status
// codes without inspecting error text.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindInvariant   Kind = "invariant"
	KindNotFound    Kind = "not_found"
	KindUnavailable Kind = "unavailable"
)

// UnavailableMessage is the only detail an unavailable error ever exposes
// to a caller. Provider and storage internals stay in the server log.
const UnavailableMessage = "maintly agent is temporarily unavailable, try again shortly"

// Error is a classified error. Message is safe to show to callers for every
// kind except KindUnavailable.
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

// Validation marks a malformed request payload.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Invariant marks a well-formed request that violates a domain constraint.
func Invariant(format string, args ...any) error {
	return &Error{Kind: KindInvariant, Message: fmt.Sprintf(format, args...)}
}

// NotFound marks a missing entity.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps an infrastructure failure. The cause is kept for the
// log but never surfaces in the client message.
func Unavailable(cause error) error {
	return &Error{Kind: KindUnavailable, Message: UnavailableMessage, cause: cause}
}

// KindOf returns the error's kind; unclassified errors are treated as
// infrastructure failures.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// ClientMessage returns the text safe to return to the caller.
func ClientMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnavailable {
		return e.Message
	}
	return UnavailableMessage
}

// HTTPStatus maps an error to its response status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvariant:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusServiceUnavailable
	}
}

// IsNotFound reports whether the error is a missing-entity error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
