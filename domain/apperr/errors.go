// Package apperr defines the error kinds shared by all modules and their
// mapping to HTTP status codes.
//
// Errors returned by request-reply services travel between modules as text,
// so an *Error renders as "[kind] message" and FromRemote recovers the kind
// on the calling side.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

// Kind is a stable, machine-readable error category.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindNotAllowed   Kind = "not_allowed"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindBadRequest   Kind = "bad_request"
	KindInternal     Kind = "internal"
)

// InternalMessage is the only message clients ever see for unexpected failures.
const InternalMessage = "Internal server error"

// Error is a domain error carrying a kind and a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and message, so sentinel
// values declared with New work with errors.Is even after a remote hop.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind that keeps cause for logging.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func NotFound(message string) *Error     { return New(KindNotFound, message) }
func NotAllowed(message string) *Error   { return New(KindNotAllowed, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Forbidden(message string) *Error    { return New(KindForbidden, message) }
func BadRequest(message string) *Error   { return New(KindBadRequest, message) }

// Internal wraps an unexpected failure. The cause is never shown to clients.
func Internal(cause error) *Error {
	return Wrap(KindInternal, InternalMessage, cause)
}

// KindOf returns the kind of err, or KindInternal for unrecognised errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-safe message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return InternalMessage
}

// HTTPStatus maps a kind to its HTTP status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindNotAllowed:
		return http.StatusMethodNotAllowed
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindBadRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

var remotePattern = regexp.MustCompile(`\[(not_found|not_allowed|unauthorized|forbidden|bad_request|internal)\] (.*)$`)

// FromRemote rebuilds an *Error from an error that crossed a request-reply
// boundary. Errors without an encoded kind become Internal.
func FromRemote(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	m := remotePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return Internal(err)
	}
	return Wrap(Kind(m[1]), m[2], err)
}
