package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an expected failure so handlers can map it to an HTTP
// status without string matching.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindInvalidInput
	KindInvalidState
	KindForbidden
	KindUnauthorized
	KindConflict // reserved for optimistic locking
)

// Error carries a kind plus a human-readable message. Services return these
// for expected conditions instead of panicking or leaking store errors.
type Error struct {
	Kind    Kind
	Message string
	Err     error // optional wrapped cause
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind with a formatted message
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...interface{}) error {
	return New(KindNotFound, format, args...)
}

func InvalidInput(format string, args ...interface{}) error {
	return New(KindInvalidInput, format, args...)
}

func InvalidState(format string, args ...interface{}) error {
	return New(KindInvalidState, format, args...)
}

func Forbidden(format string, args ...interface{}) error {
	return New(KindForbidden, format, args...)
}

func Unauthorized(format string, args ...interface{}) error {
	return New(KindUnauthorized, format, args...)
}

// KindOf extracts the kind from an error chain, defaulting to KindInternal
// for anything untyped (store failures, programming errors).
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error to the status code the API contract promises
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput, KindInvalidState:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
