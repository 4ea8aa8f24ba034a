// Package apperr defines the application error taxonomy. Every error that
// crosses a service boundary carries a stable machine-readable code and the
// HTTP status it maps to, so handlers never have to inspect error strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an error with an explicit HTTP status.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Validation reports malformed or out-of-range input.
func Validation(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

// NotFound reports a missing referenced entity.
func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message)
}

// Forbidden reports an authenticated but unauthorized actor.
func Forbidden(code, message string) *Error {
	return New(http.StatusForbidden, code, message)
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(code, message string) *Error {
	return New(http.StatusUnauthorized, code, message)
}

// InvalidState reports an operation that is not legal in the entity's
// current lifecycle state. Surfaced as 400 to match the existing API.
func InvalidState(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

// Conflict reports a uniqueness violation, e.g. a duplicate mint. The
// existing API answers these with 400 rather than 409, so we keep that.
func Conflict(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

// Internal wraps an unexpected failure. The wrapped error is kept for logs
// but never serialized to the caller.
func Internal(err error) *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
		Err:     err,
	}
}

// From returns err as an *Error, wrapping unknown errors as Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// CodeOf returns the machine-readable code of err, or INTERNAL_ERROR for
// errors outside the taxonomy.
func CodeOf(err error) string {
	return From(err).Code
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
