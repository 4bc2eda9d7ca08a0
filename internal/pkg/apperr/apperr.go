package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the HTTP adapter. Domain errors are masked
// before a client sees them; everything else is surfaced verbatim.
type Kind int

const (
	KindDomain Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindAuthorization
	KindResourceFailure
)

// Error is a tagged application error. Code is a stable machine-readable
// identifier (e.g. "ExchangeFileNotFound") the adapter maps to client codes.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newf(kind Kind, code, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(code, format string, args ...interface{}) *Error {
	return newf(KindNotFound, code, format, args...)
}

func Conflict(code, format string, args ...interface{}) *Error {
	return newf(KindConflict, code, format, args...)
}

func Validation(code, format string, args ...interface{}) *Error {
	return newf(KindValidation, code, format, args...)
}

func Authorization(code, format string, args ...interface{}) *Error {
	return newf(KindAuthorization, code, format, args...)
}

// ResourceFailure wraps an infrastructure error (S3, remote API). The client
// sees the generic message; the cause is kept for logging.
func ResourceFailure(code string, err error) *Error {
	return &Error{Kind: KindResourceFailure, Code: code, Message: "a dependent service failed", Err: err}
}

// KindOf returns the Kind of err, or KindDomain for untagged errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindDomain
}

// CodeOf returns the stable code of err, or "" for untagged errors.
func CodeOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return CodeOf(err) == code
}
