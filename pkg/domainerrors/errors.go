// Package domainerrors defines the error vocabulary services hand to the
// transport layer. Each error carries a Code so HTTP translation happens in
// exactly one place instead of being scattered through handlers.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	// CodeBadRequest covers malformed or invalid client input.
	CodeBadRequest Code = "bad_request"
	// CodeConflict marks an attempt to create something that already exists.
	CodeConflict Code = "conflict"
	// CodeUnprocessable marks client-supplied content that parsed but could
	// not be processed (for example an attachment that fails to decode).
	CodeUnprocessable Code = "unprocessable"
	// CodeNotFound marks a lookup for something that does not exist.
	CodeNotFound Code = "not_found"
	// CodeInternal covers server-side processing and storage failures.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable code and a human-readable message.
// The message is what callers see verbatim in responses.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// New builds a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf builds a domain error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a cause to a domain error while keeping the outward message.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Is reports whether err is a domain error carrying the given code.
func Is(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for anything
// that is not a domain error.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the response classification. Client-input
// problems are 400 regardless of flavor; everything unexpected is 500.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeConflict, CodeUnprocessable:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
