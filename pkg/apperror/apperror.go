package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error so handlers and UI clients can branch on it
// instead of matching message strings.
type Kind string

const (
	KindValidation   Kind = "validation_error" // bad input: missing field, non-positive amount
	KindInvalidState Kind = "invalid_state"    // operation not permitted in the current status
	KindConflict     Kind = "conflict"         // duplicate sale, concurrent transition race
	KindNotFound     Kind = "not_found"        // unknown id
	KindExternal     Kind = "external_error"   // pricing/invoicing collaborator failure
)

// Error is a typed domain error carrying its kind alongside the message.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, optional
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func External(message string, cause error) *Error {
	return &Error{Kind: KindExternal, Message: message, Err: cause}
}

// KindOf extracts the kind from an error chain; unclassified errors report
// an empty kind and should be treated as internal.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// HTTPStatus maps an error to the status code the API contract promises:
// 400 validation, 404 not found, 409 conflict and invalid transition,
// 502 collaborator failure, 500 everything else.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInvalidState:
		return http.StatusConflict
	case KindExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
