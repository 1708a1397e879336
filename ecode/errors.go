package ecode

import (
	"fmt"
	"net/http"
)

// Business error codes. Convention follows the standard numbering scheme:
// -100s authentication/authorization, -400s request, -404/-409 resources,
// -500s server faults.
const (
	OK = 0

	Unauthorized       = -100
	CredentialsInvalid = -101
	TokenInvalid       = -102
	AccessDenied       = -103

	RequestErr = -400
	ParamErr   = -401

	NothingFound = -404
	Conflict     = -409
	StaleWrite   = -410

	ServerErr = -500
)

var messages = map[int]string{
	OK:                 "success",
	Unauthorized:       "Authentication required",
	CredentialsInvalid: "Invalid username or password",
	TokenInvalid:       "Invalid or expired token",
	AccessDenied:       "Access denied",
	RequestErr:         "Invalid request",
	ParamErr:           "Invalid parameters",
	NothingFound:       "Resource not found",
	Conflict:           "Resource conflict",
	StaleWrite:         "Resource was modified concurrently, please retry",
	ServerErr:          "An unexpected error occurred",
}

// Text returns the human-readable message for a code.
func Text(code int) string {
	if msg, ok := messages[code]; ok {
		return msg
	}
	return messages[ServerErr]
}

// ToHTTPStatus maps a business code to an HTTP status.
func ToHTTPStatus(code int) int {
	switch code {
	case OK:
		return http.StatusOK
	case Unauthorized, CredentialsInvalid, TokenInvalid:
		return http.StatusUnauthorized
	case AccessDenied:
		return http.StatusForbidden
	case RequestErr, ParamErr:
		return http.StatusBadRequest
	case NothingFound:
		return http.StatusNotFound
	case Conflict, StaleWrite:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes a single field-level validation failure.
type FieldError struct {
	Field         string `json:"field,omitempty"`
	Code          string `json:"code,omitempty"`
	Message       string `json:"message"`
	RejectedValue any    `json:"rejectedValue,omitempty"`
}

// Error is the single tagged error type used across the service. Fine-grained
// causes (e.g. which of malformed/signature/expired failed a token) stay in
// the wrapped cause and server logs; only the Code reaches the wire.
type Error struct {
	Code       int
	Message    string
	Fields     []FieldError
	Properties map[string]any
	cause      error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return Text(e.Code)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code, so sentinels
// created by New compare with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// WithCause returns a copy carrying the underlying cause for logging.
func (e *Error) WithCause(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

// WithProperty returns a copy with an attached key/value property.
func (e *Error) WithProperty(key string, value any) *Error {
	clone := *e
	clone.Properties = make(map[string]any, len(e.Properties)+1)
	for k, v := range e.Properties {
		clone.Properties[k] = v
	}
	clone.Properties[key] = value
	return &clone
}

// New creates an Error with the default message for the code.
func New(code int) *Error {
	return &Error{Code: code, Message: Text(code)}
}

// Newf creates an Error with a formatted message.
func Newf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a RequestErr carrying field-level details.
func Validation(fields []FieldError) *Error {
	return &Error{Code: RequestErr, Message: "Validation failed", Fields: fields}
}

// Duplicate creates a Conflict error for a unique-constraint violation.
func Duplicate(resource, field, value string) *Error {
	return &Error{
		Code:    Conflict,
		Message: fmt.Sprintf("%s with %s '%s' already exists", resource, field, value),
		Fields: []FieldError{{
			Field:         field,
			Code:          "DUPLICATE_RESOURCE",
			Message:       fmt.Sprintf("%s already exists", field),
			RejectedValue: value,
		}},
	}
}

// NotFound creates a NothingFound error for a missing resource.
func NotFound(resource, id string) *Error {
	return &Error{Code: NothingFound, Message: fmt.Sprintf("%s not found: %s", resource, id)}
}
