// Package errors carries typed application errors that know their HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	TypeValidation ErrorType = "validation"
	TypeForbidden  ErrorType = "forbidden"
	TypeNotFound   ErrorType = "not_found"
	TypeConflict   ErrorType = "conflict"
	TypeInternal   ErrorType = "internal"
	TypeExternal   ErrorType = "external"
)

var statusByType = map[ErrorType]int{
	TypeValidation: http.StatusBadRequest,
	TypeForbidden:  http.StatusForbidden,
	TypeNotFound:   http.StatusNotFound,
	TypeConflict:   http.StatusConflict,
	TypeInternal:   http.StatusInternalServerError,
	TypeExternal:   http.StatusBadGateway,
}

// Error is a categorized error. Message is safe to show to a client, Cause
// is not.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) HTTPStatus() int {
	if status, ok := statusByType[e.Type]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause, Context: make(map[string]any)}
}

func ValidationError(message string) *Error { return newError(TypeValidation, message, nil) }
func ForbiddenError(message string) *Error  { return newError(TypeForbidden, message, nil) }
func NotFoundError(message string) *Error   { return newError(TypeNotFound, message, nil) }
func ConflictError(message string) *Error   { return newError(TypeConflict, message, nil) }

func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

// WithContext attaches a field that is logged and returned to the client.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message, Type: e.Type, Context: e.Context}
}

// AsStructuredError returns the *Error in err's chain, or wraps err as an
// internal error.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}
	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	return InternalError("internal server error", err)
}

// FromStatus maps an HTTP status (for example from echo middleware) to a type.
func FromStatus(status int) ErrorType {
	switch status {
	case http.StatusBadRequest:
		return TypeValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return TypeForbidden
	case http.StatusNotFound:
		return TypeNotFound
	case http.StatusConflict:
		return TypeConflict
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return TypeExternal
	default:
		return TypeInternal
	}
}
