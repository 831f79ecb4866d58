package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for dashboard errors.
const (
	CodeNotFound    = 1
	CodeConflict    = 2
	CodeValidation  = 3
	CodeInternal    = 4
	CodeNetwork     = 5
	CodeUpstream    = 6
	CodeShape       = 7
	CodeUnsupported = 8
	CodeSuperseded  = 9
)

// AppError represents a dashboard error with a code, message, and optional wrapped error.
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusError carries a non-2xx response from the remote API. Body is the raw
// response text, which is not guaranteed to be JSON.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote api returned %d", e.Status)
	}
	return fmt.Sprintf("remote api returned %d: %s", e.Status, e.Body)
}

// FieldErrors maps a form field name to a user-facing message.
type FieldErrors map[string]string

// ValidationError is wrapped by CodeValidation errors raised before any
// network call is attempted.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d invalid field(s)", len(e.Fields))
}

// Predefined errors.
//
// To check whether an error matches one of these categories, use the
// corresponding helper function (IsNotFound, IsUnsupported, etc.)
// instead of errors.Is. The helpers use errors.As with error-code
// comparison, so they correctly match any *AppError that carries the
// same code, including freshly constructed instances from NewAppError
// and wrapped errors.
var (
	ErrNotFound    = &AppError{Code: CodeNotFound, Message: "not found"}
	ErrConflict    = &AppError{Code: CodeConflict, Message: "conflict"}
	ErrValidation  = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrInternal    = &AppError{Code: CodeInternal, Message: "internal error"}
	ErrUnsupported = &AppError{Code: CodeUnsupported, Message: "action not supported by the remote api"}
	ErrSuperseded  = &AppError{Code: CodeSuperseded, Message: "superseded by a newer request"}
)

// NewAppError creates a new AppError with the given code, message, and wrapped error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError wraps per-field messages into a CodeValidation AppError.
func NewValidationError(fields FieldErrors) *AppError {
	return NewAppError(CodeValidation, "validation error", &ValidationError{Fields: fields})
}

// IsNotFound reports whether err is or wraps an AppError with CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsConflict reports whether err is or wraps an AppError with CodeConflict.
func IsConflict(err error) bool {
	return hasCode(err, CodeConflict)
}

// IsValidation reports whether err is or wraps an AppError with CodeValidation.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsInternal reports whether err is or wraps an AppError with CodeInternal.
func IsInternal(err error) bool {
	return hasCode(err, CodeInternal)
}

// IsNetwork reports whether err is or wraps an AppError with CodeNetwork.
func IsNetwork(err error) bool {
	return hasCode(err, CodeNetwork)
}

// IsUpstream reports whether err is or wraps an AppError with CodeUpstream.
func IsUpstream(err error) bool {
	return hasCode(err, CodeUpstream)
}

// IsShape reports whether err is or wraps an AppError with CodeShape.
func IsShape(err error) bool {
	return hasCode(err, CodeShape)
}

// IsUnsupported reports whether err is or wraps an AppError with CodeUnsupported.
func IsUnsupported(err error) bool {
	return hasCode(err, CodeUnsupported)
}

// IsSuperseded reports whether err is or wraps an AppError with CodeSuperseded.
func IsSuperseded(err error) bool {
	return hasCode(err, CodeSuperseded)
}

// RemoteStatus returns the HTTP status of a wrapped *StatusError, or 0.
func RemoteStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// FieldErrorsOf returns the per-field messages of a validation error, or nil.
func FieldErrorsOf(err error) FieldErrors {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// hasCode checks whether err is or wraps an *AppError with the given code.
func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatusCode maps an error to an HTTP status code.
// If the error is an *AppError, the code is mapped; otherwise http.StatusInternalServerError is returned.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeNotFound:
			return http.StatusNotFound
		case CodeConflict:
			return http.StatusConflict
		case CodeValidation:
			return http.StatusBadRequest
		case CodeInternal:
			return http.StatusInternalServerError
		case CodeNetwork, CodeUpstream, CodeShape:
			return http.StatusBadGateway
		case CodeUnsupported:
			return http.StatusNotImplemented
		case CodeSuperseded:
			return http.StatusConflict
		}
	}
	return http.StatusInternalServerError
}
