package types

import "fmt"

// ErrorCode represents a unified error code across the service.
type ErrorCode string

// Request and authentication error codes
const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrAuthentication ErrorCode = "AUTHENTICATION"
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrForbidden      ErrorCode = "FORBIDDEN"
	ErrRateLimited    ErrorCode = "RATE_LIMITED"
	ErrToolValidation ErrorCode = "TOOL_VALIDATION"
)

// Browser and page error codes
const (
	ErrSessionUnavailable ErrorCode = "SESSION_UNAVAILABLE"
	ErrStaleContext       ErrorCode = "STALE_CONTEXT"
	ErrElementNotFound    ErrorCode = "ELEMENT_NOT_FOUND"
	ErrNoResolvableTarget ErrorCode = "NO_RESOLVABLE_TARGET"
	ErrFrameNotFound      ErrorCode = "FRAME_NOT_FOUND"
	ErrTabNotFound        ErrorCode = "TAB_NOT_FOUND"
	ErrActionFailed       ErrorCode = "ACTION_FAILED"
	ErrNavigationFailed   ErrorCode = "NAVIGATION_FAILED"
	ErrExtractionFailed   ErrorCode = "EXTRACTION_FAILED"
)

// Intervention error codes
const (
	ErrInterventionNotFound ErrorCode = "INTERVENTION_NOT_FOUND"
	ErrInterventionTerminal ErrorCode = "INTERVENTION_TERMINAL"
)

// Generic error codes
const (
	ErrTimeout            ErrorCode = "TIMEOUT"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
