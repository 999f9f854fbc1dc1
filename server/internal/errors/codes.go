package errors

import (
	"fmt"
)

// ErrorCode classifies a failure at the turn boundary.
type ErrorCode string

const (
	// ErrCodeNotFound indicates the referenced session does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeValidation indicates an extraction did not conform to its schema.
	ErrCodeValidation ErrorCode = "VALIDATION"
	// ErrCodeUpstream indicates the text-generation service failed.
	ErrCodeUpstream ErrorCode = "UPSTREAM"
	// ErrCodePersistence indicates the data store rejected a write or read.
	ErrCodePersistence ErrorCode = "PERSISTENCE"
	// ErrCodeTimeout indicates the turn exceeded its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeCanceled indicates the caller went away mid-turn.
	ErrCodeCanceled ErrorCode = "CANCELED"
	// ErrCodeServiceUnavailable indicates a disabled or missing backend.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// ServiceError is a structured error carried across the turn boundary.
type ServiceError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *ServiceError) WithContext(key string, value any) *ServiceError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Convenience constructors for common error types.

// NotFound creates a not-found error.
func NotFound(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeNotFound, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeValidation, Message: msg, Cause: cause}
}

// Upstream creates an upstream failure error.
func Upstream(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeUpstream, Message: msg, Cause: cause}
}

// Persistence creates a persistence failure error.
func Persistence(msg string, cause error) *ServiceError {
	return &ServiceError{Code: ErrCodePersistence, Message: msg, Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeTimeout, Message: msg}
}

// Canceled creates a cancellation error.
func Canceled(cause error) *ServiceError {
	return &ServiceError{Code: ErrCodeCanceled, Message: "operation canceled", Cause: cause}
}

// ServiceUnavailable creates a service unavailable error.
func ServiceUnavailable(msg string) *ServiceError {
	return &ServiceError{Code: ErrCodeServiceUnavailable, Message: msg}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *ServiceError {
	return &ServiceError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if svcErr, ok := err.(*ServiceError); ok {
		return svcErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a ServiceError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if svcErr, ok := err.(*ServiceError); ok {
		return svcErr.Code
	}
	return defaultCode
}
