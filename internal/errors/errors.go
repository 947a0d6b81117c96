package errors

import (
	"fmt"
)

// PortError is the structured error type for docport.
// It provides context for error handling, logging, and user presentation.
type PortError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool
}

// Error implements the error interface.
func (e *PortError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PortError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
func (e *PortError) Is(target error) bool {
	if t, ok := target.(*PortError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *PortError) WithDetail(key, value string) *PortError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new PortError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *PortError {
	return &PortError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a PortError from an existing error.
// The error's message becomes the PortError message.
func Wrap(code string, err error) *PortError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ValidationError creates a validation-related error. These mark caller
// contract violations (k <= 0, empty query) and must surface, never degrade.
func ValidationError(message string, cause error) *PortError {
	return New(ErrCodeInvalidInput, message, cause)
}

// NetworkError creates a network-related error. Network errors are retryable.
func NetworkError(message string, cause error) *PortError {
	return New(ErrCodeNetworkTimeout, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *PortError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*PortError); ok {
		return pe.Retryable
	}
	return false
}

// IsValidation reports whether the error is a caller contract violation.
func IsValidation(err error) bool {
	if pe, ok := err.(*PortError); ok {
		return pe.Category == CategoryValidation
	}
	return false
}

// GetCode extracts the error code from a PortError.
// Returns empty string if not a PortError.
func GetCode(err error) string {
	if pe, ok := err.(*PortError); ok {
		return pe.Code
	}
	return ""
}
