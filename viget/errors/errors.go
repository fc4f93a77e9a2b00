package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes for vi-get operations
const (
	CodeFormat        = "FORMAT_ERROR"
	CodeIntegrity     = "INTEGRITY_ERROR"
	CodeChunkNotFound = "CHUNK_NOT_FOUND"
	CodeDecompression = "DECOMPRESSION_ERROR"
	CodeStorage       = "STORAGE_ERROR"
)

var (
	// ErrFormat is returned when the input does not carry the recognized container signature
	ErrFormat = &VIError{Code: CodeFormat, Message: "unrecognized container format"}

	// ErrIntegrity is returned when an internal self-consistency check of the container fails
	ErrIntegrity = &VIError{Code: CodeIntegrity, Message: "container integrity check failed"}

	// ErrChunkNotFound is returned when the requested tag is absent from the chunk directory
	ErrChunkNotFound = &VIError{Code: CodeChunkNotFound, Message: "chunk not found"}

	// ErrDecompression is returned when a compressed chunk cannot be inflated or its sizes disagree
	ErrDecompression = &VIError{Code: CodeDecompression, Message: "chunk decompression failed"}

	// ErrStorage is returned when reading the input or writing the output fails
	ErrStorage = &VIError{Code: CodeStorage, Message: "storage operation failed"}
)

// VIError represents a structured error in vi-get operations
type VIError struct {
	Code    string                 // Error code for programmatic handling
	Message string                 // Human-readable error message
	Cause   error                  // Underlying error, if any
	Details map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *VIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if len(e.Details) > 0 {
		return fmt.Sprintf("[%s] %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *VIError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a VIError with the same code, so that
// errors.Is(err, ErrIntegrity) holds whatever message or details err carries.
func (e *VIError) Is(target error) bool {
	t, ok := target.(*VIError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause adds a cause to the error
func (e *VIError) WithCause(cause error) *VIError {
	return &VIError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
		Details: e.Details,
	}
}

// WithDetail adds a detail key-value pair to the error
func (e *VIError) WithDetail(key string, value interface{}) *VIError {
	details := make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &VIError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: details,
	}
}

// WithMessage overrides the error message
func (e *VIError) WithMessage(message string) *VIError {
	return &VIError{
		Code:    e.Code,
		Message: message,
		Cause:   e.Cause,
		Details: e.Details,
	}
}

// WithMismatch records the expected and actual values of a failed check.
func (e *VIError) WithMismatch(expected, actual interface{}) *VIError {
	return e.WithDetail("expected", expected).WithDetail("actual", actual)
}

// IsVIError checks if an error, or any error it wraps, is a VIError
func IsVIError(err error) bool {
	var viErr *VIError
	return stderrors.As(err, &viErr)
}

// GetErrorCode extracts the error code from a VIError anywhere in the chain
func GetErrorCode(err error) string {
	var viErr *VIError
	if stderrors.As(err, &viErr) {
		return viErr.Code
	}
	return ""
}
