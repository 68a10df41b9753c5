package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Manifest errors
	ErrManifestMissing    ErrorCode = "MANIFEST_MISSING"
	ErrManifestParse      ErrorCode = "MANIFEST_PARSE"
	ErrManifestIncomplete ErrorCode = "MANIFEST_INCOMPLETE"

	// Packer errors
	ErrNoFiles    ErrorCode = "NO_FILES"
	ErrToolRun    ErrorCode = "TOOL_RUN"
	ErrToolOutput ErrorCode = "TOOL_OUTPUT"

	// FileSystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
	ErrFileWrite  ErrorCode = "FILE_WRITE"
	ErrDirCreate  ErrorCode = "DIR_CREATE"
	ErrStaging    ErrorCode = "STAGING"
	ErrBundle     ErrorCode = "BUNDLE"
)

// ModpakError represents a structured error with code and details
type ModpakError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ModpakError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ModpakError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ModpakError) Is(target error) bool {
	var targetErr *ModpakError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ModpakError with the given code and message
func New(code ErrorCode, message string) *ModpakError {
	return &ModpakError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ModpakError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ModpakError {
	return &ModpakError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ModpakError
func Wrap(err error, code ErrorCode, message string) *ModpakError {
	if err == nil {
		return nil
	}
	return &ModpakError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ModpakError {
	if err == nil {
		return nil
	}
	return &ModpakError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ModpakError) WithDetail(key string, value interface{}) *ModpakError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var modpakErr *ModpakError
	if errors.As(err, &modpakErr) {
		return modpakErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ModpakError
func GetErrorCode(err error) ErrorCode {
	var modpakErr *ModpakError
	if errors.As(err, &modpakErr) {
		return modpakErr.Code
	}
	return ErrUnknown
}
