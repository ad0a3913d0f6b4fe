package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Error codes for programmatic handling
const (
	// Configuration errors
	ErrCodeConfigInvalid = "CONFIG_INVALID"

	// Mirror errors
	ErrCodeMirrorLockTimeout = "MIRROR_LOCK_TIMEOUT"
	ErrCodeMirrorFetch       = "MIRROR_FETCH"

	// Git errors
	ErrCodeGitCommand = "GIT_COMMAND"

	// Copy errors
	ErrCodeCopyPattern = "COPY_PATTERN"

	// Space errors
	ErrCodeSpaceExists   = "SPACE_EXISTS"
	ErrCodeSpaceNotFound = "SPACE_NOT_FOUND"
	ErrCodeSpaceBusy     = "SPACE_BUSY"

	// Hook errors
	ErrCodeHookFailed = "HOOK_FAILED"
)

// SpacesError represents a standardized error with code and context.
//
// SpacesError provides structured error handling for spaces operations with:
//   - Code: standardized error code for programmatic handling
//   - Message: human-readable error description
//   - Cause: underlying error that caused this error (optional)
//   - Context: additional contextual information as key-value pairs
//   - Operation: the operation that failed (optional)
//
// Example usage:
//
//	err := ErrSpaceNotFound("feat").WithContext("clones_dir", dir)
//	if IsSpacesError(err, ErrCodeSpaceNotFound) {
//	  // Handle missing space
//	}
type SpacesError struct {
	Code      string         // Standardized error code (see ErrCode* constants)
	Message   string         // Human-readable error message
	Cause     error          // Underlying error that caused this error
	Context   map[string]any // Additional contextual information
	Operation string         // The operation that failed
}

// Error implements the error interface
func (e *SpacesError) Error() string {
	var parts []string
	if e.Operation != "" {
		parts = append(parts, e.Operation)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying error
func (e *SpacesError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code
func (e *SpacesError) Is(target error) bool {
	if t, ok := target.(*SpacesError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds context information to the error
func (e *SpacesError) WithContext(key string, value any) *SpacesError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// IsRecoverable reports whether the operation left usable state behind
// despite the error. Only hook failures after a successful create are
// recoverable.
func (e *SpacesError) IsRecoverable() bool {
	if e.Code != ErrCodeHookFailed {
		return false
	}
	recoverable, _ := e.Context["recoverable"].(bool)
	return recoverable
}

// NewSpacesError creates a new standardized error
func NewSpacesError(code, message string, cause error) *SpacesError {
	return &SpacesError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// NewSpacesErrorf creates a new standardized error with formatted message
func NewSpacesErrorf(code string, cause error, format string, args ...any) *SpacesError {
	return &SpacesError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// Configuration errors
func ErrConfigInvalid(key string, cause error) *SpacesError {
	return NewSpacesErrorf(ErrCodeConfigInvalid, cause, "invalid configuration value for %s", key).
		WithContext("key", key)
}

// Mirror errors
func ErrMirrorLockTimeout(path string, waited time.Duration) *SpacesError {
	return NewSpacesErrorf(ErrCodeMirrorLockTimeout, nil, "timed out after %s waiting for mirror lock %s", waited, path).
		WithContext("path", path).
		WithContext("waited", waited)
}

func ErrMirrorFetch(path string, cause error) *SpacesError {
	return NewSpacesErrorf(ErrCodeMirrorFetch, cause, "failed to update mirror %s", path).
		WithContext("path", path)
}

// Git errors
func ErrGitCommand(operation string, cause error) *SpacesError {
	return NewSpacesErrorf(ErrCodeGitCommand, cause, "git %s failed", operation).
		WithContext("operation", operation)
}

// Copy errors
func ErrCopyPattern(pattern, reason string) *SpacesError {
	return NewSpacesErrorf(ErrCodeCopyPattern, nil, "invalid copy pattern %q: %s", pattern, reason).
		WithContext("pattern", pattern).
		WithContext("reason", reason)
}

// Space errors
func ErrSpaceExists(name, path string) *SpacesError {
	return NewSpacesErrorf(ErrCodeSpaceExists, nil, "space %q already exists at %s", name, path).
		WithContext("space", name).
		WithContext("path", path)
}

func ErrSpaceNotFound(name string) *SpacesError {
	return NewSpacesErrorf(ErrCodeSpaceNotFound, nil, "space not found: %s", name).
		WithContext("space", name)
}

func ErrSpaceBusy(name string, cause error) *SpacesError {
	return NewSpacesErrorf(ErrCodeSpaceBusy, cause, "space %q is busy", name).
		WithContext("space", name)
}

// Hook errors
func ErrHookFailed(phase string, failed int, recoverable bool) *SpacesError {
	return NewSpacesErrorf(ErrCodeHookFailed, nil, "%d %s hook(s) failed", failed, phase).
		WithContext("phase", phase).
		WithContext("recoverable", recoverable)
}

// Helper function to check if an error is a specific spaces error
func IsSpacesError(err error, code string) bool {
	var spacesErr *SpacesError
	if errors.As(err, &spacesErr) {
		return spacesErr.Code == code
	}
	return false
}

// Helper function to get spaces error code from any error
func GetErrorCode(err error) string {
	var spacesErr *SpacesError
	if errors.As(err, &spacesErr) {
		return spacesErr.Code
	}
	return ""
}

// Helper function to get error context
func GetErrorContext(err error) map[string]any {
	var spacesErr *SpacesError
	if errors.As(err, &spacesErr) {
		return spacesErr.Context
	}
	return nil
}

// IsRecoverable reports whether err leaves the space usable.
func IsRecoverable(err error) bool {
	var spacesErr *SpacesError
	if errors.As(err, &spacesErr) {
		return spacesErr.IsRecoverable()
	}
	return false
}
