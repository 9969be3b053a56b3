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
	ErrConfigParse ErrorCode = "CONFIG_PARSE"

	// Action errors
	ErrActionInvalid ErrorCode = "ACTION_INVALID"
	ErrActionDecode  ErrorCode = "ACTION_DECODE"

	// Process errors
	ErrProgramNotFound ErrorCode = "PROGRAM_NOT_FOUND"
	ErrProcessExit     ErrorCode = "PROCESS_EXIT"
	ErrCrossContext    ErrorCode = "CROSS_CONTEXT"

	// Diff errors
	ErrDiffBinary ErrorCode = "DIFF_BINARY"

	// Invariant violations (caller bugs, never user mistakes)
	ErrOutsideBuildDir ErrorCode = "OUTSIDE_BUILD_DIR"
	ErrStreamSelector  ErrorCode = "STREAM_SELECTOR"
	ErrHandleRelease   ErrorCode = "HANDLE_RELEASE"

	// FileSystem errors
	ErrFileNotFound  ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess    ErrorCode = "FILE_ACCESS"
	ErrFileWrite     ErrorCode = "FILE_WRITE"
	ErrSymlinkCreate ErrorCode = "SYMLINK_CREATE"
	ErrDirCreate     ErrorCode = "DIR_CREATE"
)

// ForjError represents a structured error with code and details
type ForjError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *ForjError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *ForjError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *ForjError) Is(target error) bool {
	var targetErr *ForjError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new ForjError with the given code and message
func New(code ErrorCode, message string) *ForjError {
	return &ForjError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new ForjError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *ForjError {
	return &ForjError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a ForjError
func Wrap(err error, code ErrorCode, message string) *ForjError {
	if err == nil {
		return nil
	}
	return &ForjError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *ForjError {
	if err == nil {
		return nil
	}
	return &ForjError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *ForjError) WithDetail(key string, value interface{}) *ForjError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var forjErr *ForjError
	if errors.As(err, &forjErr) {
		return forjErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a ForjError
func GetErrorCode(err error) ErrorCode {
	var forjErr *ForjError
	if errors.As(err, &forjErr) {
		return forjErr.Code
	}
	return ErrUnknown
}

// userErrorCodes are the codes reported to the end user with an explanation;
// everything else is either an internal invariant violation or plumbing.
var userErrorCodes = map[ErrorCode]bool{
	ErrProgramNotFound: true,
	ErrProcessExit:     true,
	ErrCrossContext:    true,
	ErrDiffBinary:      true,
	ErrConfigLoad:      true,
	ErrConfigParse:     true,
	ErrActionDecode:    true,
}

// invariantCodes mark bugs in the caller or build-graph construction.
var invariantCodes = map[ErrorCode]bool{
	ErrInternal:        true,
	ErrOutsideBuildDir: true,
	ErrStreamSelector:  true,
	ErrHandleRelease:   true,
}

// IsUserError reports whether err should be shown to the end user as their
// build failing, as opposed to a bug in forj or the build graph.
func IsUserError(err error) bool {
	return userErrorCodes[GetErrorCode(err)]
}

// IsInvariantViolation reports whether err indicates a caller bug.
func IsInvariantViolation(err error) bool {
	return invariantCodes[GetErrorCode(err)]
}
