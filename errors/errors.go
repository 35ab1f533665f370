// Package errors provides the unified error type for llmflow.
// Every failure surfaced by a pipeline run carries a machine-readable code,
// the stage it happened in (if any), and enough detail to diagnose it
// without rerunning.
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Stage is the pipeline stage that failed. Empty outside a stage.
	Stage string `json:"stage,omitempty"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	prefix := string(e.Code)
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s [stage %s]", e.Code, e.Stage)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithStage sets the failing stage name and returns the receiver.
func (e *AppError) WithStage(stage string) *AppError {
	e.Stage = stage
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Constructors ---

// Configuration creates an AppError for invalid or missing configuration.
func Configuration(reason string) *AppError {
	return &AppError{Code: ErrCodeConfiguration, Message: reason}
}

// MissingCredential creates a configuration error for an unset credential.
func MissingCredential(name string) *AppError {
	return &AppError{
		Code:    ErrCodeConfiguration,
		Message: fmt.Sprintf("%s is not set", name),
		Details: map[string]any{"credential": name},
	}
}

// MissingDependency creates an AppError for a stage whose dependency has
// not been recorded.
func MissingDependency(stage, dependency string) *AppError {
	return &AppError{
		Code:    ErrCodeMissingDependency,
		Message: fmt.Sprintf("stage %q depends on %q which has not run", stage, dependency),
		Stage:   stage,
		Details: map[string]any{"dependency": dependency},
	}
}

// InputNotFound creates an AppError for a missing input source.
func InputNotFound(source string) *AppError {
	return &AppError{
		Code:    ErrCodeInputNotFound,
		Message: fmt.Sprintf("input not found: %s", source),
		Details: map[string]any{"source": source},
	}
}

// EmptyContent creates an AppError for an input source with no content.
func EmptyContent(source string) *AppError {
	return &AppError{
		Code:    ErrCodeEmptyContent,
		Message: fmt.Sprintf("input is empty: %s", source),
		Details: map[string]any{"source": source},
	}
}

// FetchFailed creates an AppError for a failed read or fetch.
func FetchFailed(source string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeFetchError,
		Message: fmt.Sprintf("failed to read input: %s", source),
		Details: map[string]any{"source": source},
		Cause:   cause,
	}
}

// RemoteCall creates an AppError for a failed text-generation call.
func RemoteCall(stage string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeRemoteCall,
		Message: "text-generation call failed",
		Stage:   stage,
		Cause:   cause,
	}
}

// StreamInterrupted creates an AppError for a stream that ended early.
// The text received so far is kept in the details for diagnosis.
func StreamInterrupted(stage, partial string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeStreamInterrupted,
		Message: "streamed response ended before completion",
		Stage:   stage,
		Details: map[string]any{"partial_text": partial, "truncated": true},
		Cause:   cause,
	}
}

// SchemaViolation creates an AppError for structured output that could not
// be parsed or validated. raw is the full model response.
func SchemaViolation(stage, reason, raw string) *AppError {
	return &AppError{
		Code:    ErrCodeSchemaViolation,
		Message: reason,
		Stage:   stage,
		Details: map[string]any{"raw_response": raw},
	}
}

// Internal creates an AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "an unexpected error occurred",
		Cause:   cause,
	}
}

// --- Inspection ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsInputError reports whether err is an input acquisition failure.
func IsInputError(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && IsInputCode(appErr.Code)
}
