package errors

import (
	"fmt"
)

// EngineError is the structured error type for the retrieval engine.
// It provides rich context for error handling, logging, and presentation.
type EngineError struct {
	// Code is the unique error code (e.g., "ERR_402_CORPUS_EMPTY").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, Service, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the caller may retry the operation. The
	// engine itself performs no retries.
	Retryable bool
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with EngineError.
func (e *EngineError) Is(target error) bool {
	if t, ok := target.(*EngineError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *EngineError) WithDetail(key, value string) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New creates a new EngineError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *EngineError {
	return &EngineError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an EngineError from an existing error.
// The error's message becomes the EngineError message.
func Wrap(code string, err error) *EngineError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// CorpusEmpty creates the error raised when a session is opened over a
// corpus with zero passages.
func CorpusEmpty() *EngineError {
	return New(ErrCodeCorpusEmpty, "corpus has no passages, retrieval is not possible", nil)
}

// InvalidConfig creates a configuration validation error.
func InvalidConfig(message string) *EngineError {
	return New(ErrCodeInvalidConfig, message, nil)
}

// AlignmentFailure creates the error raised when the semantic scorer
// cannot map a document store result back to a corpus passage.
func AlignmentFailure(message string) *EngineError {
	return New(ErrCodeAlignmentFailure, message, nil)
}

// ExternalService wraps a failed document store or relevance model call.
func ExternalService(message string, cause error) *EngineError {
	return New(ErrCodeServiceUnavailable, message, cause)
}

// ConfigError creates a configuration-file error.
func ConfigError(message string, cause error) *EngineError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is an EngineError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if ee, ok := err.(*EngineError); ok {
		return ee.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if ee, ok := err.(*EngineError); ok {
		return ee.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an EngineError.
// Returns empty string if not an EngineError.
func GetCode(err error) string {
	if ee, ok := err.(*EngineError); ok {
		return ee.Code
	}
	return ""
}

// GetCategory extracts the category from an EngineError.
// Returns empty string if not an EngineError.
func GetCategory(err error) Category {
	if ee, ok := err.(*EngineError); ok {
		return ee.Category
	}
	return ""
}

// HasCode reports whether err (or any error in its chain) is an
// EngineError carrying the given code.
func HasCode(err error, code string) bool {
	for err != nil {
		if ee, ok := err.(*EngineError); ok && ee.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
