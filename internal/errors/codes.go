// Package errors provides structured error handling for rankfuse.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 3XX: External service errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryService indicates external collaborator errors (document
	// store, embedding provider, relevance model).
	CategoryService Category = "SERVICE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// External service errors (300-399). The engine never retries these
	// itself; the Retryable flag is advisory for the caller.
	ErrCodeServiceTimeout     = "ERR_301_SERVICE_TIMEOUT"
	ErrCodeServiceUnavailable = "ERR_302_SERVICE_UNAVAILABLE"
	ErrCodeServiceResponse    = "ERR_303_SERVICE_RESPONSE"

	// Validation errors (400-499)
	ErrCodeInvalidConfig = "ERR_401_INVALID_CONFIG"
	ErrCodeCorpusEmpty   = "ERR_402_CORPUS_EMPTY"
	ErrCodeInvalidInput  = "ERR_403_INVALID_INPUT"

	// Internal errors (500-599)
	ErrCodeAlignmentFailure = "ERR_501_ALIGNMENT_FAILURE"
	ErrCodeInternal         = "ERR_502_INTERNAL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "402" from "ERR_402_CORPUS_EMPTY".
	switch code[4] {
	case '1':
		return CategoryConfig
	case '3':
		return CategoryService
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorpusEmpty, ErrCodeInvalidConfig:
		// No retrieval is possible until the caller fixes its input.
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}

	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeServiceTimeout, ErrCodeServiceUnavailable:
		return true
	default:
		return false
	}
}
