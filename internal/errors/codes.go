// Package errors provides structured error handling for amankb.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Data source errors (CSV files, locks)
//   - 4XX: Validation and lookup errors
//   - 5XX: Internal and lifecycle errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryData indicates a source could not be read or failed validation.
	CategoryData Category = "DATA"
	// CategoryValidation indicates input validation errors and lookup misses.
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
	// SeverityInfo indicates an expected outcome the caller should handle.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Data errors (200-299)
	ErrCodeDataLoad       = "ERR_201_DATA_LOAD"
	ErrCodeSourceNotFound = "ERR_202_SOURCE_NOT_FOUND"
	ErrCodeSourceLocked   = "ERR_203_SOURCE_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput = "ERR_401_INVALID_INPUT"
	ErrCodeQueryEmpty   = "ERR_404_QUERY_EMPTY"
	ErrCodeNotFound     = "ERR_407_NOT_FOUND"

	// Internal errors (500-599)
	ErrCodeInternal      = "ERR_501_INTERNAL"
	ErrCodeIndexNotReady = "ERR_506_INDEX_NOT_READY"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "201" from "ERR_201_DATA_LOAD")
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryData
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeNotFound, ErrCodeQueryEmpty:
		// Lookup misses and blank queries are ordinary outcomes.
		return SeverityInfo
	case ErrCodeIndexNotReady, ErrCodeSourceLocked:
		return SeverityWarning
	case ErrCodeDataLoad, ErrCodeSourceNotFound:
		return SeverityFatal
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeIndexNotReady, ErrCodeSourceLocked:
		return true
	default:
		return false
	}
}
