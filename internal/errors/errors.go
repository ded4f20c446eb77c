package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
)

// AmanError carries a stable code plus the context needed to log it,
// show it to a user, or map it onto a protocol error. Category, Severity
// and Retryable derive from Code.
type AmanError struct {
	Code       string // e.g. "ERR_201_DATA_LOAD"
	Message    string
	Category   Category
	Severity   Severity
	Details    map[string]string // source, row, kind, key, ...
	Cause      error
	Retryable  bool
	Suggestion string // next step for the user, if any
}

func (e *AmanError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AmanError) Unwrap() error { return e.Cause }

// Is matches any *AmanError with the same code, so errors.Is can test a
// chain against a code-only template.
func (e *AmanError) Is(target error) bool {
	t, ok := target.(*AmanError)
	return ok && e.Code == t.Code
}

// WithDetail records key=value and returns e.
func (e *AmanError) WithDetail(key, value string) *AmanError {
	if e.Details == nil {
		e.Details = make(map[string]string, 2)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion sets the user-facing next step and returns e.
func (e *AmanError) WithSuggestion(suggestion string) *AmanError {
	e.Suggestion = suggestion
	return e
}

// New builds an AmanError for code.
func New(code, message string, cause error) *AmanError {
	return &AmanError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap adopts err's text as the message. Wrap(code, nil) is nil.
func Wrap(code string, err error) *AmanError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *AmanError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// DataLoadError reports a source that could not be loaded. Row is the
// 1-based data row (the header is row 0); pass a negative row when the
// failure is not tied to a row.
func DataLoadError(source string, row int, message string, cause error) *AmanError {
	msg := fmt.Sprintf("source %q: %s", source, message)
	if row >= 0 {
		msg = fmt.Sprintf("source %q row %d: %s", source, row, message)
	}
	e := New(ErrCodeDataLoad, msg, cause).WithDetail("source", source)
	if row >= 0 {
		e = e.WithDetail("row", strconv.Itoa(row))
	}
	return e
}

// NotFoundError reports a lookup miss for the given kind ("topic",
// "document", "category") and key.
func NotFoundError(kind, key string) *AmanError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s %q not found", kind, key), nil).
		WithDetail("kind", kind).
		WithDetail("key", key)
}

// EmptyQueryError reports a query with no indexable tokens.
func EmptyQueryError(query string) *AmanError {
	return New(ErrCodeQueryEmpty, "query has no searchable terms", nil).
		WithDetail("query", query).
		WithSuggestion("Rephrase the query with at least one content word")
}

// IndexNotReadyError reports a query against a knowledge base with no
// servable snapshot.
func IndexNotReadyError(state string, cause error) *AmanError {
	return New(ErrCodeIndexNotReady, "knowledge base is not ready (state: "+state+")", cause).
		WithDetail("state", state).
		WithSuggestion("Fix the data sources and request a reload")
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *AmanError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *AmanError {
	return New(ErrCodeInternal, message, cause)
}

// As returns the first AmanError in err's chain.
func As(err error) (*AmanError, bool) {
	var ae *AmanError
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// HasCode reports whether any AmanError in err's chain carries code.
func HasCode(err error, code string) bool {
	return stderrors.Is(err, &AmanError{Code: code})
}

// IsDataLoad reports whether err is a source load failure.
func IsDataLoad(err error) bool {
	return HasCode(err, ErrCodeDataLoad) || HasCode(err, ErrCodeSourceNotFound)
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool { return HasCode(err, ErrCodeNotFound) }

// IsEmptyQuery reports whether err is an empty-query signal.
func IsEmptyQuery(err error) bool { return HasCode(err, ErrCodeQueryEmpty) }

// IsIndexNotReady reports whether err means no snapshot is servable.
func IsIndexNotReady(err error) bool { return HasCode(err, ErrCodeIndexNotReady) }

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if ae, ok := As(err); ok {
		return ae.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors abort the current load attempt.
func IsFatal(err error) bool {
	if ae, ok := As(err); ok {
		return ae.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an AmanError.
// Returns empty string if not an AmanError.
func GetCode(err error) string {
	if ae, ok := As(err); ok {
		return ae.Code
	}
	return ""
}

// GetCategory extracts the category from an AmanError.
// Returns empty string if not an AmanError.
func GetCategory(err error) Category {
	if ae, ok := As(err); ok {
		return ae.Category
	}
	return ""
}
