package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TS01: Error wrapping preserves original error
func TestAmanError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with AmanError
	amanErr := New(ErrCodeSourceNotFound, "source not found: data/dataset.csv", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, amanErr)
	assert.Equal(t, originalErr, errors.Unwrap(amanErr))
	assert.True(t, errors.Is(amanErr, originalErr))
}

func TestAmanError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "data error",
			code:     ErrCodeDataLoad,
			message:  "missing column",
			expected: "[ERR_201_DATA_LOAD] missing column",
		},
		{
			name:     "lookup miss",
			code:     ErrCodeNotFound,
			message:  "topic not found",
			expected: "[ERR_407_NOT_FOUND] topic not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestAmanError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with same code
	err1 := NotFoundError("topic", "a")
	err2 := NotFoundError("document", "7")

	// Then: they match by code
	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, EmptyQueryError("")))
}

func TestDataLoadError_NamesSourceAndRow(t *testing.T) {
	// When: building a row-level load error
	err := DataLoadError("synthetic", 4, "empty topic", nil)

	// Then: message and details identify the offending row
	assert.Contains(t, err.Message, `"synthetic"`)
	assert.Contains(t, err.Message, "row 4")
	assert.Equal(t, "synthetic", err.Details["source"])
	assert.Equal(t, "4", err.Details["row"])
	assert.Equal(t, CategoryData, err.Category)
	assert.True(t, IsDataLoad(err))
}

func TestDataLoadError_WithoutRow(t *testing.T) {
	err := DataLoadError("ground_truth", -1, "file missing", nil)

	assert.NotContains(t, err.Message, "row")
	_, hasRow := err.Details["row"]
	assert.False(t, hasRow)
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	// Given: typed errors wrapped with fmt.Errorf
	notFound := fmt.Errorf("lookup: %w", NotFoundError("topic", "x"))
	empty := fmt.Errorf("search: %w", EmptyQueryError("  "))
	notReady := fmt.Errorf("kb: %w", IndexNotReadyError("failed", nil))

	// Then: predicates find them in the chain
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(empty))
	assert.True(t, IsEmptyQuery(empty))
	assert.True(t, IsIndexNotReady(notReady))
	assert.Equal(t, ErrCodeNotFound, GetCode(notFound))
	assert.Equal(t, CategoryValidation, GetCategory(empty))
}

func TestAmanError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeDataLoad, SeverityFatal},
		{ErrCodeSourceNotFound, SeverityFatal},
		{ErrCodeNotFound, SeverityInfo},
		{ErrCodeQueryEmpty, SeverityInfo},
		{ErrCodeIndexNotReady, SeverityWarning},
		{ErrCodeInternal, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestAmanError_RetryableFromCode(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeIndexNotReady, "m", nil)))
	assert.True(t, IsRetryable(New(ErrCodeSourceLocked, "m", nil)))
	assert.False(t, IsRetryable(New(ErrCodeDataLoad, "m", nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.True(t, IsFatal(DataLoadError("s", 1, "m", nil)))
	assert.False(t, IsFatal(nil))
}

func TestAmanError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeDataLoad, CategoryData},
		{ErrCodeSourceLocked, CategoryData},
		{ErrCodeInvalidInput, CategoryValidation},
		{ErrCodeNotFound, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{ErrCodeIndexNotReady, CategoryInternal},
		{"bogus", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.wantCategory, categoryFromCode(tt.code))
		})
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}
