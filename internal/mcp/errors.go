// Package mcp exposes the knowledge base to AI agents over the Model
// Context Protocol.
package mcp

import (
	"context"
	"errors"
	"fmt"

	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
)

// Custom MCP error codes for amankb.
const (
	// ErrCodeIndexNotReady indicates the knowledge base has no servable snapshot.
	ErrCodeIndexNotReady = -32001

	// ErrCodeDataLoad indicates a source file could not be loaded.
	ErrCodeDataLoad = -32002

	// ErrCodeTimeout indicates the request timed out or was canceled.
	ErrCodeTimeout = -32003

	// ErrCodeNotFound indicates a topic or document does not exist.
	ErrCodeNotFound = -32004

	// ErrCodeEmptyQuery indicates the query has no searchable terms: it is
	// blank or made only of stop words and punctuation.
	ErrCodeEmptyQuery = -32005

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// Sentinel errors for internal use.
var (
	// ErrToolNotFound indicates the requested tool does not exist.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("invalid parameters")
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var mcpErr *MCPError
	if errors.As(err, &mcpErr) {
		return mcpErr
	}
	if ae, ok := amanerrors.As(err); ok {
		return mapAmanError(ae)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request timed out."}
	case errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "Request was canceled."}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: "Tool not found."}
	case errors.Is(err, ErrInvalidParams):
		return &MCPError{Code: ErrCodeInvalidParams, Message: "Invalid parameters."}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: "Internal server error."}
	}
}

// NewInvalidParamsError creates an error for invalid parameters with a custom message.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

// NewMethodNotFoundError creates an error for unknown tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

func mapAmanError(ae *amanerrors.AmanError) *MCPError {
	message := ae.Message
	if ae.Suggestion != "" {
		message = fmt.Sprintf("%s %s", ae.Message, ae.Suggestion)
	}

	switch ae.Code {
	case amanerrors.ErrCodeIndexNotReady:
		return &MCPError{Code: ErrCodeIndexNotReady, Message: message}
	case amanerrors.ErrCodeDataLoad, amanerrors.ErrCodeSourceNotFound, amanerrors.ErrCodeSourceLocked:
		return &MCPError{Code: ErrCodeDataLoad, Message: message}
	case amanerrors.ErrCodeNotFound:
		return &MCPError{Code: ErrCodeNotFound, Message: message}
	case amanerrors.ErrCodeQueryEmpty:
		return &MCPError{Code: ErrCodeEmptyQuery, Message: message}
	}

	switch ae.Category {
	case amanerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case amanerrors.CategoryData:
		return &MCPError{Code: ErrCodeDataLoad, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
