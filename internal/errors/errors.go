package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Is and As re-export the standard library helpers so callers importing
// this package under its own name do not need a second errors import.
var (
	Is = stderrors.Is
	As = stderrors.As
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	TraceID    string      `json:"trace_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("%s not found", resource), resource)
}

// ErrRateLimitExceeded is returned by the rate limiting middleware
func ErrRateLimitExceeded() *APIError {
	return New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")
}

// ToAPIError maps an application error onto an HTTP error response
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if As(err, &apiErr) {
		return apiErr
	}

	var appErr *AppError
	if As(err, &appErr) {
		switch appErr.Type {
		case ErrTypeNotFound:
			return New(http.StatusNotFound, "NOT_FOUND", appErr.Message)
		case ErrTypeStorage:
			return New(http.StatusInternalServerError, "STORAGE_ERROR", "Panel storage error")
		}
	}

	return New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
}
