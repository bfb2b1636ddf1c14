package errors

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
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

// NewAPIError creates a new APIError with the given parameters
func NewAPIError(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with additional details
func NewAPIErrorWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	ErrInvalidRequest  = NewAPIError(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrMissingFile     = NewAPIError(http.StatusBadRequest, "MISSING_FILE", "No file supplied")
	ErrInvalidFileType = NewAPIError(http.StatusBadRequest, "INVALID_FILE_TYPE", "Unsupported file type")
	ErrNotFound        = NewAPIError(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrInternalServer  = NewAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrField creates a validation error with field details
func ErrField(field, message string) *APIError {
	return NewAPIErrorWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", FieldError{
		Field:   field,
		Message: message,
	})
}

// FromEngine translates an engine error into an APIError with the status
// code its kind implies. Configuration problems map to 400, file-level
// failures to 422, everything else to 500.
func FromEngine(err error) *APIError {
	switch {
	case errors.Is(err, ErrConfiguration):
		return NewAPIErrorWithDetails(http.StatusBadRequest, "INVALID_CONFIGURATION", "Invalid processing configuration", err.Error())
	case errors.Is(err, ErrFileProcessing):
		return NewAPIErrorWithDetails(http.StatusUnprocessableEntity, "FILE_PROCESSING_FAILED", "File could not be processed", err.Error())
	case errors.Is(err, ErrDataValidation):
		return NewAPIErrorWithDetails(http.StatusUnprocessableEntity, "DATA_VALIDATION_FAILED", "Parsed data failed validation", err.Error())
	default:
		return NewAPIErrorWithDetails(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", err.Error())
	}
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(err *APIError) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
	}
}

// Render implements the render.Renderer interface
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return e.Error.Render(w, r)
}
