package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an error for recovery and propagation decisions.
// Only network errors from the structure phase propagate to the API
// boundary; everything else is absorbed with graceful degradation.
type ErrorType string

const (
	// Pipeline errors
	ErrorTypeCacheRead       ErrorType = "CACHE_READ"
	ErrorTypeNetwork         ErrorType = "NETWORK"
	ErrorTypeEnrichment      ErrorType = "ENRICHMENT"
	ErrorTypeLayoutInvariant ErrorType = "LAYOUT_INVARIANT"

	// API surface errors
	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypeConflict   ErrorType = "CONFLICT"
	ErrorTypeInternal   ErrorType = "INTERNAL"
)

// AppError represents an application-specific error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails adds error details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

// Constructor functions for common error types

// NewCacheReadError signals an unreadable or corrupt local cache entry.
// Recovered locally by falling through to the network fetch.
func NewCacheReadError(message string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeCacheRead,
		Message:    message,
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewNetworkError signals a failed remote fetch. During the structure
// phase this is the only error surfaced to the presentation layer.
func NewNetworkError(message string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewEnrichmentError signals a failed detail batch. Affected nodes stay
// un-enriched and become retryable on the next qualifying viewport change.
func NewEnrichmentError(message string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeEnrichment,
		Message:    message,
		Cause:      err,
		HTTPStatus: http.StatusBadGateway,
	}
}

// NewLayoutInvariantError records a layout diagnostic, such as a
// broken cycle. The layout engine continues; this never crashes the pipeline.
func NewLayoutInvariantError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeLayoutInvariant,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewConflictError creates a conflict error, used when an optimistic
// version check fails during a profile update.
func NewConflictError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// Helper functions

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsCacheRead checks if an error is a cache read error
func IsCacheRead(err error) bool {
	return IsType(err, ErrorTypeCacheRead)
}

// IsNetwork checks if an error is a network error
func IsNetwork(err error) bool {
	return IsType(err, ErrorTypeNetwork)
}

// IsEnrichment checks if an error is an enrichment error
func IsEnrichment(err error) bool {
	return IsType(err, ErrorTypeEnrichment)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	if appErr := GetAppError(err); appErr != nil {
		appErr.Message = fmt.Sprintf("%s: %s", message, appErr.Message)
		return appErr
	}

	return NewInternalError(message).WithCause(err)
}

// Wrapf wraps an error with formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	return Wrap(err, fmt.Sprintf(format, args...))
}
