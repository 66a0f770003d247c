// Package errors defines the categorized error model of the advisory engine.
// Ledger errors are surfaced to the caller as a visible error state; advisory
// errors are handled by local fallback and never propagate to the view layer.
package errors

import (
	"fmt"
	"net/http"

	"github.com/defibrain/advisory-engine/internal/types"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryUserInput represents user input errors (4xx)
	CategoryUserInput ErrorCategory = "user_input"
	// CategoryLedger represents on-chain data source errors
	CategoryLedger ErrorCategory = "ledger"
	// CategoryAdvisory represents advisory service errors
	CategoryAdvisory ErrorCategory = "advisory"
	// CategoryCache represents cache errors
	CategoryCache ErrorCategory = "cache"
	// CategorySystem represents internal errors (5xx)
	CategorySystem ErrorCategory = "system"
	// CategoryNotFound represents not found errors
	CategoryNotFound ErrorCategory = "not_found"
)

// CategorizedError represents an error with category and HTTP status code
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// ToServiceError converts to a ServiceError
func (e *CategorizedError) ToServiceError() *types.ServiceError {
	return &types.ServiceError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// NewInvalidAddressError creates an invalid wallet address error
func NewInvalidAddressError(address string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_ADDRESS",
		Message:    fmt.Sprintf("invalid wallet address format: %s", address),
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// NewInvalidParameterError creates an invalid parameter error
func NewInvalidParameterError(param string, reason string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusBadRequest,
		Code:       "INVALID_PARAMETER",
		Message:    fmt.Sprintf("invalid parameter '%s': %s", param, reason),
		Details: map[string]interface{}{
			"parameter": param,
			"reason":    reason,
		},
	}
}

// NewSessionNotFoundError creates an unknown chat session error
func NewSessionNotFoundError(sessionID string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryNotFound,
		StatusCode: http.StatusNotFound,
		Code:       "SESSION_NOT_FOUND",
		Message:    fmt.Sprintf("chat session not found: %s", sessionID),
		Details: map[string]interface{}{
			"sessionId": sessionID,
		},
	}
}

// NewLedgerUnavailableError creates a ledger read failure error. Unlike
// advisory failures this is always surfaced: without a snapshot no metric or
// insight can be produced.
func NewLedgerUnavailableError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryLedger,
		StatusCode: http.StatusBadGateway,
		Code:       "LEDGER_UNAVAILABLE",
		Message:    fmt.Sprintf("ledger read failed during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewAdvisoryUnavailableError creates an advisory service failure error.
// Callers are expected to fall back to local generation instead of
// propagating this to the view layer.
func NewAdvisoryUnavailableError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryAdvisory,
		StatusCode: http.StatusServiceUnavailable,
		Code:       "ADVISORY_UNAVAILABLE",
		Message:    fmt.Sprintf("advisory service failed during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewCacheError creates a cache error
func NewCacheError(operation string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryCache,
		StatusCode: http.StatusInternalServerError,
		Code:       "CACHE_ERROR",
		Message:    fmt.Sprintf("cache error during %s", operation),
		Cause:      cause,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		Cause:      cause,
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	// If already categorized, return as-is
	if catErr, ok := err.(*CategorizedError); ok {
		return catErr
	}

	// Default to internal error
	return NewInternalError("unexpected error", err)
}

// GetHTTPStatusCode returns the HTTP status code for an error
func GetHTTPStatusCode(err error) int {
	if catErr := Categorize(err); catErr != nil {
		return catErr.StatusCode
	}
	return http.StatusInternalServerError
}

// IsLedgerError reports whether the error is a ledger data-source failure
func IsLedgerError(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryLedger
}

// IsAdvisoryError reports whether the error is a recoverable advisory failure
func IsAdvisoryError(err error) bool {
	catErr := Categorize(err)
	return catErr != nil && catErr.Category == CategoryAdvisory
}

// IsUserError determines if an error is a user error (4xx)
func IsUserError(err error) bool {
	catErr := Categorize(err)
	if catErr == nil {
		return false
	}

	return catErr.StatusCode >= 400 && catErr.StatusCode < 500
}
