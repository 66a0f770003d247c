package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/defibrain/advisory-engine/internal/errors"
	"github.com/defibrain/advisory-engine/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes
const (
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeConflict           = "CONFLICT"
)

// respondServiceError maps a categorized service error onto the wire format.
func respondServiceError(w http.ResponseWriter, err error) {
	categorized := apperrors.Categorize(err)

	code := ErrCodeInternalError
	switch categorized.Category {
	case apperrors.CategoryUserInput:
		code = ErrCodeInvalidInput
	case apperrors.CategoryNotFound:
		code = ErrCodeNotFound
	case apperrors.CategoryLedger, apperrors.CategoryAdvisory:
		code = ErrCodeServiceUnavailable
	}

	respondError(w, categorized.StatusCode, code, categorized.Message, categorized.Details)
}
