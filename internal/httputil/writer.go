package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/ArchieCrawford/FFAInvestments-sub002/internal/log"
)

// ErrorResponse is the standard error body: a human-readable error plus
// optional structured details (the provider's raw payload, passed through
// for operator diagnosis).
type ErrorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.LogError("Failed to encode JSON response: %v", err)
		return err
	}
	return nil
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteErrorDetails(w, statusCode, message, nil)
}

// WriteErrorDetails writes a JSON error response with structured details.
func WriteErrorDetails(w http.ResponseWriter, statusCode int, message string, details json.RawMessage) {
	resp := ErrorResponse{Error: message, Details: details}
	if err := WriteJSON(w, statusCode, resp); err != nil {
		// Fallback to plain text if JSON encoding fails
		http.Error(w, message, statusCode)
	}
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteInternalServerError writes a 500 error response.
func WriteInternalServerError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
