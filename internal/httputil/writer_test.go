package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONSetsHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteJSON(rec, http.StatusOK, map[string]string{"status": "ok"})
	require.NoError(t, err)

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestWriteErrorOmitsEmptyDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "Missing authorization code")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Missing authorization code"}`, rec.Body.String())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	_, hasDetails := decoded["details"]
	assert.False(t, hasDetails)
}

func TestWriteErrorDetailsPassesRawJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	details := json.RawMessage(`{"error":"invalid_grant","error_description":"code expired"}`)
	WriteErrorDetails(rec, http.StatusBadRequest, "Token request rejected by provider", details)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{
		"error": "Token request rejected by provider",
		"details": {"error":"invalid_grant","error_description":"code expired"}
	}`, rec.Body.String())
}

func TestWriteInternalServerError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteInternalServerError(rec, "Failed to reach authorization provider")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to reach authorization provider"}`, rec.Body.String())
}
