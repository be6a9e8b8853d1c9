package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSON_WritesBarePayload(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusCreated, map[string]string{"title": "Clean Code"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Clean Code", body["title"])
}

func TestJSONError_Envelope(t *testing.T) {
	w := httptest.NewRecorder()

	JSONError(w, http.StatusNotFound, "NOT_FOUND", "book not found", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "book not found", body.Error.Message)
	assert.Empty(t, body.Error.Details)
}

func TestJSONError_WithDetails(t *testing.T) {
	w := httptest.NewRecorder()

	details := []ErrorDetail{{Field: "title", Message: "title is required"}}
	JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "request validation failed", details)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "title", body.Error.Details[0].Field)
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()

	NoContent(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())
}
