package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskwall/taskwall/pkg/apperr"
	"github.com/taskwall/taskwall/pkg/observability"
)

func discardLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

func TestWriteFieldError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteFieldError(rec, apperr.Blank("title", "Title cannot be empty."))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]apperr.Detail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, apperr.Detail{String: "Title cannot be empty.", Code: "blank"}, body["title"])
}

func TestWriteErrorUnwrapsFieldErrors(t *testing.T) {
	rec := httptest.NewRecorder()

	// Field errors survive %w wrapping.
	wrapped := fmt.Errorf("handler: %w", apperr.NotAuthenticated())
	WriteError(rec, discardLogger(), wrapped)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var body map[string]apperr.Detail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_authenticated", body["auth"].Code)
}

func TestWriteErrorHidesInfrastructureFailures(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, discardLogger(), errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body["error"])
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestAuthHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/boards", nil)
	req.Header.Set(HeaderAuthUser, "someuser")
	req.Header.Set(HeaderAuthToken, "sometoken")

	username, token := AuthHeaders(req)
	assert.Equal(t, "someuser", username)
	assert.Equal(t, "sometoken", token)
}

func TestQueryParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/boards?id=&team_id=3", nil)

	assert.Equal(t, "", QueryParam(req, "id"))
	assert.True(t, HasQueryParam(req, "id"))
	assert.Equal(t, "3", QueryParam(req, "team_id"))
	assert.False(t, HasQueryParam(req, "column_id"))
}
