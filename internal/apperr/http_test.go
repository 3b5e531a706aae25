package apperr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["error"]
}

func TestWrite_ValidationFields(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles", nil)

	Write(rr, req, ValidationFields("validation failed", map[string]string{"brand": "is required"}))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	e := decodeEnvelope(t, rr)
	assert.Equal(t, "VALIDATION", e["code"])
	assert.Equal(t, map[string]any{"brand": "is required"}, e["details"])
}

func TestWrite_HidesInternalCause(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)

	Write(rr, req, errors.New("dial tcp 10.0.0.5:27017: refused"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	e := decodeEnvelope(t, rr)
	assert.Equal(t, "INTERNAL", e["code"])
	assert.Equal(t, "internal server error", e["message"])
	assert.NotContains(t, rr.Body.String(), "10.0.0.5")
}

func TestWrite_StoreUnavailable(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/vehicles", nil)

	Write(rr, req, StoreUnavailable("list vehicles", errors.New("timeout")))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "STORE_UNAVAILABLE", decodeEnvelope(t, rr)["code"])
}
