package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gohttp "github.com/km-arc/go-bootstrap/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newResponse(t *testing.T) (*gohttp.Response, *httptest.ResponseRecorder) {
	t.Helper()
	rr := httptest.NewRecorder()
	return gohttp.NewResponse(rr), rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&m))
	return m
}

// ── JSON ──────────────────────────────────────────────────────────────────────

func TestResponse_JSON(t *testing.T) {
	res, rr := newResponse(t)
	res.JSON(http.StatusOK, map[string]any{"key": "val"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "val", decodeJSON(t, rr)["key"])
}

func TestResponse_Success(t *testing.T) {
	res, rr := newResponse(t)
	res.Success(map[string]any{"id": 1})

	assert.Equal(t, http.StatusOK, rr.Code)
	data, ok := decodeJSON(t, rr)["data"].(map[string]any)
	require.True(t, ok, "expected data envelope")
	assert.Equal(t, float64(1), data["id"])
}

func TestResponse_NoContent(t *testing.T) {
	res, rr := newResponse(t)
	res.NoContent()

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, rr.Body.Len())
}

// ── Error helpers ─────────────────────────────────────────────────────────────

func TestResponse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		write   func(*gohttp.Response)
		status  int
		message string
	}{
		{"error", func(r *gohttp.Response) { r.Error(http.StatusConflict, "not ready") }, http.StatusConflict, "not ready"},
		{"not found default", func(r *gohttp.Response) { r.NotFound() }, http.StatusNotFound, "Not found."},
		{"not found custom", func(r *gohttp.Response) { r.NotFound("no such key") }, http.StatusNotFound, "no such key"},
		{"unavailable", func(r *gohttp.Response) { r.Unavailable() }, http.StatusServiceUnavailable, "Service unavailable."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, rr := newResponse(t)
			tt.write(res)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.message, decodeJSON(t, rr)["message"])
		})
	}
}
