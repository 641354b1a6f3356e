package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-filedb/pkg/api"
	"github.com/adfharrison1/go-filedb/pkg/storage"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *bytes.Buffer) {
	t.Helper()
	engine, err := storage.NewEngine(t.TempDir())
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewServer(engine, append([]Option{WithLogger(logger)}, opts...)...), &logs
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestServer_InsertAndGet(t *testing.T) {
	s, _ := newTestServer(t)

	w := serve(s, httptest.NewRequest("POST", "/collections/users", strings.NewReader(`{"name": "a"}`)))
	require.Equal(t, http.StatusCreated, w.Code)
	var inserted api.InsertResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &inserted))

	w = serve(s, httptest.NewRequest("GET", "/collections/users/documents/"+inserted.ID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"_id": "`+inserted.ID.String()+`", "name": "a"}`, w.Body.String())
}

func TestServer_RequestID(t *testing.T) {
	s, logs := newTestServer(t)

	w := serve(s, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Contains(t, logs.String(), generated)

	// A well-formed client id is kept.
	clientID := uuid.NewString()
	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, clientID)
	w = serve(s, req)
	assert.Equal(t, clientID, w.Header().Get(RequestIDHeader))

	// Anything else is replaced.
	req = httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\nforged log line")
	w = serve(s, req)
	assert.NotEqual(t, "not a uuid\nforged log line", w.Header().Get(RequestIDHeader))
}

func TestServer_RequestLogging(t *testing.T) {
	s, logs := newTestServer(t)

	w := serve(s, httptest.NewRequest("GET", "/collections/users/documents/0000000000000000", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	var found bool
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "request" {
			found = true
			assert.Equal(t, "GET", entry["method"])
			assert.Equal(t, float64(http.StatusNotFound), entry["status"])
		}
	}
	assert.True(t, found)
}

func TestServer_NotFound(t *testing.T) {
	s, logs := newTestServer(t)

	w := serve(s, httptest.NewRequest("GET", "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Contains(t, logs.String(), "no route found")
}

func TestServer_RateLimit(t *testing.T) {
	s, _ := newTestServer(t, WithRateLimit(0.001, 2))

	for i := 0; i < 2; i++ {
		w := serve(s, httptest.NewRequest("GET", "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w := serve(s, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestServer_RateLimitDisabled(t *testing.T) {
	s, _ := newTestServer(t, WithRateLimit(0, 0))
	assert.Nil(t, s.limiter)

	for i := 0; i < 50; i++ {
		w := serve(s, httptest.NewRequest("GET", "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestStatusRecorder_Flush(t *testing.T) {
	w := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	var _ http.Flusher = rec

	rec.WriteHeader(http.StatusAccepted)
	rec.WriteHeader(http.StatusInternalServerError)
	rec.Flush()

	assert.Equal(t, http.StatusAccepted, rec.status)
	assert.True(t, w.Flushed)
}
