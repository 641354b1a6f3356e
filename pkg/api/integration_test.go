package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adfharrison1/go-filedb/pkg/domain"
	"github.com/adfharrison1/go-filedb/pkg/storage"
)

// TestServer represents a test HTTP server backed by a real Engine
type TestServer struct {
	Server  *httptest.Server
	DataDir string
	Engine  *storage.Engine
	BaseURL string
}

// NewTestServer creates a new test server over a temporary data directory
func NewTestServer(t *testing.T, opts ...storage.Option) *TestServer {
	dataDir := t.TempDir()
	engine, err := storage.NewEngine(dataDir, opts...)
	require.NoError(t, err)

	router := mux.NewRouter()
	NewHandler(engine, nil).RegisterRoutes(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:  server,
		DataDir: dataDir,
		Engine:  engine,
		BaseURL: server.URL,
	}
}

func (ts *TestServer) do(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.BaseURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestAPI_Integration_BasicCRUD(t *testing.T) {
	ts := NewTestServer(t)

	status, body := ts.do(t, "POST", "/collections/users", map[string]interface{}{"name": "a"})
	require.Equal(t, http.StatusCreated, status)
	var inserted InsertResponse
	require.NoError(t, json.Unmarshal(body, &inserted))
	id := inserted.ID.String()

	// One file per document, named by the identifier.
	_, err := os.Stat(filepath.Join(ts.DataDir, "users", id))
	require.NoError(t, err)

	status, body = ts.do(t, "GET", "/collections/users/documents/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"_id": "`+id+`", "name": "a"}`, string(body))

	status, body = ts.do(t, "PATCH", "/collections/users/documents/"+id, map[string]interface{}{"name": "c", "age": 3})
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"_id": "`+id+`", "name": "c", "age": 3}`, string(body))

	status, _ = ts.do(t, "PUT", "/collections/users/documents/"+id, map[string]interface{}{"name": "d"})
	require.Equal(t, http.StatusOK, status)
	status, body = ts.do(t, "GET", "/collections/users/documents/"+id, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"_id": "`+id+`", "name": "d"}`, string(body))

	status, _ = ts.do(t, "DELETE", "/collections/users/documents/"+id, nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = ts.do(t, "GET", "/collections/users/documents/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAPI_Integration_ErrorHandling(t *testing.T) {
	ts := NewTestServer(t)

	status, _ := ts.do(t, "GET", "/collections/users/documents/xyz", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = ts.do(t, "PUT", "/collections/users/documents/0123456789abcdef", map[string]interface{}{"a": 1})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = ts.do(t, "POST", "/collections/a%5Cb", map[string]interface{}{"a": 1})
	assert.Equal(t, http.StatusBadRequest, status)

	// A foreign file in the collection directory breaks scans.
	status, _ = ts.do(t, "POST", "/collections/users", map[string]interface{}{"a": 1})
	require.Equal(t, http.StatusCreated, status)
	require.NoError(t, os.WriteFile(filepath.Join(ts.DataDir, "users", "notes.txt"), []byte("x"), 0o644))
	status, body := ts.do(t, "GET", "/collections/users/find", nil)
	assert.Equal(t, http.StatusInternalServerError, status, string(body))
}

func TestAPI_Integration_CorruptDocument(t *testing.T) {
	ts := NewTestServer(t)

	status, _ := ts.do(t, "POST", "/collections/users", map[string]interface{}{"name": "ok"})
	require.Equal(t, http.StatusCreated, status)
	corrupt := filepath.Join(ts.DataDir, "users", "0000000000000001")
	require.NoError(t, os.WriteFile(corrupt, []byte("{"), 0o644))

	status, body := ts.do(t, "GET", "/collections/users/find", nil)
	require.Equal(t, http.StatusOK, status)
	var page domain.PaginationResult
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Documents, 1)

	status, body = ts.do(t, "PATCH", "/collections/users/batch", BatchUpdateRequest{Set: domain.Document{"x": 1}})
	assert.Equal(t, http.StatusInternalServerError, status)
	var resp BatchUpdateResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.False(t, resp.Success)
	assert.Zero(t, resp.UpdatedCount)

	raw, err := os.ReadFile(corrupt)
	require.NoError(t, err)
	assert.Equal(t, "{", string(raw))
}

func TestAPI_Integration_BatchAndQuery(t *testing.T) {
	ts := NewTestServer(t)

	docs := []domain.Document{
		{"name": "Alice", "age": 30, "city": "Paris"},
		{"name": "Bob", "age": 17, "city": "Paris"},
		{"name": "Carol", "age": 45, "city": "Rome"},
	}
	status, _ := ts.do(t, "POST", "/collections/users/batch", BatchInsertRequest{Documents: docs})
	require.Equal(t, http.StatusCreated, status)

	status, body := ts.do(t, "PATCH", "/collections/users/batch", BatchUpdateRequest{
		Where: `city == "Paris" && age >= 18`,
		Set:   domain.Document{"vip": true},
	})
	require.Equal(t, http.StatusOK, status)
	var resp BatchUpdateResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, 1, resp.UpdatedCount)

	status, body = ts.do(t, "GET", "/collections/users/find?vip=true", nil)
	require.Equal(t, http.StatusOK, status)
	var page domain.PaginationResult
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Documents, 1)
	assert.Equal(t, "Alice", page.Documents[0]["name"])
}

func TestAPI_Integration_ConcurrentRequests(t *testing.T) {
	ts := NewTestServer(t)

	const workers, perWorker = 8, 10
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				resp, err := http.Post(ts.BaseURL+"/collections/load", "application/json",
					bytes.NewBufferString(`{"i": 1}`))
				if !assert.NoError(t, err) {
					return
				}
				resp.Body.Close()
				assert.Equal(t, http.StatusCreated, resp.StatusCode)
			}
		}()
	}
	wg.Wait()

	items, err := ts.Engine.FindAll("load", nil)
	require.NoError(t, err)
	assert.Len(t, items, workers*perWorker)
}
