package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/avhimaz/kvengine/internal/engine"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := engine.Load(filepath.Join(t.TempDir(), "data.db"))
	if err != nil {
		t.Fatalf("engine.Load: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewServer(store)
}

func doJSON(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /: got status %d", rec.Code)
	}
}

func TestSetGetDeleteRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/set", setRequest{Key: "a", Value: "1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /set: got status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/get/a", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /get/a: got status %d", rec.Code)
	}
	var got getResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Value != "1" {
		t.Fatalf("GET /get/a: got value %q, want %q", got.Value, "1")
	}

	rec = doJSON(t, s, http.MethodDelete, "/del/a", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE /del/a: got status %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/get/a", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /get/a after delete: got status %d, want 404", rec.Code)
	}
}

func TestGetMissingKeyIs404(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/get/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("GET /get/nope: got status %d, want 404", rec.Code)
	}
}

func TestSetRejectsEmptyKey(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodPost, "/set", setRequest{Key: "", Value: "1"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("POST /set with empty key: got status %d, want 400", rec.Code)
	}
}
