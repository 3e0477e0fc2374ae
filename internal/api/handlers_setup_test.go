package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// setupTestServer creates a handler over in-memory storage and serves it the
// way the real server does.
func setupTestServer(t *testing.T) (*httptest.Server, *mockStorage, *mockEngine) {
	t.Helper()

	store := newMockStorage()
	engine := &mockEngine{store: store}
	handler := NewHandler(store, engine, time.Hour)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server, store, engine
}

func TestRoutesRegistered(t *testing.T) {
	server, _, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/templates")
	if err != nil {
		t.Fatalf("GET /api/templates: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
}
