package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsHandler(origins []string) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return CORSMiddleware(origins)(next)
}

func TestCORSAllowedOrigin(t *testing.T) {
	h := corsHandler([]string{"http://localhost:19006"})

	r := httptest.NewRequest("GET", "/api/requests", nil)
	r.Header.Set("Origin", "http://localhost:19006")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:19006" {
		t.Fatalf("Allow-Origin: got %q", got)
	}
	if w.Code != http.StatusOK {
		t.Fatalf("Status: got %d, want 200", w.Code)
	}
}

func TestCORSUnknownOrigin(t *testing.T) {
	h := corsHandler([]string{"http://localhost:19006"})

	r := httptest.NewRequest("GET", "/api/requests", nil)
	r.Header.Set("Origin", "http://evil.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Allow-Origin set for unknown origin: %q", got)
	}
}

func TestCORSWildcard(t *testing.T) {
	h := corsHandler([]string{"*"})

	r := httptest.NewRequest("GET", "/api/requests", nil)
	r.Header.Set("Origin", "http://anywhere.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://anywhere.example.com" {
		t.Fatalf("Allow-Origin: got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	h := CORSMiddleware([]string{"http://localhost:19006"})(next)

	r := httptest.NewRequest("OPTIONS", "/api/requests", nil)
	r.Header.Set("Origin", "http://localhost:19006")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Preflight status: got %d, want 204", w.Code)
	}
	if called {
		t.Fatalf("Preflight reached the inner handler")
	}
}
