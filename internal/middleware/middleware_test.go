package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestLoggerKeepsStatus(t *testing.T) {
	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tea", nil))
	if rec.Code != http.StatusTeapot || rec.Body.String() != "short and stout" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		status     int
		wantHeader string
	}{
		{"allowed", []string{"http://localhost:5173"}, http.MethodGet, "http://localhost:5173", http.StatusOK, "http://localhost:5173"},
		{"other origin", []string{"http://localhost:5173"}, http.MethodGet, "http://evil.test", http.StatusOK, ""},
		{"wildcard", []string{"*"}, http.MethodGet, "http://any.test", http.StatusOK, "http://any.test"},
		{"preflight", []string{"http://localhost:5173"}, http.MethodOptions, "http://localhost:5173", http.StatusNoContent, "http://localhost:5173"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/api/boards", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		CORS(tt.allowed)(next).ServeHTTP(rec, req)
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.status)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantHeader {
			t.Errorf("%s: allow-origin = %q, want %q", tt.name, got, tt.wantHeader)
		}
	}
}
