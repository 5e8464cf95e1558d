package export

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/sketchboard/sketchboard/backend-go/internal/board"
	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/render"
)

type fakeBoards map[string]*document.Board

func (f fakeBoards) Get(_ context.Context, boardID, userID string) (*document.Board, error) {
	b, ok := f[boardID]
	if !ok {
		return nil, board.ErrNotFound
	}
	if !board.CanRead(b, userID) {
		return nil, board.ErrForbidden
	}
	return b, nil
}

func newTestHandler() http.Handler {
	sample := document.NewSampleBoard("", "owner@example.com")
	sample.ID = "board_1"
	sample.Name = "My plan!"
	sample.IsPublic = true
	h := NewHandler(render.NewRenderer(nil), fakeBoards{"board_1": sample})

	r := mux.NewRouter()
	r.HandleFunc("/boards/{boardId}/export", h.ExportBoard).Methods("GET")
	r.HandleFunc("/export", h.Export).Methods("POST", "OPTIONS")
	return r
}

func TestExportBoard(t *testing.T) {
	h := newTestHandler()
	tests := []struct {
		path        string
		status      int
		contentType string
		filename    string
	}{
		{"/boards/board_1/export", http.StatusOK, "image/png", `"My-plan-.png"`},
		{"/boards/board_1/export?format=pdf", http.StatusOK, "application/pdf", `"My-plan-.pdf"`},
		{"/boards/board_1/export?format=thumbnail", http.StatusOK, "image/jpeg", `"My-plan-.jpg"`},
		{"/boards/board_1/export?format=gif", http.StatusBadRequest, "", ""},
		{"/boards/board_2/export", http.StatusNotFound, "", ""},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d (%s)", tt.path, rec.Code, tt.status, rec.Body.String())
			continue
		}
		if tt.status != http.StatusOK {
			continue
		}
		if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
			t.Errorf("%s: content type = %q, want %q", tt.path, ct, tt.contentType)
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.HasSuffix(cd, tt.filename) {
			t.Errorf("%s: disposition = %q, want filename %s", tt.path, cd, tt.filename)
		}
		if rec.Body.Len() == 0 {
			t.Errorf("%s: empty body", tt.path)
		}
	}
}

func TestExportPosted(t *testing.T) {
	h := newTestHandler()
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"empty board", `{"elements":[],"width":300,"height":200}`, http.StatusOK},
		{"line", `{"elements":[{"id":1,"kind":"LINE","x1":0,"y1":0,"x2":50,"y2":50}],"format":"pdf"}`, http.StatusOK},
		{"unknown kind", `{"elements":[{"id":1,"kind":"BLOB"}]}`, http.StatusBadRequest},
		{"duplicate ids", `{"elements":[{"id":1,"kind":"LINE"},{"id":1,"kind":"LINE"}]}`, http.StatusBadRequest},
		{"bad json", `[`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/export", bytes.NewBufferString(tt.body)))
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d (%s)", tt.name, rec.Code, tt.status, rec.Body.String())
		}
	}
}

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"":           "sketchboard",
		"plan v2":    "plan-v2",
		"ok_name-1":  "ok_name-1",
		"ünïcode/..": "-n-code---",
	}
	for in, want := range tests {
		if got := sanitizeName(in); got != want {
			t.Errorf("sanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
