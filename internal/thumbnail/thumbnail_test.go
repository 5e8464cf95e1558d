package thumbnail

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/sketchboard/sketchboard/backend-go/internal/auth"
	"github.com/sketchboard/sketchboard/backend-go/internal/board"
	"github.com/sketchboard/sketchboard/backend-go/internal/db"
	"github.com/sketchboard/sketchboard/backend-go/internal/render"
	"github.com/sketchboard/sketchboard/backend-go/internal/typeid"
)

type fixture struct {
	store   db.Store
	service *Service
	boards  *board.Service
	boardID string
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	base := t.TempDir()
	store, err := db.NewSQLiteStore(filepath.Join(base, "thumb.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	for _, u := range []db.User{
		{ID: "user_owner", Email: "owner@example.com", PasswordHash: "x"},
		{ID: "user_other", Email: "other@example.com", PasswordHash: "x"},
	} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	boards := board.NewService(store)
	b, err := boards.Create(ctx, "user_owner", board.CreateInput{Name: "Thumb", Sample: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	dir := filepath.Join(base, "thumbs")
	svc, err := NewService(dir, render.NewRenderer(nil), store)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return &fixture{store: store, service: svc, boards: boards, boardID: b.ID, dir: dir}
}

func TestRefreshRecordsURL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, _ := f.store.GetBoard(ctx, f.boardID)
	url, err := f.service.Refresh(ctx, f.boardID, b.Elements)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	want := "/thumbnails/" + f.boardID + ".jpg?v=1700000000000"
	if url != want {
		t.Fatalf("url = %q, want %q", url, want)
	}

	b, _ = f.store.GetBoard(ctx, f.boardID)
	if b.Thumbnail != want {
		t.Fatalf("board thumbnail = %q", b.Thumbnail)
	}

	data, err := os.ReadFile(filepath.Join(f.dir, f.boardID+".jpg"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format != "jpeg" || cfg.Width != render.ThumbnailWidth || cfg.Height != render.ThumbnailHeight {
		t.Fatalf("stored image = %+v %q %v", cfg, format, err)
	}

	if err := f.service.Remove(f.boardID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := f.service.Remove(f.boardID); err != nil {
		t.Fatalf("second Remove: %v", err)
	}
}

func TestRejectsPathLikeIDs(t *testing.T) {
	f := newFixture(t)
	if _, err := f.service.Refresh(context.Background(), "../escape", nil); err == nil {
		t.Fatal("Refresh accepted a path-like board id")
	}
	if _, err := f.service.Refresh(context.Background(), typeid.NewUserID(), nil); err == nil {
		t.Fatal("Refresh accepted a user id")
	}
}

func pngUpload(t *testing.T) (*bytes.Buffer, string) {
	t.Helper()
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 40, 30))); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="thumb.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	part.Write(img.Bytes())
	mw.Close()
	return &body, mw.FormDataContentType()
}

func TestHandler(t *testing.T) {
	f := newFixture(t)
	h := NewHandler(f.service, f.boards)

	r := mux.NewRouter()
	r.HandleFunc("/boards/{boardId}/thumbnail", func(w http.ResponseWriter, req *http.Request) {
		ctx := context.WithValue(req.Context(), auth.UserIDKey, req.Header.Get("X-User"))
		h.Update(w, req.WithContext(ctx))
	}).Methods("POST")
	r.PathPrefix(URLPrefix).Handler(f.service.Serve())

	do := func(user string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
		if body == nil {
			body = &bytes.Buffer{}
		}
		req := httptest.NewRequest(http.MethodPost, "/boards/"+f.boardID+"/thumbnail", body)
		req.Header.Set("X-User", user)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	if rec := do("user_other", nil, ""); rec.Code != http.StatusForbidden {
		t.Fatalf("stranger: status = %d", rec.Code)
	}
	if rec := do("user_owner", nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("generate: status = %d (%s)", rec.Code, rec.Body.String())
	}

	body, ct := pngUpload(t)
	rec := do("user_owner", body, ct)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), f.boardID+".jpg") {
		t.Fatalf("upload: status = %d (%s)", rec.Code, rec.Body.String())
	}

	get := httptest.NewRecorder()
	r.ServeHTTP(get, httptest.NewRequest(http.MethodGet, URLPrefix+f.boardID+".jpg", nil))
	if get.Code != http.StatusOK || get.Header().Get("Cache-Control") == "" {
		t.Fatalf("serve: status = %d, headers %v", get.Code, get.Header())
	}
	cfg, _, err := image.DecodeConfig(get.Body)
	if err != nil || cfg.Width != 40 {
		t.Fatalf("served image = %+v, %v", cfg, err)
	}
}
