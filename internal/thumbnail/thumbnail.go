// Package thumbnail keeps the dashboard preview image of each board on disk
// and records its URL on the board.
package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sketchboard/sketchboard/backend-go/internal/db"
	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/render"
	"github.com/sketchboard/sketchboard/backend-go/internal/typeid"
)

// URLPrefix is where Serve is mounted.
const URLPrefix = "/thumbnails/"

type Service struct {
	dir      string
	renderer *render.Renderer
	store    db.Store
	now      func() time.Time
}

func NewService(dir string, renderer *render.Renderer, store db.Store) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail dir: %w", err)
	}
	return &Service{dir: dir, renderer: renderer, store: store, now: time.Now}, nil
}

func (s *Service) path(boardID string) string {
	return filepath.Join(s.dir, boardID+".jpg")
}

// Refresh renders a new thumbnail from elements and records it on the board.
func (s *Service) Refresh(ctx context.Context, boardID string, elements []document.Element) (string, error) {
	var buf bytes.Buffer
	if err := s.renderer.Thumbnail(&buf, elements); err != nil {
		return "", err
	}
	return s.write(ctx, boardID, buf.Bytes())
}

// SaveImage stores an uploaded preview, re-encoded as JPEG.
func (s *Service) SaveImage(ctx context.Context, boardID string, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: render.ThumbnailQuality}); err != nil {
		return "", fmt.Errorf("encode thumbnail: %w", err)
	}
	return s.write(ctx, boardID, buf.Bytes())
}

func (s *Service) write(ctx context.Context, boardID string, data []byte) (string, error) {
	if err := typeid.Validate(boardID, typeid.PrefixBoard); err != nil {
		return "", err
	}

	// Write then rename so readers never see a partial file.
	tmp, err := os.CreateTemp(s.dir, boardID+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create thumbnail: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close thumbnail: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(boardID)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename thumbnail: %w", err)
	}

	// v changes on every write.
	url := fmt.Sprintf("%s%s.jpg?v=%d", URLPrefix, boardID, s.now().UnixMilli())
	if err := s.store.UpdateBoardMeta(ctx, boardID, db.MetaUpdate{Thumbnail: &url}); err != nil {
		return "", fmt.Errorf("record thumbnail: %w", err)
	}
	return url, nil
}

// Remove deletes the thumbnail of a board. A missing file is not an error.
func (s *Service) Remove(boardID string) error {
	err := os.Remove(s.path(boardID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove thumbnail: %w", err)
	}
	return nil
}

// Serve returns an http.Handler for the stored files, mounted at URLPrefix.
func (s *Service) Serve() http.Handler {
	files := http.FileServer(http.Dir(s.dir))
	return http.StripPrefix(URLPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Thumbnail URLs are versioned.
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(w, r)
	}))
}
