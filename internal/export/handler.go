// Package export serves board downloads: PNG, PDF and JPEG thumbnails.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sketchboard/sketchboard/backend-go/internal/auth"
	"github.com/sketchboard/sketchboard/backend-go/internal/board"
	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/engine"
	"github.com/sketchboard/sketchboard/backend-go/internal/geometry"
	"github.com/sketchboard/sketchboard/backend-go/internal/render"
)

const maxBodySize = 10 << 20 // 10MB

const (
	FormatPNG       = "png"
	FormatPDF       = "pdf"
	FormatThumbnail = "thumbnail"
)

// BoardReader loads a board on behalf of a user.
type BoardReader interface {
	Get(ctx context.Context, boardID, userID string) (*document.Board, error)
}

type Handler struct {
	renderer *render.Renderer
	boards   BoardReader
}

func NewHandler(renderer *render.Renderer, boards BoardReader) *Handler {
	return &Handler{renderer: renderer, boards: boards}
}

// exportRequest is the body of POST /export, used by the anonymous
// playground which has no stored board.
type exportRequest struct {
	Elements []document.Element `json:"elements"`
	Format   string             `json:"format"`
	Width    float64            `json:"width"`
	Height   float64            `json:"height"`
	Name     string             `json:"name"`
}

// ExportBoard handles GET /api/boards/{boardId}/export?format=png|pdf|thumbnail.
// The optional w and h parameters give the viewport size used for an empty
// board.
func (h *Handler) ExportBoard(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	boardID := mux.Vars(r)["boardId"]

	b, err := h.boards.Get(r.Context(), boardID, userID)
	if err != nil {
		switch {
		case errors.Is(err, board.ErrNotFound):
			http.Error(w, "board not found", http.StatusNotFound)
		case errors.Is(err, board.ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		default:
			slog.Error("load board for export", "board", boardID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	q := r.URL.Query()
	viewW := parseSize(q.Get("w"), engine.DefaultViewW)
	viewH := parseSize(q.Get("h"), engine.DefaultViewH)
	h.write(w, q.Get("format"), b.Name, b.Elements, viewW, viewH)
}

// Export handles POST /export with the elements in the body.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	elements, err := geometry.Canonicalize(req.Elements)
	if err != nil {
		http.Error(w, "invalid elements: "+err.Error(), http.StatusBadRequest)
		return
	}

	viewW, viewH := req.Width, req.Height
	if !(viewW > 0 && document.Finite(viewW)) {
		viewW = engine.DefaultViewW
	}
	if !(viewH > 0 && document.Finite(viewH)) {
		viewH = engine.DefaultViewH
	}
	h.write(w, req.Format, req.Name, elements, viewW, viewH)
}

func (h *Handler) write(w http.ResponseWriter, format, name string, elements []document.Element, viewW, viewH float64) {
	if format == "" {
		format = FormatPNG
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
		ext         string
	)
	switch format {
	case FormatPNG:
		contentType, ext = "image/png", "png"
		err = h.renderer.PNG(&buf, elements, viewW, viewH)
	case FormatPDF:
		contentType, ext = "application/pdf", "pdf"
		err = h.renderer.PDF(&buf, elements, viewW, viewH)
	case FormatThumbnail:
		contentType, ext = "image/jpeg", "jpg"
		err = h.renderer.Thumbnail(&buf, elements)
	default:
		http.Error(w, "invalid format: must be png, pdf, or thumbnail", http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("export failed", "format", format, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, sanitizeName(name), ext))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	io.Copy(w, &buf)

	slog.Info("export complete", "format", format, "elements", len(elements), "size", buf.Len())
}

func parseSize(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v > 0) || !document.Finite(v) {
		return fallback
	}
	return v
}

// sanitizeName keeps a download name to ASCII letters, digits, dash and
// underscore.
func sanitizeName(name string) string {
	if name == "" {
		return "sketchboard"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
