package thumbnail

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/sketchboard/sketchboard/backend-go/internal/auth"
	"github.com/sketchboard/sketchboard/backend-go/internal/board"
	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

const maxUploadSize = 2 << 20 // 2MB

// BoardReader loads a board on behalf of a user.
type BoardReader interface {
	Get(ctx context.Context, boardID, userID string) (*document.Board, error)
}

type UploadResponse struct {
	URL string `json:"url"`
}

type Handler struct {
	service *Service
	boards  BoardReader
}

func NewHandler(service *Service, boards BoardReader) *Handler {
	return &Handler{service: service, boards: boards}
}

// Update handles POST /api/boards/{boardId}/thumbnail. A multipart request
// with a "file" field (PNG or JPEG) stores that image; any other request
// renders the thumbnail from the stored elements.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
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
			slog.Error("load board for thumbnail", "board", boardID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	if !board.CanEdit(b, userID) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	var url string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		img, ok := readUpload(w, r)
		if !ok {
			return
		}
		url, err = h.service.SaveImage(r.Context(), boardID, img)
	} else {
		url, err = h.service.Refresh(r.Context(), boardID, b.Elements)
	}
	if err != nil {
		slog.Error("store thumbnail", "board", boardID, "error", err)
		http.Error(w, "failed to save thumbnail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(UploadResponse{URL: url})
}

func readUpload(w http.ResponseWriter, r *http.Request) (image.Image, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 2MB)", http.StatusBadRequest)
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return nil, false
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/png") && !strings.HasPrefix(contentType, "image/jpeg") {
		http.Error(w, "only PNG and JPEG images are supported", http.StatusBadRequest)
		return nil, false
	}

	img, _, err := image.Decode(file)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return img, true
}
