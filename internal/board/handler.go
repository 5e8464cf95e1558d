package board

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/sketchboard/sketchboard/backend-go/internal/auth"
	"github.com/sketchboard/sketchboard/backend-go/internal/db"
	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type inviteRequest struct {
	Email string `json:"email"`
}

type elementsRequest struct {
	Elements []document.Element `json:"elements"`
}

// Register mounts the board routes on an authenticated router.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/boards", h.List).Methods("GET")
	r.HandleFunc("/boards", h.Create).Methods("POST")
	r.HandleFunc("/boards/public", h.ListPublic).Methods("GET")
	r.HandleFunc("/boards/{boardId}", h.Get).Methods("GET")
	r.HandleFunc("/boards/{boardId}", h.UpdateMeta).Methods("PATCH")
	r.HandleFunc("/boards/{boardId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/boards/{boardId}/elements", h.UpdateElements).Methods("PUT")
	r.HandleFunc("/boards/{boardId}/invite", h.Invite).Methods("POST")
	r.HandleFunc("/boards/{boardId}/collaborators/{userId}", h.RemoveCollaborator).Methods("DELETE")
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	b, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	boardID := mux.Vars(r)["boardId"]

	b, err := h.service.Get(r.Context(), boardID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	boards, err := h.service.List(r.Context(), userID)
	if err != nil {
		slog.Error("list boards failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (h *Handler) ListPublic(w http.ResponseWriter, r *http.Request) {
	boards, err := h.service.ListPublic(r.Context())
	if err != nil {
		slog.Error("list public boards failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, boards)
}

func (h *Handler) UpdateElements(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	boardID := mux.Vars(r)["boardId"]

	var req elementsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	elements, err := h.service.UpdateElements(r.Context(), boardID, userID, req.Elements)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, elementsRequest{Elements: elements})
}

func (h *Handler) UpdateMeta(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	boardID := mux.Vars(r)["boardId"]

	var req db.MetaUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	b, err := h.service.UpdateMeta(r.Context(), boardID, userID, req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b.Metadata())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	boardID := mux.Vars(r)["boardId"]

	if err := h.service.Delete(r.Context(), boardID, userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	boardID := mux.Vars(r)["boardId"]

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	if err := h.service.InviteByEmail(r.Context(), boardID, userID, req.Email); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "invited"})
}

func (h *Handler) RemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	vars := mux.Vars(r)

	if err := h.service.RemoveCollaborator(r.Context(), vars["boardId"], userID, vars["userId"]); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
	case errors.Is(err, ErrInvalid):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
