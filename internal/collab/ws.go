package collab

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("board not found")
)

// Authorizer resolves who is opening a board connection and whether they may
// edit it. It returns one of the package errors to refuse the upgrade.
type Authorizer func(r *http.Request, boardID string) (Identity, error)

// Handler upgrades /ws/board/{boardId} requests and attaches them to the hub.
type Handler struct {
	hub            *Hub
	authorize      Authorizer
	originPatterns []string
}

func NewHandler(hub *Hub, authorize Authorizer, originPatterns []string) *Handler {
	return &Handler{hub: hub, authorize: authorize, originPatterns: originPatterns}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]

	id, err := h.authorize(r, boardID)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnauthorized):
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		case errors.Is(err, ErrForbidden):
			http.Error(w, "forbidden", http.StatusForbidden)
		case errors.Is(err, ErrNotFound):
			http.Error(w, "board not found", http.StatusNotFound)
		default:
			slog.Error("authorize websocket", "board", boardID, "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, id, boardID, uuid.New().String())
	h.hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
