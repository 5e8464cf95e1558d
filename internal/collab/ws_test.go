package collab

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

func queryAuthorizer(r *http.Request, boardID string) (Identity, error) {
	user := r.URL.Query().Get("user")
	switch {
	case user == "":
		return Identity{}, ErrUnauthorized
	case boardID != "board_1":
		return Identity{}, ErrNotFound
	case user == "banned":
		return Identity{}, ErrForbidden
	}
	return Identity{UserID: user, DisplayName: user, CanEdit: user != "viewer"}, nil
}

func readType(ctx context.Context, t *testing.T, conn *websocket.Conn, want string) Message {
	t.Helper()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("read waiting for %q: %v", want, err)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if msg.Type == want {
			return msg
		}
	}
}

func TestWebsocketSession(t *testing.T) {
	boards := newMemBoards()
	hub := NewHub(boards.load, boards.save)
	go hub.Run()
	t.Cleanup(hub.Stop)

	r := mux.NewRouter()
	r.Handle("/ws/board/{boardId}", NewHandler(hub, queryAuthorizer, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/board/"
	dial := func(path string) *websocket.Conn {
		t.Helper()
		conn, _, err := websocket.Dial(ctx, base+path, nil)
		if err != nil {
			t.Fatalf("dial %s: %v", path, err)
		}
		t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
		return conn
	}

	for _, tt := range []struct {
		path   string
		status int
	}{
		{"board_1", http.StatusUnauthorized},
		{"board_2?user=alice", http.StatusNotFound},
		{"board_1?user=banned", http.StatusForbidden},
	} {
		_, resp, err := websocket.Dial(ctx, base+tt.path, nil)
		if err == nil {
			t.Fatalf("dial %s succeeded", tt.path)
		}
		if resp == nil || resp.StatusCode != tt.status {
			t.Fatalf("dial %s: response %v, want status %d", tt.path, resp, tt.status)
		}
	}

	alice := dial("board_1?user=alice")
	var sync SyncPayload
	json.Unmarshal(readType(ctx, t, alice, TypeBoardSync).Payload, &sync)
	if len(sync.Elements) != 1 {
		t.Fatalf("alice sync = %+v", sync)
	}

	bob := dial("board_1?user=bob")
	readType(ctx, t, bob, TypeBoardSync)
	readType(ctx, t, alice, TypePresenceJoin)

	update, _ := json.Marshal(Message{
		Type:    TypeBoardUpdate,
		Payload: mustJSON(t, UpdatePayload{Elements: []document.Element{{ID: 5, Kind: document.KindArrow, X2: 40, Y2: 0}}}),
	})
	if err := alice.Write(ctx, websocket.MessageText, update); err != nil {
		t.Fatalf("write: %v", err)
	}
	readType(ctx, t, alice, TypeBoardAck)

	var got SyncPayload
	json.Unmarshal(readType(ctx, t, bob, TypeBoardUpdate).Payload, &got)
	if len(got.Elements) != 1 || got.Elements[0].Kind != document.KindArrow || got.Seq != 1 {
		t.Fatalf("bob received %+v", got)
	}

	viewer := dial("board_1?user=viewer")
	var welcome WelcomePayload
	json.Unmarshal(readType(ctx, t, viewer, TypeWelcome).Payload, &welcome)
	if welcome.CanEdit {
		t.Fatal("viewer welcomed as editor")
	}
	if err := viewer.Write(ctx, websocket.MessageText, update); err != nil {
		t.Fatalf("viewer write: %v", err)
	}
	readType(ctx, t, viewer, TypeError)

	if n := hub.FlushDirty(ctx); n != 1 {
		t.Fatalf("FlushDirty = %d, want 1", n)
	}
	saved, _ := boards.snapshot("board_1")
	if len(saved) != 1 || saved[0].ID != 5 {
		t.Fatalf("saved = %+v", saved)
	}
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}
