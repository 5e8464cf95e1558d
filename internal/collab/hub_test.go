package collab

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

type memBoards struct {
	mu     sync.Mutex
	boards map[string][]document.Element
	saves  int
}

func newMemBoards() *memBoards {
	return &memBoards{boards: map[string][]document.Element{
		"board_1": {{ID: 1, Kind: document.KindRectangle, X1: 0, Y1: 0, X2: 10, Y2: 10}},
	}}
}

func (m *memBoards) load(_ context.Context, boardID string) ([]document.Element, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	elements, ok := m.boards[boardID]
	if !ok {
		return nil, errors.New("no such board")
	}
	return elements, nil
}

func (m *memBoards) save(_ context.Context, boardID string, elements []document.Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boards[boardID] = elements
	m.saves++
	return nil
}

func (m *memBoards) snapshot(boardID string) ([]document.Element, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.boards[boardID], m.saves
}

func testClient(h *Hub, clientID, userID string, canEdit bool) *Client {
	return NewClient(h, nil, Identity{UserID: userID, DisplayName: userID, CanEdit: canEdit}, "board_1", clientID)
}

func recv(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatalf("client %s: send channel closed", c.ClientID)
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode message: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatalf("client %s: no message", c.ClientID)
	}
	return Message{}
}

func expectType(t *testing.T, c *Client, want string) Message {
	t.Helper()
	msg := recv(t, c)
	if msg.Type != want {
		t.Fatalf("client %s: got %q, want %q (%s)", c.ClientID, msg.Type, want, msg.Payload)
	}
	return msg
}

func expectQuiet(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("client %s: unexpected message %s", c.ClientID, data)
	default:
	}
}

func join(t *testing.T, h *Hub, c *Client) SyncPayload {
	t.Helper()
	h.addClient(c)
	expectType(t, c, TypeWelcome)
	var sync SyncPayload
	if err := json.Unmarshal(expectType(t, c, TypeBoardSync).Payload, &sync); err != nil {
		t.Fatalf("decode sync: %v", err)
	}
	expectType(t, c, TypePresenceState)
	return sync
}

func updateMessage(elements ...document.Element) *Message {
	data, _ := json.Marshal(UpdatePayload{Elements: elements})
	return &Message{Type: TypeBoardUpdate, Payload: data}
}

func TestJoinSendsSnapshot(t *testing.T) {
	boards := newMemBoards()
	h := NewHub(boards.load, boards.save)
	a := testClient(h, "c1", "user_a", true)

	sync := join(t, h, a)
	if len(sync.Elements) != 1 || sync.Elements[0].ID != 1 || sync.Seq != 0 {
		t.Fatalf("sync = %+v", sync)
	}
	if h.RoomCount() != 1 {
		t.Fatalf("RoomCount = %d, want 1", h.RoomCount())
	}

	b := testClient(h, "c2", "user_b", true)
	join(t, h, b)
	msg := expectType(t, a, TypePresenceJoin)
	if msg.UserID != "user_b" {
		t.Fatalf("join from %q, want user_b", msg.UserID)
	}
	expectQuiet(t, b)
}

func TestUpdateIsBroadcastToOthers(t *testing.T) {
	boards := newMemBoards()
	h := NewHub(boards.load, boards.save)
	a := testClient(h, "c1", "user_a", true)
	b := testClient(h, "c2", "user_b", true)
	join(t, h, a)
	join(t, h, b)
	expectType(t, a, TypePresenceJoin)

	h.handleMessage(a, updateMessage(
		document.Element{ID: 1, Kind: document.KindRectangle, X1: 10, Y1: 10, X2: 0, Y2: 0},
		document.Element{ID: 2, Kind: document.KindLine, X2: 5, Y2: 5},
	))

	var ack AckPayload
	json.Unmarshal(expectType(t, a, TypeBoardAck).Payload, &ack)
	if ack.Seq != 1 {
		t.Fatalf("ack seq = %d, want 1", ack.Seq)
	}
	expectQuiet(t, a)

	msg := expectType(t, b, TypeBoardUpdate)
	var got SyncPayload
	json.Unmarshal(msg.Payload, &got)
	if msg.UserID != "user_a" || got.Seq != 1 || len(got.Elements) != 2 {
		t.Fatalf("update = %s from %q", msg.Payload, msg.UserID)
	}
	if e := got.Elements[0]; e.X1 != 0 || e.X2 != 10 {
		t.Fatalf("rectangle not normalized: %+v", e)
	}
}

func TestRejectedUpdates(t *testing.T) {
	boards := newMemBoards()
	h := NewHub(boards.load, boards.save)
	viewer := testClient(h, "c1", "viewer", false)
	editor := testClient(h, "c2", "user_a", true)
	join(t, h, viewer)
	join(t, h, editor)
	expectType(t, viewer, TypePresenceJoin)

	h.handleMessage(viewer, updateMessage())
	expectType(t, viewer, TypeError)

	h.handleMessage(editor, updateMessage(document.Element{ID: 7, Kind: "STAR"}))
	expectType(t, editor, TypeError)

	h.handleMessage(editor, &Message{Type: TypeBoardUpdate, Payload: json.RawMessage(`{"elements":"nope"}`)})
	expectType(t, editor, TypeError)

	h.handleMessage(editor, &Message{Type: "board.explode"})
	expectType(t, editor, TypeError)

	expectQuiet(t, viewer)
	if h.FlushDirty(context.Background()) != 0 {
		t.Fatal("rejected updates left the room dirty")
	}
}

func TestPresenceUpdate(t *testing.T) {
	boards := newMemBoards()
	h := NewHub(boards.load, boards.save)
	a := testClient(h, "c1", "user_a", true)
	b := testClient(h, "c2", "user_b", true)
	join(t, h, a)
	join(t, h, b)
	expectType(t, a, TypePresenceJoin)

	h.handleMessage(a, &Message{Type: TypePresenceUpdate, Payload: json.RawMessage(`{"cursor":{"x":3,"y":4},"tool":"RECTANGLE","displayName":"spoofed"}`)})

	var p PresencePayload
	json.Unmarshal(expectType(t, b, TypePresenceUpdate).Payload, &p)
	if p.DisplayName != "user_a" || p.Cursor == nil || p.Cursor.X != 3 || p.Tool != "RECTANGLE" {
		t.Fatalf("presence = %+v", p)
	}
	expectQuiet(t, a)

	room, _ := h.room("board_1")
	if room.presence.Len() != 1 {
		t.Fatalf("presence entries = %d, want 1", room.presence.Len())
	}
}

func TestFlushDirty(t *testing.T) {
	boards := newMemBoards()
	h := NewHub(boards.load, boards.save)
	a := testClient(h, "c1", "user_a", true)
	join(t, h, a)

	h.handleMessage(a, updateMessage(document.Element{ID: 3, Kind: document.KindEllipse, X2: 4, Y2: 4}))
	expectType(t, a, TypeBoardAck)

	if n := h.FlushDirty(context.Background()); n != 1 {
		t.Fatalf("FlushDirty = %d, want 1", n)
	}
	saved, saves := boards.snapshot("board_1")
	if len(saved) != 1 || saved[0].ID != 3 || saves != 1 {
		t.Fatalf("saved %v after %d saves", saved, saves)
	}
	if n := h.FlushDirty(context.Background()); n != 0 {
		t.Fatalf("second FlushDirty = %d, want 0", n)
	}
}

func TestLastClientLeavingSaves(t *testing.T) {
	boards := newMemBoards()
	h := NewHub(boards.load, boards.save)
	a := testClient(h, "c1", "user_a", true)
	b := testClient(h, "c2", "user_b", true)
	join(t, h, a)
	join(t, h, b)

	h.handleMessage(a, updateMessage())
	h.removeClient(a)
	if _, saves := boards.snapshot("board_1"); saves != 0 {
		t.Fatalf("saved with a client still connected")
	}

	h.removeClient(b)
	saved, saves := boards.snapshot("board_1")
	if saves != 1 || len(saved) != 0 {
		t.Fatalf("after last leave: %d saves, elements %v", saves, saved)
	}
	if h.RoomCount() != 0 {
		t.Fatalf("RoomCount = %d, want 0", h.RoomCount())
	}

	// A stale unregister is harmless.
	h.removeClient(a)
}

func TestLoadFailureClosesClient(t *testing.T) {
	boards := newMemBoards()
	h := NewHub(boards.load, boards.save)
	c := NewClient(h, nil, Identity{UserID: "user_a", CanEdit: true}, "board_missing", "c1")

	h.addClient(c)
	expectType(t, c, TypeError)
	if _, ok := <-c.send; ok {
		t.Fatal("send channel still open")
	}
	if h.RoomCount() != 0 {
		t.Fatalf("RoomCount = %d, want 0", h.RoomCount())
	}
	c.Send(errorMessage("late"))
}

func TestPublishResetsRoom(t *testing.T) {
	boards := newMemBoards()
	h := NewHub(boards.load, boards.save)
	a := testClient(h, "c1", "user_a", true)
	join(t, h, a)

	h.Publish("board_1", []document.Element{{ID: 9, Kind: document.KindText, X2: 10, Y2: 24, Text: "hi", FontSize: 24}})
	var got SyncPayload
	json.Unmarshal(expectType(t, a, TypeBoardUpdate).Payload, &got)
	if len(got.Elements) != 1 || got.Elements[0].ID != 9 {
		t.Fatalf("published = %+v", got)
	}
	if h.FlushDirty(context.Background()) != 0 {
		t.Fatal("published content marked dirty")
	}

	h.Publish("board_other", nil)
}

func TestStopFlushes(t *testing.T) {
	boards := newMemBoards()
	h := NewHub(boards.load, boards.save)
	if err := h.StartFlusher("@every 1h"); err != nil {
		t.Fatalf("StartFlusher: %v", err)
	}
	go h.Run()

	a := testClient(h, "c1", "user_a", true)
	h.Register(a)
	expectType(t, a, TypeWelcome)
	h.handleMessage(a, updateMessage())

	h.Stop()
	h.Stop()
	if _, saves := boards.snapshot("board_1"); saves != 1 {
		t.Fatalf("saves = %d, want 1", saves)
	}

	late := testClient(h, "c2", "user_b", true)
	h.Register(late)
	if _, ok := <-late.send; ok {
		t.Fatal("client registered after stop is still open")
	}
}

func TestStartFlusherRejectsBadSpec(t *testing.T) {
	h := NewHub(newMemBoards().load, newMemBoards().save)
	if err := h.StartFlusher("every now and then"); err == nil {
		t.Fatal("StartFlusher accepted an invalid schedule")
	}
}
