// Package collab keeps the live copy of each open board and fans updates out
// to every editor connected over a websocket.
package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

const ioTimeout = 10 * time.Second

// Loader fetches the persisted elements of a board when its room opens.
type Loader func(ctx context.Context, boardID string) ([]document.Element, error)

// Saver persists the elements of a room with unsaved updates.
type Saver func(ctx context.Context, boardID string, elements []document.Element) error

// Identity is the authenticated party behind a connection.
type Identity struct {
	UserID      string
	DisplayName string
	CanEdit     bool
}

type Room struct {
	boardID  string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	state    *BoardState
}

func NewRoom(boardID string, elements []document.Element) *Room {
	return &Room{
		boardID:  boardID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		state:    NewBoardState(elements),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // boardID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once

	load  Loader
	save  Saver
	flush *cron.Cron
}

func NewHub(load Loader, save Saver) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		load:       load,
		save:       save,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case <-h.done:
		client.close()
		return
	default:
	}
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// StartFlusher saves dirty rooms on the given cron schedule.
func (h *Hub) StartFlusher(spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		if n := h.FlushDirty(context.Background()); n > 0 {
			slog.Debug("flushed boards", "count", n)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule flush %q: %w", spec, err)
	}
	c.Start()
	h.flush = c
	return nil
}

// Stop halts the hub and saves every room with unsaved updates.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		if h.flush != nil {
			<-h.flush.Stop().Done()
		}
		close(h.done)

		ctx, cancel := context.WithTimeout(context.Background(), 3*ioTimeout)
		defer cancel()
		n := h.FlushDirty(ctx)
		slog.Info("hub stopped", "flushed", n)
	})
}

// FlushDirty saves every room with unsaved updates and returns how many
// boards were written.
func (h *Hub) FlushDirty(ctx context.Context) int {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		if room.state.Dirty() {
			rooms = append(rooms, room)
		}
	}
	h.mu.RUnlock()

	saved := 0
	for _, room := range rooms {
		if h.flushRoom(ctx, room) {
			saved++
		}
	}
	return saved
}

func (h *Hub) flushRoom(ctx context.Context, room *Room) bool {
	elements, seq := room.state.Snapshot()
	if err := h.save(ctx, room.boardID, elements); err != nil {
		slog.Error("save board", "board", room.boardID, "error", err)
		return false
	}
	room.state.MarkSaved(seq)
	slog.Info("board saved", "board", room.boardID, "elements", len(elements), "seq", seq)
	return true
}

// Publish pushes content saved outside the hub to an open room.
func (h *Hub) Publish(boardID string, elements []document.Element) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[boardID]
	if !ok {
		return
	}
	seq := room.state.Reset(elements)
	msg := newMessage(TypeBoardUpdate, SyncPayload{Elements: elements, Seq: seq})
	for _, c := range room.clients {
		c.Send(msg)
	}
}

// RoomCount returns the number of open rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) addClient(client *Client) {
	h.mu.RLock()
	room, ok := h.rooms[client.BoardID]
	h.mu.RUnlock()

	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		elements, err := h.load(ctx, client.BoardID)
		cancel()
		if err != nil {
			slog.Error("load board", "board", client.BoardID, "error", err)
			client.Send(errorMessage("board unavailable"))
			client.close()
			return
		}
		room = NewRoom(client.BoardID, elements)
	}

	h.mu.Lock()
	h.rooms[client.BoardID] = room
	room.clients[client.ClientID] = client
	h.mu.Unlock()

	client.Send(newMessage(TypeWelcome, WelcomePayload{ClientID: client.ClientID, CanEdit: client.CanEdit}))
	elements, seq := room.state.Snapshot()
	client.Send(newMessage(TypeBoardSync, SyncPayload{Elements: elements, Seq: seq}))
	if stateMsg := room.presence.StateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}

	joinMsg := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	h.broadcastToRoom(client.BoardID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.BoardID]
	if !ok || room.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.UserID)

	empty := len(room.clients) == 0
	if empty {
		delete(h.rooms, client.BoardID)
	}
	h.mu.Unlock()

	if empty {
		if room.state.Dirty() {
			ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
			h.flushRoom(ctx, room)
			cancel()
		}
	} else {
		leaveMsg := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
		leaveMsg.UserID = client.UserID
		h.broadcastToRoom(client.BoardID, leaveMsg, "")
	}

	slog.Info("client left", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypeBoardUpdate:
		h.handleBoardUpdate(sender, msg)
	case TypeBoardSync:
		h.handleSyncRequest(sender)
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.Send(errorMessage("unknown message type " + msg.Type))
	}
}

func (h *Hub) room(boardID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[boardID]
	return room, ok
}

func (h *Hub) handleBoardUpdate(sender *Client, msg *Message) {
	if !sender.CanEdit {
		sender.Send(errorMessage("board is read-only"))
		return
	}

	var update UpdatePayload
	if err := json.Unmarshal(msg.Payload, &update); err != nil {
		slog.Warn("invalid board update", "error", err, "user", sender.UserID)
		sender.Send(errorMessage("invalid board update"))
		return
	}

	room, ok := h.room(sender.BoardID)
	if !ok {
		return
	}

	stored, seq, err := room.state.Replace(update.Elements)
	if err != nil {
		slog.Warn("rejected board update", "error", err, "user", sender.UserID, "board", sender.BoardID)
		sender.Send(errorMessage(err.Error()))
		return
	}

	sender.Send(newMessage(TypeBoardAck, AckPayload{Seq: seq}))

	out := newMessage(TypeBoardUpdate, SyncPayload{Elements: stored, Seq: seq})
	out.UserID = sender.UserID
	h.broadcastToRoom(sender.BoardID, out, sender.ClientID)
}

func (h *Hub) handleSyncRequest(sender *Client) {
	room, ok := h.room(sender.BoardID)
	if !ok {
		return
	}
	elements, seq := room.state.Snapshot()
	sender.Send(newMessage(TypeBoardSync, SyncPayload{Elements: elements, Seq: seq}))
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.room(sender.BoardID)
	if !ok {
		return
	}

	room.presence.Update(sender.UserID, &presence)

	outMsg := newMessage(TypePresenceUpdate, presence)
	outMsg.UserID = sender.UserID
	h.broadcastToRoom(sender.BoardID, outMsg, sender.ClientID)
}

// broadcastToRoom sends under the read lock so no client is closed mid-send.
func (h *Hub) broadcastToRoom(boardID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[boardID]
	if !ok {
		return
	}
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}
