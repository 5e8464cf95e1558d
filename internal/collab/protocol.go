package collab

import (
	"encoding/json"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

type Message struct {
	Type     string          `json:"type"`
	BoardID  string          `json:"boardId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

const (
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Board sync
	TypeBoardSync   = "board.sync"
	TypeBoardUpdate = "board.update"
	TypeBoardAck    = "board.ack"

	// Presence
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
)

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	CanEdit  bool   `json:"canEdit"`
}

// SyncPayload carries the full element list of a board with the room's
// sequence number. It is used for board.sync and outgoing board.update.
type SyncPayload struct {
	Elements []document.Element `json:"elements"`
	Seq      int64              `json:"seq"`
}

// UpdatePayload is what a client sends to replace the board content.
type UpdatePayload struct {
	Elements []document.Element `json:"elements"`
}

type AckPayload struct {
	Seq int64 `json:"seq"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	SelectedID  int64      `json:"selectedId,omitempty"`
	Tool        string     `json:"tool,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

func newMessage(msgType string, payload any) *Message {
	data, _ := json.Marshal(payload)
	return &Message{Type: msgType, Payload: data}
}

func errorMessage(text string) *Message {
	return newMessage(TypeError, ErrorPayload{Message: text})
}
