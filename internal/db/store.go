// Package db persists users and boards. Two drivers implement Store:
// Postgres through pgx and an embedded SQLite file through modernc.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// MetaUpdate changes board metadata. Nil fields are left as they are.
type MetaUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
}

type Store interface {
	CreateUser(ctx context.Context, u User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	CreateBoard(ctx context.Context, b *document.Board) error
	GetBoard(ctx context.Context, id string) (*document.Board, error)
	// ListBoards returns the boards a user owns or collaborates on, most
	// recently updated first.
	ListBoards(ctx context.Context, userID string) ([]document.BoardMetadata, error)
	ListPublicBoards(ctx context.Context) ([]document.BoardMetadata, error)
	SaveElements(ctx context.Context, boardID string, elements []document.Element) error
	UpdateBoardMeta(ctx context.Context, boardID string, m MetaUpdate) error
	SetCollaborators(ctx context.Context, boardID string, userIDs []string) error
	DeleteBoard(ctx context.Context, boardID string) error

	Close() error
}

func encodeElements(elements []document.Element) ([]byte, error) {
	if elements == nil {
		elements = []document.Element{}
	}
	data, err := json.Marshal(elements)
	if err != nil {
		return nil, fmt.Errorf("encode elements: %w", err)
	}
	return data, nil
}

func decodeElements(data []byte) ([]document.Element, error) {
	elements := []document.Element{}
	if len(data) == 0 {
		return elements, nil
	}
	if err := json.Unmarshal(data, &elements); err != nil {
		return nil, fmt.Errorf("decode elements: %w", err)
	}
	return elements, nil
}

func encodeIDs(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

func decodeIDs(data []byte) ([]string, error) {
	ids := []string{}
	if len(data) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode collaborators: %w", err)
	}
	return ids, nil
}
