// Package board implements the dashboard operations on boards: creation,
// listing, access control, element saves and sharing.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/sketchboard/sketchboard/backend-go/internal/db"
	"github.com/sketchboard/sketchboard/backend-go/internal/document"
	"github.com/sketchboard/sketchboard/backend-go/internal/geometry"
	"github.com/sketchboard/sketchboard/backend-go/internal/typeid"
)

var (
	ErrNotFound     = errors.New("board not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid board content")
	ErrUserNotFound = errors.New("user not found")
)

// Publisher receives element lists saved outside a live session so open
// editors can pick them up.
type Publisher interface {
	Publish(boardID string, elements []document.Element)
}

// Cleaner drops derived files of a deleted board, such as its thumbnail.
type Cleaner interface {
	Remove(boardID string) error
}

type Service struct {
	store     db.Store
	publisher Publisher
	cleaner   Cleaner
}

func NewService(store db.Store) *Service {
	return &Service{store: store}
}

// SetPublisher wires the live collaboration hub in.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

func (s *Service) SetCleaner(c Cleaner) {
	s.cleaner = c
}

// CreateInput is the request for a new board. Sample seeds it with one
// element of every kind.
type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Sample      bool   `json:"sample"`
}

func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*document.Board, error) {
	owner, err := s.store.GetUserByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get owner: %w", err)
	}

	var b *document.Board
	if in.Sample {
		b = document.NewSampleBoard(owner.ID, owner.Email)
		b.Name = in.Name
		b.Description = in.Description
	} else {
		b = document.NewEmptyBoard(typeid.NewBoardID(), in.Name, in.Description, owner.ID, owner.Email)
	}

	if err := s.store.CreateBoard(ctx, b); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	slog.Info("board created", "board", b.ID, "owner", owner.ID)
	return b, nil
}

// Get returns a board the user may read: owned, shared with them, or public.
func (s *Service) Get(ctx context.Context, boardID, userID string) (*document.Board, error) {
	b, err := s.load(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !CanRead(b, userID) {
		return nil, ErrForbidden
	}
	return b, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]document.BoardMetadata, error) {
	boards, err := s.store.ListBoards(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

func (s *Service) ListPublic(ctx context.Context) ([]document.BoardMetadata, error) {
	boards, err := s.store.ListPublicBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("list public boards: %w", err)
	}
	return boards, nil
}

// UpdateElements replaces the element list of a board the user can edit.
// The list is validated and stored in canonical form.
func (s *Service) UpdateElements(ctx context.Context, boardID, userID string, elements []document.Element) ([]document.Element, error) {
	b, err := s.load(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !CanEdit(b, userID) {
		return nil, ErrForbidden
	}

	stored, err := s.SaveElements(ctx, boardID, elements)
	if err != nil {
		return nil, err
	}
	if s.publisher != nil {
		s.publisher.Publish(boardID, stored)
	}
	return stored, nil
}

// SaveElements validates and stores an element list without an access
// check. The collaboration hub calls it when flushing rooms.
func (s *Service) SaveElements(ctx context.Context, boardID string, elements []document.Element) ([]document.Element, error) {
	stored, err := geometry.Canonicalize(elements)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := s.store.SaveElements(ctx, boardID, stored); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("save elements: %w", err)
	}
	return stored, nil
}

// LoadElements returns the stored elements of a board without an access
// check.
func (s *Service) LoadElements(ctx context.Context, boardID string) ([]document.Element, error) {
	b, err := s.load(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return b.Elements, nil
}

// UpdateMeta changes board metadata. Editors may rename, describe and set the
// thumbnail; only the owner may change visibility.
func (s *Service) UpdateMeta(ctx context.Context, boardID, userID string, m db.MetaUpdate) (*document.Board, error) {
	b, err := s.load(ctx, boardID)
	if err != nil {
		return nil, err
	}
	if !CanEdit(b, userID) || (m.IsPublic != nil && b.OwnerID != userID) {
		return nil, ErrForbidden
	}
	if m.Name != nil && strings.TrimSpace(*m.Name) == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalid)
	}

	if err := s.store.UpdateBoardMeta(ctx, boardID, m); err != nil {
		return nil, fmt.Errorf("update board: %w", err)
	}
	return s.load(ctx, boardID)
}

func (s *Service) Delete(ctx context.Context, boardID, userID string) error {
	b, err := s.load(ctx, boardID)
	if err != nil {
		return err
	}
	if b.OwnerID != userID {
		return ErrForbidden
	}
	if err := s.store.DeleteBoard(ctx, boardID); err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if s.cleaner != nil {
		if err := s.cleaner.Remove(boardID); err != nil {
			slog.Warn("remove board files", "board", boardID, "error", err)
		}
	}
	slog.Info("board deleted", "board", boardID)
	return nil
}

// InviteByEmail shares a board with a registered user. Only the owner may
// invite; inviting an existing collaborator is a no-op.
func (s *Service) InviteByEmail(ctx context.Context, boardID, ownerID, email string) error {
	b, err := s.load(ctx, boardID)
	if err != nil {
		return err
	}
	if b.OwnerID != ownerID {
		return ErrForbidden
	}

	invitee, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if invitee.ID == b.OwnerID || slices.Contains(b.Collaborators, invitee.ID) {
		return nil
	}

	return s.store.SetCollaborators(ctx, boardID, append(slices.Clone(b.Collaborators), invitee.ID))
}

func (s *Service) RemoveCollaborator(ctx context.Context, boardID, ownerID, userID string) error {
	b, err := s.load(ctx, boardID)
	if err != nil {
		return err
	}
	if b.OwnerID != ownerID {
		return ErrForbidden
	}
	collaborators := slices.DeleteFunc(slices.Clone(b.Collaborators), func(id string) bool { return id == userID })
	return s.store.SetCollaborators(ctx, boardID, collaborators)
}

func (s *Service) load(ctx context.Context, boardID string) (*document.Board, error) {
	b, err := s.store.GetBoard(ctx, boardID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

// CanRead reports whether userID may open b.
func CanRead(b *document.Board, userID string) bool {
	return b.IsPublic || CanEdit(b, userID)
}

// CanEdit reports whether userID may change b's content.
func CanEdit(b *document.Board, userID string) bool {
	return userID != "" && (b.OwnerID == userID || slices.Contains(b.Collaborators, userID))
}

