package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUser(t *testing.T, s Store, id, email string) {
	t.Helper()
	if err := s.CreateUser(context.Background(), User{ID: id, Email: email, PasswordHash: "x", DisplayName: id}); err != nil {
		t.Fatalf("CreateUser(%s): %v", id, err)
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user_a", "a@example.com")

	err := s.CreateUser(ctx, User{ID: "user_b", Email: "a@example.com", PasswordHash: "x", DisplayName: "b"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate email: err = %v, want ErrDuplicate", err)
	}

	u, err := s.GetUserByEmail(ctx, "a@example.com")
	if err != nil || u.ID != "user_a" {
		t.Fatalf("GetUserByEmail = %+v, %v", u, err)
	}
	if _, err := s.GetUserByID(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUserByID(nobody): err = %v, want ErrNotFound", err)
	}
}

func TestBoardRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user_a", "a@example.com")

	b := document.NewEmptyBoard("board_1", "Plan", "first", "user_a", "a@example.com")
	if err := s.CreateBoard(ctx, b); err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	elements := []document.Element{
		{ID: 1, Kind: document.KindRectangle, X1: 0, Y1: 0, X2: 10, Y2: 10},
		{ID: 2, Kind: document.KindFreehand, X1: 0, Y1: 0, X2: 4, Y2: 3, Points: []document.Point{{X: 0, Y: 0}, {X: 4, Y: 3}}},
		{ID: 3, Kind: document.KindText, X1: 5, Y1: 5, X2: 50, Y2: 29, Text: "hello", FontSize: 24},
	}
	if err := s.SaveElements(ctx, "board_1", elements); err != nil {
		t.Fatalf("SaveElements: %v", err)
	}

	got, err := s.GetBoard(ctx, "board_1")
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if got.Name != "Plan" || got.OwnerID != "user_a" || len(got.Elements) != 3 {
		t.Fatalf("board = %+v", got)
	}
	if p := got.Elements[1]; p.Kind != document.KindFreehand || len(p.Points) != 2 {
		t.Fatalf("freehand element = %+v", p)
	}
	if txt := got.Elements[2]; txt.Text != "hello" || txt.FontSize != 24 {
		t.Fatalf("text element = %+v", txt)
	}

	if err := s.SaveElements(ctx, "board_missing", nil); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SaveElements on missing board: err = %v", err)
	}
}

func TestListBoards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user_a", "a@example.com")
	seedUser(t, s, "user_b", "b@example.com")

	older := document.NewEmptyBoard("board_old", "Old", "", "user_a", "a@example.com")
	older.UpdatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := document.NewEmptyBoard("board_new", "New", "", "user_a", "a@example.com")
	newer.UpdatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	shared := document.NewEmptyBoard("board_shared", "Shared", "", "user_b", "b@example.com")
	shared.Collaborators = []string{"user_a"}
	shared.UpdatedAt = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	private := document.NewEmptyBoard("board_private", "Private", "", "user_b", "b@example.com")

	for _, b := range []*document.Board{older, newer, shared, private} {
		if err := s.CreateBoard(ctx, b); err != nil {
			t.Fatalf("CreateBoard(%s): %v", b.ID, err)
		}
	}

	list, err := s.ListBoards(ctx, "user_a")
	if err != nil {
		t.Fatalf("ListBoards: %v", err)
	}
	ids := make([]string, len(list))
	for i, m := range list {
		ids[i] = m.ID
	}
	want := []string{"board_new", "board_old", "board_shared"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}

	if err := s.SaveElements(ctx, "board_old", []document.Element{{ID: 1, Kind: document.KindLine, X2: 5, Y2: 5}}); err != nil {
		t.Fatalf("SaveElements: %v", err)
	}
	list, _ = s.ListBoards(ctx, "user_a")
	if list[0].ID != "board_old" || list[0].ElementCount != 1 {
		t.Fatalf("after save, first = %+v", list[0])
	}
}

func TestUpdateBoardMeta(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedUser(t, s, "user_a", "a@example.com")
	if err := s.CreateBoard(ctx, document.NewEmptyBoard("board_1", "Before", "desc", "user_a", "a@example.com")); err != nil {
		t.Fatalf("CreateBoard: %v", err)
	}

	name := "After"
	public := true
	if err := s.UpdateBoardMeta(ctx, "board_1", MetaUpdate{Name: &name, IsPublic: &public}); err != nil {
		t.Fatalf("UpdateBoardMeta: %v", err)
	}
	b, err := s.GetBoard(ctx, "board_1")
	if err != nil {
		t.Fatalf("GetBoard: %v", err)
	}
	if b.Name != "After" || b.Description != "desc" || !b.IsPublic {
		t.Fatalf("board = %+v", b)
	}

	pub, err := s.ListPublicBoards(ctx)
	if err != nil || len(pub) != 1 {
		t.Fatalf("ListPublicBoards = %v, %v", pub, err)
	}

	if err := s.DeleteBoard(ctx, "board_1"); err != nil {
		t.Fatalf("DeleteBoard: %v", err)
	}
	if _, err := s.GetBoard(ctx, "board_1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetBoard after delete: err = %v", err)
	}
}
