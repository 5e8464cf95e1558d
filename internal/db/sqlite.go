package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		display_name TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS boards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		thumbnail TEXT NOT NULL DEFAULT '',
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		owner_email TEXT NOT NULL,
		collaborators TEXT NOT NULL DEFAULT '[]',
		is_public INTEGER NOT NULL DEFAULT 0,
		elements TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_owner ON boards(owner_id, updated_at)`,
}

// SQLiteStore implements Store on an embedded SQLite file.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the database file at path and migrates
// it.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)

	for _, m := range sqliteMigrations {
		if _, err := conn.Exec(m); err != nil {
			conn.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &SQLiteStore{conn: conn}, nil
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password, display_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, u.CreatedAt,
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE id = ?`, id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE email = ?`, email)
}

func (s *SQLiteStore) getUser(ctx context.Context, query, arg string) (*User, error) {
	var u User
	err := s.conn.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) CreateBoard(ctx context.Context, b *document.Board) error {
	elements, err := encodeElements(b.Elements)
	if err != nil {
		return err
	}
	collaborators, err := encodeIDs(b.Collaborators)
	if err != nil {
		return err
	}
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO boards (id, name, description, thumbnail, owner_id, owner_email, collaborators, is_public, elements, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.Description, b.Thumbnail, b.OwnerID, b.OwnerEmail, string(collaborators), b.IsPublic, string(elements), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert board: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetBoard(ctx context.Context, id string) (*document.Board, error) {
	var (
		b             document.Board
		elements      string
		collaborators string
	)
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, name, description, thumbnail, owner_id, owner_email, collaborators, is_public, elements, created_at, updated_at
		 FROM boards WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Description, &b.Thumbnail, &b.OwnerID, &b.OwnerEmail, &collaborators, &b.IsPublic, &elements, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get board: %w", err)
	}
	if b.Elements, err = decodeElements([]byte(elements)); err != nil {
		return nil, err
	}
	if b.Collaborators, err = decodeIDs([]byte(collaborators)); err != nil {
		return nil, err
	}
	return &b, nil
}

const sqliteMetaColumns = `id, name, description, thumbnail, owner_id, owner_email, is_public, created_at, updated_at, json_array_length(elements)`

func (s *SQLiteStore) ListBoards(ctx context.Context, userID string) ([]document.BoardMetadata, error) {
	return s.listMetadata(ctx,
		`SELECT `+sqliteMetaColumns+` FROM boards
		 WHERE owner_id = ? OR EXISTS (SELECT 1 FROM json_each(boards.collaborators) WHERE json_each.value = ?)
		 ORDER BY updated_at DESC`, userID, userID)
}

func (s *SQLiteStore) ListPublicBoards(ctx context.Context) ([]document.BoardMetadata, error) {
	return s.listMetadata(ctx, `SELECT `+sqliteMetaColumns+` FROM boards WHERE is_public = 1 ORDER BY updated_at DESC`)
}

func (s *SQLiteStore) listMetadata(ctx context.Context, query string, args ...any) ([]document.BoardMetadata, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	defer rows.Close()

	boards := []document.BoardMetadata{}
	for rows.Next() {
		var m document.BoardMetadata
		if err := rows.Scan(&m.ID, &m.Name, &m.Description, &m.Thumbnail, &m.OwnerID, &m.OwnerEmail, &m.IsPublic, &m.CreatedAt, &m.UpdatedAt, &m.ElementCount); err != nil {
			return nil, fmt.Errorf("scan board: %w", err)
		}
		boards = append(boards, m)
	}
	return boards, rows.Err()
}

func (s *SQLiteStore) SaveElements(ctx context.Context, boardID string, elements []document.Element) error {
	data, err := encodeElements(elements)
	if err != nil {
		return err
	}
	return s.execOne(ctx, "save elements",
		`UPDATE boards SET elements = ?, updated_at = ? WHERE id = ?`, string(data), time.Now().UTC(), boardID)
}

func (s *SQLiteStore) UpdateBoardMeta(ctx context.Context, boardID string, m MetaUpdate) error {
	return s.execOne(ctx, "update board",
		`UPDATE boards SET
			name = COALESCE(?, name),
			description = COALESCE(?, description),
			thumbnail = COALESCE(?, thumbnail),
			is_public = COALESCE(?, is_public),
			updated_at = ?
		 WHERE id = ?`,
		m.Name, m.Description, m.Thumbnail, m.IsPublic, time.Now().UTC(), boardID)
}

func (s *SQLiteStore) SetCollaborators(ctx context.Context, boardID string, userIDs []string) error {
	data, err := encodeIDs(userIDs)
	if err != nil {
		return err
	}
	return s.execOne(ctx, "set collaborators",
		`UPDATE boards SET collaborators = ?, updated_at = ? WHERE id = ?`, string(data), time.Now().UTC(), boardID)
}

func (s *SQLiteStore) DeleteBoard(ctx context.Context, boardID string) error {
	return s.execOne(ctx, "delete board", `DELETE FROM boards WHERE id = ?`, boardID)
}

// execOne runs a statement that must touch exactly one row.
func (s *SQLiteStore) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isSQLiteUnique(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
