package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sketchboard/sketchboard/backend-go/internal/document"
)

// NewPool connects to Postgres and verifies the connection.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		display_name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS boards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		thumbnail TEXT NOT NULL DEFAULT '',
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		owner_email TEXT NOT NULL,
		collaborators JSONB NOT NULL DEFAULT '[]',
		is_public BOOLEAN NOT NULL DEFAULT false,
		elements JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_boards_owner ON boards(owner_id, updated_at DESC)`,
}

// PostgresStore implements Store on a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore runs the migrations and wraps the pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	for _, m := range postgresMigrations {
		if _, err := pool.Exec(ctx, m); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, u User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password, display_name) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	return s.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) getUser(ctx context.Context, query, arg string) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) CreateBoard(ctx context.Context, b *document.Board) error {
	elements, err := encodeElements(b.Elements)
	if err != nil {
		return err
	}
	collaborators, err := encodeIDs(b.Collaborators)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO boards (id, name, description, thumbnail, owner_id, owner_email, collaborators, is_public, elements, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.Name, b.Description, b.Thumbnail, b.OwnerID, b.OwnerEmail, collaborators, b.IsPublic, elements, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert board: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBoard(ctx context.Context, id string) (*document.Board, error) {
	var (
		b             document.Board
		elements      []byte
		collaborators []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, thumbnail, owner_id, owner_email, collaborators, is_public, elements, created_at, updated_at
		 FROM boards WHERE id = $1`, id,
	).Scan(&b.ID, &b.Name, &b.Description, &b.Thumbnail, &b.OwnerID, &b.OwnerEmail, &collaborators, &b.IsPublic, &elements, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get board: %w", err)
	}
	if b.Elements, err = decodeElements(elements); err != nil {
		return nil, err
	}
	if b.Collaborators, err = decodeIDs(collaborators); err != nil {
		return nil, err
	}
	return &b, nil
}

const postgresMetaColumns = `id, name, description, thumbnail, owner_id, owner_email, is_public, created_at, updated_at, jsonb_array_length(elements)`

func (s *PostgresStore) ListBoards(ctx context.Context, userID string) ([]document.BoardMetadata, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postgresMetaColumns+` FROM boards
		 WHERE owner_id = $1 OR collaborators ? $1
		 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return collectMetadata(rows)
}

func (s *PostgresStore) ListPublicBoards(ctx context.Context) ([]document.BoardMetadata, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postgresMetaColumns+` FROM boards WHERE is_public ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list public boards: %w", err)
	}
	return collectMetadata(rows)
}

func collectMetadata(rows pgx.Rows) ([]document.BoardMetadata, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (document.BoardMetadata, error) {
		var m document.BoardMetadata
		err := row.Scan(&m.ID, &m.Name, &m.Description, &m.Thumbnail, &m.OwnerID, &m.OwnerEmail, &m.IsPublic, &m.CreatedAt, &m.UpdatedAt, &m.ElementCount)
		return m, err
	})
}

func (s *PostgresStore) SaveElements(ctx context.Context, boardID string, elements []document.Element) error {
	data, err := encodeElements(elements)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE boards SET elements = $2, updated_at = now() WHERE id = $1`, boardID, data)
	if err != nil {
		return fmt.Errorf("save elements: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateBoardMeta(ctx context.Context, boardID string, m MetaUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE boards SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			thumbnail = COALESCE($4, thumbnail),
			is_public = COALESCE($5, is_public),
			updated_at = now()
		 WHERE id = $1`,
		boardID, m.Name, m.Description, m.Thumbnail, m.IsPublic,
	)
	if err != nil {
		return fmt.Errorf("update board: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetCollaborators(ctx context.Context, boardID string, userIDs []string) error {
	data, err := encodeIDs(userIDs)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `UPDATE boards SET collaborators = $2, updated_at = now() WHERE id = $1`, boardID, data)
	if err != nil {
		return fmt.Errorf("set collaborators: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteBoard(ctx context.Context, boardID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, boardID)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
