package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type Store struct {
	DB *sql.DB
}

// Block kinds persisted as block content discriminators.
const (
	BlockKindText         = "text"
	BlockKindLink         = "link"
	BlockKindFile         = "file"
	BlockKindConversation = "conversation"
)

// MinuteRecord is a collaborative document owned by a user.
type MinuteRecord struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BlockRecord is one attached unit of content inside a minute. Content
// is a kind-specific JSON document; conversation blocks carry the pairs
// and segments produced by ingestion.
type BlockRecord struct {
	ID        string
	MinuteID  string
	Kind      string
	Position  int
	Content   json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// EnsureUser returns the id for email, creating the row when absent.
// Used by the dev-user bootstrap; there is no password column because
// there is no password auth.
func (s *Store) EnsureUser(ctx context.Context, email string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO users (email) VALUES ($1)
ON CONFLICT (email) DO UPDATE SET email=EXCLUDED.email
RETURNING id
`, email).Scan(&id)
	return id, err
}

// Minute operations

func (s *Store) CreateMinute(ctx context.Context, userID, title string) (MinuteRecord, error) {
	var rec MinuteRecord
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO minutes (user_id, title) VALUES ($1,$2)
RETURNING id, user_id, title, created_at, updated_at
`, userID, title).Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func (s *Store) GetMinute(ctx context.Context, id, userID string) (MinuteRecord, bool, error) {
	var rec MinuteRecord
	err := s.DB.QueryRowContext(ctx, `
SELECT id, user_id, title, created_at, updated_at
FROM minutes
WHERE id=$1 AND user_id=$2
`, id, userID).Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return MinuteRecord{}, false, nil
	}
	if err != nil {
		return MinuteRecord{}, false, err
	}
	return rec, true, nil
}

func (s *Store) ListMinutes(ctx context.Context, userID string) ([]MinuteRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, user_id, title, created_at, updated_at
FROM minutes
WHERE user_id=$1
ORDER BY updated_at DESC
`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []MinuteRecord
	for rows.Next() {
		var rec MinuteRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMinuteTitle(ctx context.Context, id, userID, title string) error {
	res, err := s.DB.ExecContext(ctx, `
UPDATE minutes SET title=$3, updated_at=NOW()
WHERE id=$1 AND user_id=$2
`, id, userID, title)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteMinute(ctx context.Context, id, userID string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM minutes WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Block operations

func (s *Store) CreateBlock(ctx context.Context, minuteID, kind string, content json.RawMessage) (BlockRecord, error) {
	var rec BlockRecord
	err := s.DB.QueryRowContext(ctx, `
INSERT INTO blocks (minute_id, kind, position, content)
VALUES ($1, $2, (SELECT COALESCE(MAX(position),-1)+1 FROM blocks WHERE minute_id=$1), $3)
RETURNING id, minute_id, kind, position, content, created_at, updated_at
`, minuteID, kind, content).Scan(&rec.ID, &rec.MinuteID, &rec.Kind, &rec.Position, &rec.Content, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func (s *Store) GetBlock(ctx context.Context, id string) (BlockRecord, bool, error) {
	var rec BlockRecord
	err := s.DB.QueryRowContext(ctx, `
SELECT id, minute_id, kind, position, content, created_at, updated_at
FROM blocks
WHERE id=$1
`, id).Scan(&rec.ID, &rec.MinuteID, &rec.Kind, &rec.Position, &rec.Content, &rec.CreatedAt, &rec.UpdatedAt)
	if err == sql.ErrNoRows {
		return BlockRecord{}, false, nil
	}
	if err != nil {
		return BlockRecord{}, false, err
	}
	return rec, true, nil
}

func (s *Store) ListBlocks(ctx context.Context, minuteID string) ([]BlockRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, minute_id, kind, position, content, created_at, updated_at
FROM blocks
WHERE minute_id=$1
ORDER BY position ASC
`, minuteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BlockRecord
	for rows.Next() {
		var rec BlockRecord
		if err := rows.Scan(&rec.ID, &rec.MinuteID, &rec.Kind, &rec.Position, &rec.Content, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpdateBlockContent replaces a block's content document. Used when a
// reviewer edits a conversation draft (recategorized or retitled flows).
func (s *Store) UpdateBlockContent(ctx context.Context, id string, content json.RawMessage) error {
	res, err := s.DB.ExecContext(ctx, `
UPDATE blocks SET content=$2, updated_at=NOW()
WHERE id=$1
`, id, content)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteBlock(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM blocks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ListConversationBlocks returns every conversation block across all
// minutes. Feeds the search index rebuild.
func (s *Store) ListConversationBlocks(ctx context.Context) ([]BlockRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, minute_id, kind, position, content, created_at, updated_at
FROM blocks
WHERE kind=$1
ORDER BY created_at ASC
`, BlockKindConversation)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BlockRecord
	for rows.Next() {
		var rec BlockRecord
		if err := rows.Scan(&rec.ID, &rec.MinuteID, &rec.Kind, &rec.Position, &rec.Content, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no matching row")
	}
	return nil
}
