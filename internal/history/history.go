// Package history persists conversation turns per session. The
// routing core treats this as opaque agent state; the runners own it.
package history

import (
	"context"
	"time"

	"mosaic/internal/db"
)

type Turn struct {
	ID          int64     `json:"id"`
	SessionID   string    `json:"session_id"`
	ModeID      string    `json:"mode_id"`
	Model       string    `json:"model"`
	UserMessage string    `json:"user_message"`
	Reply       string    `json:"reply"`
	CreatedAt   time.Time `json:"created_at"`
}

type Store struct {
	db *db.DB
}

func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

func (s *Store) EnsureSession(ctx context.Context, sessionID string) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO sessions (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, sessionID)
	return err
}

func (s *Store) SaveTurn(ctx context.Context, t Turn) error {
	_, err := s.db.Conn().ExecContext(ctx,
		`INSERT INTO turns (session_id, mode_id, model, user_message, reply) VALUES (?, ?, ?, ?, ?)`,
		t.SessionID, t.ModeID, t.Model, t.UserMessage, t.Reply)
	return err
}

func (s *Store) Turns(ctx context.Context, sessionID string) ([]Turn, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, session_id, mode_id, model, user_message, reply, created_at
		 FROM turns WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.ModeID, &t.Model, &t.UserMessage, &t.Reply, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// RecentTurns returns the last n turns of a session, oldest first.
func (s *Store) RecentTurns(ctx context.Context, sessionID string, n int) ([]Turn, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id, session_id, mode_id, model, user_message, reply, created_at
		 FROM turns WHERE session_id = ? ORDER BY id DESC LIMIT ?`, sessionID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.ID, &t.SessionID, &t.ModeID, &t.Model, &t.UserMessage, &t.Reply, &t.CreatedAt); err != nil {
			return nil, err
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.Conn().QueryContext(ctx,
		`SELECT id FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
