// Package postgres stores cart state in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"

	"cartflow/pkg/cart"
)

// Schema creates the table used by Storage.
const Schema = `CREATE TABLE IF NOT EXISTS cart_state (
	key TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

var _ cart.Storage = (*Storage)(nil)

// Storage persists cart state as one row per client key.
type Storage struct {
	db *sql.DB
}

// New creates a PostgreSQL storage. The caller must ensure Schema exists.
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Load returns the state stored under key.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM cart_state WHERE key=$1", key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cart.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(payload), nil
}

// Save upserts the state under key.
func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO cart_state (key,payload,updated_at) VALUES ($1,$2,now()) "+
			"ON CONFLICT (key) DO UPDATE SET payload=EXCLUDED.payload, updated_at=now()",
		key, string(data))
	return err
}
