package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vietddude/draftsync/internal/infra/storage"
)

// Backend implements storage.Backend on the kv_entries table.
type Backend struct {
	db *DB
}

// NewBackend creates a PostgreSQL-backed key-value backend.
func NewBackend(db *DB) *Backend {
	return &Backend{db: db}
}

// Namespace returns a Store bound to name.
func (b *Backend) Namespace(name string) storage.Store {
	return &Store{db: b.db, namespace: name}
}

// Close closes the database connection.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Health pings the database.
func (b *Backend) Health(ctx context.Context) error {
	return b.db.Health(ctx)
}

// Store is one namespace of kv_entries.
type Store struct {
	db        *DB
	namespace string
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `
		SELECT value
		FROM kv_entries
		WHERE namespace = $1 AND key = $2
	`
	var value []byte
	err := s.db.GetContext(ctx, &value, query, s.namespace, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storage.Wrap("get "+key, err)
	}
	return value, true, nil
}

// Set upserts the value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_entries (namespace, key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (namespace, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, s.namespace, key, value); err != nil {
		return storage.Wrap("set "+key, err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_entries WHERE namespace = $1 AND key = $2`
	if _, err := s.db.ExecContext(ctx, query, s.namespace, key); err != nil {
		return storage.Wrap("delete "+key, err)
	}
	return nil
}

// Clear removes the whole namespace.
func (s *Store) Clear(ctx context.Context) error {
	query := `DELETE FROM kv_entries WHERE namespace = $1`
	if _, err := s.db.ExecContext(ctx, query, s.namespace); err != nil {
		return storage.Wrap("clear", err)
	}
	return nil
}
