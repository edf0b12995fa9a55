// Package sqlite is the on-device durable store: a single SQLite file holding every namespace.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vietddude/draftsync/internal/infra/storage"
	"github.com/vietddude/draftsync/internal/infra/storage/migrations"
)

const busyRetries = 3

// Backend implements storage.Backend on a SQLite file.
type Backend struct {
	db *sqlx.DB
}

// Open creates (if needed) and migrates the database at path. ":memory:" is accepted for tests.
func Open(path string) (*Backend, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if path != ":memory:" {
		// Drafts can hold unsent user input; keep the file private.
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Wait instead of immediately returning SQLITE_BUSY
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := migrations.Up(db.DB, "sqlite3", "sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Backend{db: db}, nil
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
	return b.db.PingContext(ctx)
}

// Store is one namespace of kv_entries.
type Store struct {
	db        *sqlx.DB
	namespace string
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.GetContext(ctx, &value,
		`SELECT value FROM kv_entries WHERE namespace = ? AND key = ?`, s.namespace, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, storage.Wrap("get "+key, err)
	}
	return value, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.exec(ctx, "set "+key, `
		INSERT INTO kv_entries (namespace, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, s.namespace, key, value)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.exec(ctx, "delete "+key,
		`DELETE FROM kv_entries WHERE namespace = ? AND key = ?`, s.namespace, key)
}

func (s *Store) Clear(ctx context.Context) error {
	return s.exec(ctx, "clear", `DELETE FROM kv_entries WHERE namespace = ?`, s.namespace)
}

// exec retries writes that lose the race for the single SQLite writer lock.
func (s *Store) exec(ctx context.Context, op, query string, args ...any) error {
	var err error
	for attempt := 0; attempt < busyRetries; attempt++ {
		if _, err = s.db.ExecContext(ctx, query, args...); err == nil || !isBusyError(err) {
			break
		}
		select {
		case <-ctx.Done():
			return storage.Wrap(op, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	return storage.Wrap(op, err)
}

func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}
