// Package migrations embeds the goose migrations for the SQL-backed stores.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

// Up applies every migration for dialect ("postgres" or "sqlite3") found under dir.
func Up(db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", dialect, err)
	}
	return nil
}
