// Package migrations embeds the goose SQL migrations and applies them. The
// statements are written in the common subset of PostgreSQL and SQLite.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

//go:embed *.sql
var Migrations embed.FS

// Up applies all pending migrations. Dialect is "postgres" or "sqlite3".
// It uses a goose.Provider rather than goose's package-level state, so
// several databases may be migrated concurrently.
func Up(ctx context.Context, db *sql.DB, dialect database.Dialect) (int, error) {
	p, err := goose.NewProvider(dialect, db, fs.FS(Migrations))
	if err != nil {
		return 0, fmt.Errorf("goose provider: %w", err)
	}

	results, err := p.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("migrate up: %w", err)
	}
	return len(results), nil
}
