// Package storetest opens migrated in-memory SQLite databases for tests.
package storetest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/authservice/internal/server/migrations"
	"github.com/pressly/goose/v3/database"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var nameReplacer = strings.NewReplacer("/", "_", " ", "_", "#", "_")

// OpenSQLite returns a fresh, fully migrated database private to t.
// A single connection is used so statements never contend for table locks.
func OpenSQLite(t testing.TB) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", nameReplacer.Replace(t.Name()))
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = migrations.Up(context.Background(), db, database.DialectSQLite3)
	require.NoError(t, err)

	return db
}
