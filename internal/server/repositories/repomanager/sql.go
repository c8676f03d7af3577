package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authservice/internal/dbx"
	"github.com/dmitrijs2005/authservice/internal/logging"
	"github.com/dmitrijs2005/authservice/internal/server/migrations"
	"github.com/dmitrijs2005/authservice/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/authservice/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3/database"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"
)

// Driver names as registered with database/sql.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// migrateUp is a seam for tests.
var migrateUp = migrations.Up

// SQLRepositoryManager vends the SQL repositories, optionally fronting the
// refresh token store with a Redis cache.
type SQLRepositoryManager struct {
	dialect  database.Dialect
	rdb      redis.Cmdable
	cacheTTL time.Duration
	logger   logging.Logger
}

// Option configures an SQLRepositoryManager.
type Option func(*SQLRepositoryManager)

// WithRedisCache enables the refresh token cache.
func WithRedisCache(rdb redis.Cmdable, ttl time.Duration) Option {
	return func(m *SQLRepositoryManager) {
		m.rdb = rdb
		m.cacheTTL = ttl
	}
}

func WithLogger(l logging.Logger) Option {
	return func(m *SQLRepositoryManager) { m.logger = l }
}

// NewSQLRepositoryManager returns a manager for driver ("pgx" or "sqlite").
func NewSQLRepositoryManager(driver string, opts ...Option) (*SQLRepositoryManager, error) {
	dialect, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}

	m := &SQLRepositoryManager{dialect: dialect, logger: logging.Nop{}}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func dialectFor(driver string) (database.Dialect, error) {
	switch driver {
	case DriverPostgres:
		return database.DialectPostgres, nil
	case DriverSQLite:
		return database.DialectSQLite3, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open opens and pings a database for driver.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if _, err := dialectFor(driver); err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

func (m *SQLRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	repo := refreshtokens.NewSQLRepository(db)
	if m.rdb == nil {
		return repo
	}
	return refreshtokens.NewCachedRepository(repo, m.rdb, m.cacheTTL, m.logger)
}

// RunMigrations applies the embedded goose migrations in the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	n, err := migrateUp(ctx, db, m.dialect)
	if err != nil {
		return err
	}
	m.logger.Info(ctx, "database migrated", "applied", n, "dialect", string(m.dialect))
	return nil
}
