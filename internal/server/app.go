// Package server wires the authentication service together: storage,
// password hashing, token signing, the session service, the guard, and the
// HTTP and gRPC transports, and runs them until the context is cancelled.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/authservice/internal/logging"
	"github.com/dmitrijs2005/authservice/internal/server/auth"
	"github.com/dmitrijs2005/authservice/internal/server/config"
	"github.com/dmitrijs2005/authservice/internal/server/guard"
	"github.com/dmitrijs2005/authservice/internal/server/httpapi"
	"github.com/dmitrijs2005/authservice/internal/server/password"
	"github.com/dmitrijs2005/authservice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authservice/internal/server/services"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/authservice/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger

	db  *sql.DB
	rdb *redis.Client

	http *httpapi.Server
	grpc *gs.GRPCServer
}

// NewApp connects to the database (and Redis when configured), applies
// migrations and builds both transports. Logs go to w.
func NewApp(ctx context.Context, c *config.Config, w io.Writer) (*App, error) {
	logger := logging.New(w, c.LogLevel, c.LogFormat)
	app := &App{config: c, logger: logger}

	db, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	opts := []repomanager.Option{repomanager.WithLogger(logger)}
	if c.RedisAddr != "" {
		app.rdb = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := app.rdb.Ping(ctx).Err(); err != nil {
			app.Close()
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		opts = append(opts, repomanager.WithRedisCache(app.rdb, c.RedisCacheTTL))
	}

	m, err := repomanager.NewSQLRepositoryManager(c.DatabaseDriver, opts...)
	if err != nil {
		app.Close()
		return nil, err
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	pc := password.DefaultConfig()
	pc.Memory = c.Argon2Memory
	pc.Time = c.Argon2Time
	pc.Parallelism = c.Argon2Parallelism
	pc.MaxConcurrent = c.HashConcurrency
	hasher, err := password.NewArgon2(pc)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("password hasher: %w", err)
	}

	signer, err := auth.NewSigner(auth.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTokenValidityDuration,
		RefreshTTL:    c.RefreshTokenValidityDuration,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("token signer: %w", err)
	}

	sessions := services.NewSessionService(db, m, hasher, signer,
		services.WithRefreshRotation(c.RotateRefreshTokens),
		services.WithLogger(logger))
	g := guard.New(signer, m.RefreshTokens(db), logger)

	cookies := httpapi.NewCookies(c.CookieSecret, c.IsProduction(), c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	app.http = httpapi.NewServer(c.EndpointAddrHTTP, httpapi.NewHandler(sessions, g, cookies, logger).Routes(), logger)
	app.grpc = gs.NewGRPCServer(c.EndpointAddrGRPC, logger, sessions, g)

	return app, nil
}

// Run serves HTTP and gRPC until ctx is cancelled or either server fails.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...", "environment", app.config.Environment)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.http.Run(gCtx)
	})

	g.Go(func() error {
		return app.grpc.Run(gCtx)
	})

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error(ctx, "app failed", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}

// Close releases the database and Redis connections.
func (app *App) Close() error {
	var errs []error
	if app.rdb != nil {
		errs = append(errs, app.rdb.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}

// Main builds the app with logs on stdout and runs it.
func Main(ctx context.Context, c *config.Config) error {
	app, err := NewApp(ctx, c, os.Stdout)
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx)
}
