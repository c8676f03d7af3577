package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/authservice/internal/server/auth"
	"github.com/dmitrijs2005/authservice/internal/server/password"
	"github.com/dmitrijs2005/authservice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authservice/internal/server/storetest"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T) *auth.Signer {
	t.Helper()
	s, err := auth.NewSigner(auth.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)
	return s
}

func newTestHasher(t *testing.T) *password.Argon2 {
	t.Helper()
	h, err := password.NewArgon2(password.Config{
		Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32, MaxConcurrent: 4,
	})
	require.NoError(t, err)
	return h
}

// newSQLiteService wires a SessionService over a migrated in-memory database.
func newSQLiteService(t *testing.T, opts ...SessionOption) (*SessionService, *sql.DB) {
	t.Helper()
	db := storetest.OpenSQLite(t)
	m, err := repomanager.NewSQLRepositoryManager(repomanager.DriverSQLite)
	require.NoError(t, err)
	return NewSessionService(db, m, newTestHasher(t), newTestSigner(t), opts...), db
}
