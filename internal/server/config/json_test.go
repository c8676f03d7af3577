package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJSON(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_http":              "www.example:9000",
		"database_driver":                 "sqlite",
		"database_dsn":                    "auth.db",
		"access_secret":                   "a",
		"refresh_secret":                  "r",
		"access_token_validity_duration":  "1m",
		"refresh_token_validity_duration": "3m",
		"rotate_refresh_tokens":           true,
		"redis_cache_ttl":                 int64(30 * time.Second),
	})

	t.Run("loads from json and keeps absent fields", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJSON(cfg, []string{"-config", path}))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
		assert.Equal(t, "sqlite", cfg.DatabaseDriver)
		assert.Equal(t, "auth.db", cfg.DatabaseDSN)
		assert.Equal(t, "a", cfg.AccessSecret)
		assert.Equal(t, "r", cfg.RefreshSecret)
		assert.Equal(t, time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
		assert.True(t, cfg.RotateRefreshTokens)
		assert.Equal(t, 30*time.Second, cfg.RedisCacheTTL)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("no config flag means no changes", func(t *testing.T) {
		cfg := &Config{EndpointAddrHTTP: "defaults:1234"}
		require.NoError(t, parseJSON(cfg, []string{"-a", ":1"}))
		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
	})

	t.Run("missing file", func(t *testing.T) {
		require.Error(t, parseJSON(&Config{}, []string{"-c", filepath.Join(t.TempDir(), "absent.json")}))
	})

	t.Run("invalid json", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		require.Error(t, parseJSON(&Config{}, []string{"-c", bad}))
	})
}
