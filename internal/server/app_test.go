package server

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/authservice/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseDriver = config.DriverSQLite
	c.DatabaseDSN = "file:" + t.Name() + "?mode=memory&cache=shared"
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.Argon2Memory = 8 * 1024
	c.HashConcurrency = 2
	return c
}

func TestApp_RunAndStop(t *testing.T) {
	mr := miniredis.RunT(t)
	c := testConfig(t)
	c.RedisAddr = mr.Addr()

	var logs bytes.Buffer
	app, err := NewApp(context.Background(), c, &logs)
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Contains(t, logs.String(), "database migrated")
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	c := testConfig(t)
	c.RedisAddr = addr

	_, err := NewApp(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis init error")
}

func TestNewApp_BadDriver(t *testing.T) {
	c := testConfig(t)
	c.DatabaseDriver = "mysql"

	_, err := NewApp(context.Background(), c, &bytes.Buffer{})
	assert.Error(t, err)
}
