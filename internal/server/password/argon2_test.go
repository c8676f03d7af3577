package password

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cheap parameters keep the tests fast
func testConfig() Config {
	return Config{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32, MaxConcurrent: 2}
}

func newTestHasher(t *testing.T) *Argon2 {
	t.Helper()
	h, err := NewArgon2(testConfig())
	require.NoError(t, err)
	return h
}

func TestHashAndVerify(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	hash, err := h.Hash(ctx, "s3cret-pass")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"), hash)

	assert.True(t, h.Verify(ctx, hash, "s3cret-pass"))
	assert.False(t, h.Verify(ctx, hash, "s3cret-pasS"))
	assert.False(t, h.Verify(ctx, hash, ""))
}

func TestHash_Salted(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	a, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)
	b, err := h.Hash(ctx, "same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify(ctx, a, "same-password"))
	assert.True(t, h.Verify(ctx, b, "same-password"))
}

func TestVerify_UsesParamsFromHash(t *testing.T) {
	ctx := context.Background()
	weak := newTestHasher(t)
	hash, err := weak.Hash(ctx, "password1")
	require.NoError(t, err)

	strongerCfg := testConfig()
	strongerCfg.Time = 2
	stronger, err := NewArgon2(strongerCfg)
	require.NoError(t, err)

	assert.True(t, stronger.Verify(ctx, hash, "password1"))
}

func TestVerify_MalformedFailsClosed(t *testing.T) {
	h := newTestHasher(t)
	ctx := context.Background()

	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"garbage", "not-a-hash"},
		{"bcrypt", "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"},
		{"argon2i", "$argon2i$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"wrong version", "$argon2id$v=16$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"missing param", "$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"zero memory", "$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"unknown param", "$argon2id$v=19$m=8192,t=1,x=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"bad salt", "$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaGhhc2hoYXNoaGFzaA"},
		{"empty hash", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$"},
		{"extra segment", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA$x"},
		{"max uint32 memory", "$argon2id$v=19$m=4294967295,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"memory above headroom", "$argon2id$v=19$m=32769,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"huge time", "$argon2id$v=19$m=8192,t=4294967295,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"time above headroom", "$argon2id$v=19$m=8192,t=5,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"too many lanes", "$argon2id$v=19$m=8192,t=1,p=255$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaA"},
		{"oversized key", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$" + strings.Repeat("A", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, h.Verify(ctx, tt.hash, "anything"))
		})
	}
}

func TestCancelledContext(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrent = 1
	h, err := NewArgon2(cfg)
	require.NoError(t, err)

	hash, err := h.Hash(context.Background(), "password1")
	require.NoError(t, err)

	// occupy the only slot
	require.NoError(t, h.sem.Acquire(context.Background(), 1))
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = h.Hash(ctx, "password1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, h.Verify(ctx, hash, "password1"))
}

func TestNewArgon2_RejectsWeakParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"memory", func(c *Config) { c.Memory = 1024 }},
		{"time", func(c *Config) { c.Time = 0 }},
		{"parallelism", func(c *Config) { c.Parallelism = 0 }},
		{"salt", func(c *Config) { c.SaltLength = 8 }},
		{"key", func(c *Config) { c.KeyLength = 8 }},
		{"concurrency", func(c *Config) { c.MaxConcurrent = 0 }},
		{"memory ceiling", func(c *Config) { c.Memory = maxMemoryKB + 1 }},
		{"time ceiling", func(c *Config) { c.Time = maxTimeCost + 1 }},
		{"parallelism ceiling", func(c *Config) { c.Parallelism = maxParallelism + 1 }},
		{"key ceiling", func(c *Config) { c.KeyLength = maxKeyLength + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			_, err := NewArgon2(cfg)
			assert.Error(t, err)
		})
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	_, err := NewArgon2(DefaultConfig())
	assert.NoError(t, err)
}

func TestVerify_AcceptsStoredCostWithinHeadroom(t *testing.T) {
	ctx := context.Background()

	strongerCfg := testConfig()
	strongerCfg.Memory *= costHeadroom
	strongerCfg.Time = costHeadroom
	stronger, err := NewArgon2(strongerCfg)
	require.NoError(t, err)
	hash, err := stronger.Hash(ctx, "password1")
	require.NoError(t, err)

	assert.True(t, newTestHasher(t).Verify(ctx, hash, "password1"))
}
