package refreshtokens

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/authservice/internal/common"
	"github.com/dmitrijs2005/authservice/internal/logging"
	"github.com/dmitrijs2005/authservice/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyPrefix = "authservice:refresh:"
	tombstone      = "invalid"
)

// CachedRepository puts a Redis read-through cache in front of FindValid,
// the lookup the authorization guard performs on every expired access token.
//
// Cache entries are populated with SET NX and invalidation overwrites the key
// with a tombstone, so a lookup racing an Invalidate cannot resurrect a
// revoked token. Redis failures on the read path fall back to the database.
//
// Keys whose tombstone could not be written are remembered as stale until
// the tombstone is repaired or the TTL of any entry they might shadow has
// passed. Lookups of a stale key bypass the cache.
type CachedRepository struct {
	next   Repository
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logging.Logger
	now    func() time.Time

	mu    sync.Mutex
	stale map[string]time.Time
}

func NewCachedRepository(next Repository, rdb redis.Cmdable, ttl time.Duration, l logging.Logger) *CachedRepository {
	return &CachedRepository{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: l.With("module", "refresh_token_cache"),
		now:    time.Now,
		stale:  map[string]time.Time{},
	}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedRepository) Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	return c.next.Create(ctx, token)
}

func (c *CachedRepository) FindValid(ctx context.Context, userID, token string) (*models.RefreshToken, error) {
	key := cacheKey(token)

	if c.isStale(key) {
		if err := c.rdb.Set(ctx, key, tombstone, c.ttl).Err(); err == nil {
			c.clearStale(key)
		}
		return c.next.FindValid(ctx, userID, token)
	}

	raw, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == tombstone {
			return nil, common.ErrorNotFound
		}
		var rec models.RefreshToken
		if jsonErr := json.Unmarshal([]byte(raw), &rec); jsonErr == nil && rec.Token == token {
			if rec.UserID != userID {
				return nil, common.ErrorNotFound
			}
			return &rec, nil
		}
		c.logger.Warn(ctx, "corrupt cache entry, ignoring")
	case errors.Is(err, redis.Nil):
	default:
		c.logger.Warn(ctx, "cache read failed", "error", err)
	}

	rec, err := c.next.FindValid(ctx, userID, token)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(rec); err == nil {
		if err := c.rdb.SetNX(ctx, key, b, c.ttl).Err(); err != nil {
			c.logger.Warn(ctx, "cache populate failed", "error", err)
		}
	}

	return rec, nil
}

// Invalidate updates the database first and then tombstones the cache entry,
// deleting it when the tombstone cannot be written. If Redis rejects both the
// key is marked stale and the error is returned.
func (c *CachedRepository) Invalidate(ctx context.Context, token string) error {
	if err := c.next.Invalidate(ctx, token); err != nil {
		return err
	}

	key := cacheKey(token)
	setErr := c.rdb.Set(ctx, key, tombstone, c.ttl).Err()
	if setErr == nil {
		return nil
	}

	// without a tombstone a concurrent populate could still win; keep
	// bypassing the cache for this key either way
	c.markStale(key)
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		c.logger.Error(ctx, "cache invalidate failed, bypassing cache for token", "error", errors.Join(setErr, err))
		return fmt.Errorf("cache invalidate: %w", setErr)
	}
	return nil
}

func (c *CachedRepository) markStale(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale[key] = c.now().Add(c.ttl)
}

func (c *CachedRepository) clearStale(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stale, key)
}

func (c *CachedRepository) isStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	until, ok := c.stale[key]
	if !ok {
		return false
	}
	if !c.now().Before(until) {
		delete(c.stale, key)
		return false
	}
	return true
}
