package auth

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/todohub/internal/cache"
	"github.com/redis/go-redis/v9"
)

// MemoryRevocations keeps revoked token ids in process. Used when no Redis
// is configured; revocations do not survive a restart.
type MemoryRevocations struct {
	c *cache.Cache[struct{}]
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{c: cache.New[struct{}](DefaultTTL)}
}

func (r *MemoryRevocations) Revoke(_ context.Context, jti string, until time.Time) error {
	r.c.SetUntil(jti, struct{}{}, until)
	// opportunistic cleanup keeps the map bounded by live tokens
	r.c.Sweep()
	return nil
}

func (r *MemoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, ok := r.c.Get(jti)
	return ok, nil
}

// RedisRevocations shares the revocation list across API instances.
type RedisRevocations struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisRevocations stores revoked token ids under keyPrefix+jti.
func NewRedisRevocations(rdb *redis.Client, keyPrefix string) *RedisRevocations {
	return &RedisRevocations{rdb: rdb, prefix: keyPrefix}
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, r.prefix+jti, 1, ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := r.rdb.Get(ctx, r.prefix+jti).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return false, err
}
