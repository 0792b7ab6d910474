package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV persists session entries in Redis under "session:<scope>:<key>".
// The scope is the browser-session identifier (sid cookie), so each
// browser session gets its own three entries. TTL 0 means no expiry.
type RedisKV struct {
	rdb   *redis.Client
	scope string
	ttl   time.Duration
}

func NewRedisKV(rdb *redis.Client, scope string, ttl time.Duration) *RedisKV {
	return &RedisKV{rdb: rdb, scope: scope, ttl: ttl}
}

func (s *RedisKV) key(key string) string {
	return "session:" + s.scope + ":" + key
}

func (s *RedisKV) Get(ctx context.Context, key string) (string, error) {
	v, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *RedisKV) Set(ctx context.Context, key, value string) error {
	return s.rdb.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *RedisKV) Del(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	return s.rdb.Del(ctx, full...).Err()
}
