package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores JSON-encoded values under a key prefix with a TTL.
type Redis[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ Store[int] = (*Redis[int])(nil)

func NewRedis[T any](client *redis.Client, prefix string, ttl time.Duration) *Redis[T] {
	return &Redis[T]{client: client, prefix: prefix, ttl: ttl}
}

// OpenRedis parses url (redis://...) and verifies the server answers.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (c *Redis[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "Redis cache read failed", "key", key, "error", err)
		}
		return zero, false
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		slog.WarnContext(ctx, "Dropping undecodable cache entry", "key", key, "error", err)
		c.client.Del(ctx, c.prefix+key)
		return zero, false
	}
	return v, true
}

func (c *Redis[T]) Set(ctx context.Context, key string, value T) {
	b, err := json.Marshal(value)
	if err != nil {
		slog.WarnContext(ctx, "Cache value not encodable", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, b, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache write failed", "key", key, "error", err)
	}
}

func (c *Redis[T]) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		slog.WarnContext(ctx, "Redis cache delete failed", "keys", keys, "error", err)
	}
}
