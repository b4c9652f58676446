package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect crea el cliente Redis desde una URL redis:// o rediss://, o un host:port directo.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// RedisCache caché compartida entre réplicas; los valores se guardan como JSON bajo prefix.
type RedisCache[V any] struct {
	client redis.Cmdable
	prefix string
}

var _ Cache[int] = (*RedisCache[int])(nil)

// NewRedisCache prefix agrupa las claves, ej. "slipstream:prefs:".
func NewRedisCache[V any](client redis.Cmdable, prefix string) *RedisCache[V] {
	return &RedisCache[V]{client: client, prefix: prefix}
}

func (c *RedisCache[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		// Entrada corrupta: se trata como ausente y se descarta.
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return zero, false, nil
	}
	return v, true, nil
}

func (c *RedisCache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: serializar: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, c.prefix+key, raw, ttl).Err()
}

func (c *RedisCache[V]) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
