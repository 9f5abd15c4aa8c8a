package cartstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultBlobTTL = 30 * 24 * time.Hour

// RedisBlob implements Blob over a Redis client. Cart mirrors are kept for a
// month of inactivity and refreshed on every write.
type RedisBlob struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBlob creates a redis-backed blob store.
func NewRedisBlob(client *redis.Client) *RedisBlob {
	return &RedisBlob{
		client: client,
		ttl:    defaultBlobTTL,
	}
}

// Read returns the bytes stored under key, with found=false on a missing key.
func (r *RedisBlob) Read(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// Write stores the bytes under key and refreshes the TTL.
func (r *RedisBlob) Write(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the key.
func (r *RedisBlob) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
