package store

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisStore wraps the optional Redis connection. It backs the IP rate
// limiter and the health check; message persistence stays in the DataStore
// backends so the log remains durable.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying client for middleware that issues its own
// commands.
func (s *RedisStore) Client() *redis.Client {
	return s.client
}
