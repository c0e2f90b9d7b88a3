package database

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the Redis client
type Redis struct {
	client *redis.Client
}

// redisOptions parses the URL and sizes the client for its two jobs here:
// rate-limit counters and the model-pin lookup on the ask path. Both are
// single-key operations, so a small pool with a short dial timeout is enough.
func redisOptions(redisURL string) (*redis.Options, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = 8
	opts.DialTimeout = 3 * time.Second
	return opts, nil
}

// NewRedis creates the Redis client and verifies the connection
func NewRedis(redisURL string) (*Redis, error) {
	opts, err := redisOptions(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &Redis{client: client}, nil
}

// Client returns the underlying Redis client
func (r *Redis) Client() *redis.Client {
	return r.client
}

// Ping checks the Redis connection
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}
