package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"

	"github.com/roach88/nomindex/internal/namehash"
)

// DefaultRedisKey is the hash that stores labelhash -> label.
const DefaultRedisKey = "nomindex:labels"

// Redis resolves from a Redis hash shared between indexer instances.
type Redis struct {
	client *redis.Client
	key    string
}

// RedisOption configures a Redis resolver.
type RedisOption func(*Redis)

// WithRedisKey overrides the hash key.
func WithRedisKey(key string) RedisOption {
	return func(r *Redis) {
		if key != "" {
			r.key = key
		}
	}
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{client: client, key: DefaultRedisKey}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// DialRedis parses a redis:// URL, connects and pings.
func DialRedis(ctx context.Context, url string, opts ...RedisOption) (*Redis, error) {
	o, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(o)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(client, opts...), nil
}

func (r *Redis) NameByHash(ctx context.Context, label common.Hash) (string, bool, error) {
	name, err := r.client.HGet(ctx, r.key, label.Hex()).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis lookup %s: %w", label.Hex(), err)
	}
	return name, true, nil
}

// Put stores plain labels under their hashes. Returns the number of new
// fields.
func (r *Redis) Put(ctx context.Context, labels ...string) (int64, error) {
	if len(labels) == 0 {
		return 0, nil
	}
	values := make([]any, 0, 2*len(labels))
	for _, l := range labels {
		values = append(values, namehash.LabelHash(l).Hex(), l)
	}
	n, err := r.client.HSet(ctx, r.key, values...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis store labels: %w", err)
	}
	return n, nil
}

// Health pings the server.
func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}
