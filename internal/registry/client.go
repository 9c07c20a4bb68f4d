// Package registry is the typed wrapper around the shared fleet registry.
// Every other component (the allocator, the heartbeat handler, the
// autoscaler, the drain checker) talks to Redis exclusively through this
// package; nothing else imports go-redis directly.
package registry

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client wraps a go-redis client with the key/field operations the rest
// of the control plane needs. It holds no fleet-specific state of its
// own; callers are responsible for building keys via models.Bucket and
// the helpers in keys.go.
type Client struct {
	rdb *redis.Client
}

// Options configures a new Client.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// New dials a Redis client against the given endpoint. It does not block
// on connecting; the first real command surfaces any connectivity error.
func New(opts Options) *Client {
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

// FromRedis wraps an already-constructed go-redis client, used by tests
// that want to point at a testcontainers-backed instance.
func FromRedis(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies connectivity, used by the health-check path at startup.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Scan performs a cursored SCAN over the keyspace for the given glob
// pattern, returning every matching key. Callers may observe an
// approximate snapshot under concurrent mutation; this is acceptable per
// the registry's consistency model.
func (c *Client) Scan(ctx context.Context, pattern string) ([]string, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("registry: scan %q: %w", pattern, err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

// HSet writes the given fields onto a hash key.
func (c *Client) HSet(ctx context.Context, key string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	if err := c.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("registry: hset %q: %w", key, err)
	}
	return nil
}

// HGetAll reads every field of a hash key. A missing key returns an empty
// map and no error, matching go-redis's HGETALL semantics.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("registry: hgetall %q: %w", key, err)
	}
	return fields, nil
}

// HDel removes the given fields from a hash key.
func (c *Client) HDel(ctx context.Context, key string, fields ...string) error {
	if err := c.rdb.HDel(ctx, key, fields...).Err(); err != nil {
		return fmt.Errorf("registry: hdel %q: %w", key, err)
	}
	return nil
}

// Del deletes one or more keys outright, used to remove a server from a
// bucket it no longer occupies.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("registry: del %v: %w", keys, err)
	}
	return nil
}

// Expire sets a key's TTL in seconds.
func (c *Client) Expire(ctx context.Context, key string, seconds int) error {
	if err := c.rdb.Expire(ctx, key, secondsToDuration(seconds)).Err(); err != nil {
		return fmt.Errorf("registry: expire %q: %w", key, err)
	}
	return nil
}

// Set writes a plain string value with an optional TTL (0 means no
// expiry), used for sentinel keys like the priority mark and the lock.
func (c *Client) Set(ctx context.Context, key, value string, seconds int) error {
	if err := c.rdb.Set(ctx, key, value, secondsToDuration(seconds)).Err(); err != nil {
		return fmt.Errorf("registry: set %q: %w", key, err)
	}
	return nil
}

// Get reads a plain string value. A missing key returns ("", nil).
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("registry: get %q: %w", key, err)
	}
	return val, nil
}

// Exists reports whether a key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("registry: exists %q: %w", key, err)
	}
	return n > 0, nil
}
