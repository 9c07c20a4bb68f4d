package registry

import (
	"context"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/clock"
)

// Store is the surface every component depends on. *Client satisfies it
// against a real Redis instance; registrytest.Fake satisfies it in
// memory for fast, deterministic unit tests.
type Store interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	HSet(ctx context.Context, key string, fields map[string]interface{}) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Del(ctx context.Context, keys ...string) error
	Expire(ctx context.Context, key string, seconds int) error
	Set(ctx context.Context, key, value string, seconds int) error
	Get(ctx context.Context, key string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	TryClaimSlot(ctx context.Context, bucketKey string, now clock.Clock) (ClaimResult, error)
}

var _ Store = (*Client)(nil)
