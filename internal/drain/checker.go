// Package drain answers the one question the orchestrator's pre-stop
// hook needs before recycling a task: does any server belonging to it
// still have a live registry entry.
package drain

import (
	"context"
	"fmt"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/registry"
)

// Checker reports whether a task has fully drained.
type Checker struct {
	store registry.Store
}

// New builds a Checker over the given registry.
func New(store registry.Store) *Checker {
	return &Checker{store: store}
}

// IsDrained returns true iff no bucket key, in any of the four
// lifecycle buckets, matches this taskArn's containers.
func (c *Checker) IsDrained(ctx context.Context, taskArn string) (bool, error) {
	keys, err := c.store.Scan(ctx, registry.AnyBucketPattern(taskArn))
	if err != nil {
		return false, fmt.Errorf("drain: scan %q: %w", taskArn, err)
	}
	return len(keys) == 0, nil
}
