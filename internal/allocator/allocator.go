// Package allocator implements matchmaking: picking a server for an
// incoming client and atomically reserving one slot on it, racing other
// concurrent requests via the registry's optimistic-concurrency primitive
// rather than any allocator-local lock.
package allocator

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/clock"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/ctlerr"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/models"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/registry"
)

// Phase1Iterations bounds the join-in-progress search over active
// servers.
const Phase1Iterations = 25

// Phase2Iterations bounds the cold-start search over idle servers.
const Phase2Iterations = 30

// phase2PriorityIterations is how many of Phase2Iterations prefer the
// priority pool before falling back to the plain available pool
// unconditionally, guarding against a stuck priority pool.
const phase2PriorityIterations = 20

// Allocator picks a server and reserves a slot on it.
type Allocator struct {
	store registry.Store
	clock clock.Clock
}

// New builds an Allocator over the given registry and clock.
func New(store registry.Store, c clock.Clock) *Allocator {
	return &Allocator{store: store, clock: c}
}

// Allocate returns the address of a server with one freshly reserved
// slot, or ctlerr.ErrNoCapacity if both search phases exhaust their
// retry budgets.
func (a *Allocator) Allocate(ctx context.Context) (models.Address, error) {
	if addr, ok, err := a.phase1(ctx); err != nil {
		return models.Address{}, err
	} else if ok {
		return addr, nil
	}

	if addr, ok, err := a.phase2(ctx); err != nil {
		return models.Address{}, err
	} else if ok {
		return addr, nil
	}

	return models.Address{}, ctlerr.ErrNoCapacity
}

// phase1 joins an in-progress session on an active-bucket server.
func (a *Allocator) phase1(ctx context.Context) (models.Address, bool, error) {
	keys, err := a.store.Scan(ctx, registry.BucketPattern(models.BucketActive))
	if err != nil {
		return models.Address{}, false, err
	}
	if len(keys) == 0 {
		return models.Address{}, false, nil
	}

	for i := 0; i < Phase1Iterations; i++ {
		key := keys[rand.IntN(len(keys))]
		res, err := a.store.TryClaimSlot(ctx, key, a.clock)
		switch {
		case err == nil:
			return res.Address, true, nil
		case errors.Is(err, ctlerr.ErrRetry), errors.Is(err, ctlerr.ErrFull), errors.Is(err, ctlerr.ErrNotReady):
			continue
		default:
			return models.Address{}, false, err
		}
	}

	return models.Address{}, false, nil
}

// phase2 boots a cold server, preferring priority-task servers for the
// first phase2PriorityIterations attempts.
func (a *Allocator) phase2(ctx context.Context) (models.Address, bool, error) {
	for i := 0; i < Phase2Iterations; i++ {
		bucket := models.BucketAvailable
		if i < phase2PriorityIterations {
			priorityKeys, err := a.store.Scan(ctx, registry.BucketPattern(models.BucketAvailablePriority))
			if err != nil {
				return models.Address{}, false, err
			}
			if len(priorityKeys) > 0 {
				key := priorityKeys[rand.IntN(len(priorityKeys))]
				res, ok, retryErr := a.claim(ctx, key)
				if retryErr != nil {
					return models.Address{}, false, retryErr
				}
				if ok {
					return res, true, nil
				}
				continue
			}
			bucket = models.BucketAvailable
		}

		keys, err := a.store.Scan(ctx, registry.BucketPattern(bucket))
		if err != nil {
			return models.Address{}, false, err
		}
		if len(keys) == 0 {
			continue
		}

		key := keys[rand.IntN(len(keys))]
		res, ok, retryErr := a.claim(ctx, key)
		if retryErr != nil {
			return models.Address{}, false, retryErr
		}
		if ok {
			return res, true, nil
		}
	}

	return models.Address{}, false, nil
}

// claim wraps TryClaimSlot, folding the three expected-failure sentinels
// into a simple "not yet" bool so callers can loop without repeating the
// errors.Is chain at each call site.
func (a *Allocator) claim(ctx context.Context, key string) (models.Address, bool, error) {
	res, err := a.store.TryClaimSlot(ctx, key, a.clock)
	switch {
	case err == nil:
		return res.Address, true, nil
	case errors.Is(err, ctlerr.ErrRetry), errors.Is(err, ctlerr.ErrFull), errors.Is(err, ctlerr.ErrNotReady):
		return models.Address{}, false, nil
	default:
		return models.Address{}, false, err
	}
}
