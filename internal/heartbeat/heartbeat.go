// Package heartbeat implements the per-server state-transition handler:
// every running game server calls in roughly every 15 seconds, and this
// package decides which lifecycle bucket it belongs in, refreshes its
// TTLs, and sweeps stale reservations.
package heartbeat

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/clock"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/models"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/registry"
)

// Report is one heartbeat payload from a running game server.
type Report struct {
	ServerInUse      bool
	TaskArn          string // container id, e.g. "<taskArn>-container3"
	CurrentPlayers   int
	MaxPlayers       int
	Ready            bool
	PublicIP         string
	Port             string
	ServerTerminated bool
}

// Handler applies Reports to the fleet registry.
type Handler struct {
	store registry.Store
	clock clock.Clock
}

// New builds a Handler over the given registry and clock.
func New(store registry.Store, c clock.Clock) *Handler {
	return &Handler{store: store, clock: c}
}

// Handle runs the five-step procedure described in the registry's data
// model: reservation sweep, termination, missing-address guard, bucket
// selection, and the write of the target bucket with the other three
// deleted.
func (h *Handler) Handle(ctx context.Context, r Report) error {
	cid := r.TaskArn
	onlyTaskArn := registry.OnlyTaskArn(cid)

	carried, err := h.sweepReservation(ctx, cid, r.CurrentPlayers)
	if err != nil {
		return fmt.Errorf("heartbeat: reservation sweep: %w", err)
	}

	if r.ServerTerminated {
		return h.deleteAllBuckets(ctx, cid)
	}

	if r.PublicIP == "" {
		return nil
	}

	target, err := h.selectBucket(ctx, r, onlyTaskArn, cid)
	if err != nil {
		return fmt.Errorf("heartbeat: bucket selection: %w", err)
	}

	return h.writeTarget(ctx, target, cid, r, carried)
}

// carriedReservation is what step 1 found and possibly clamped, carried
// forward into the target bucket's write in step 5.
type carriedReservation struct {
	found               bool
	reservedPlayerSlots int
	lastReservationTime string
}

// sweepReservation probes available, available-priority, and active in
// that order; the first with a last-reservation-time wins. If the
// reservation is older than registry.ReservationStaleAfter and still
// exceeds currentPlayers, it is clamped down (never below zero).
func (h *Handler) sweepReservation(ctx context.Context, cid string, currentPlayers int) (carriedReservation, error) {
	probeOrder := []models.Bucket{models.BucketAvailable, models.BucketAvailablePriority, models.BucketActive}

	for _, b := range probeOrder {
		key := b.Key(cid)
		fields, err := h.store.HGetAll(ctx, key)
		if err != nil {
			return carriedReservation{}, err
		}
		lrt, ok := fields["last-reservation-time"]
		if !ok || lrt == "" {
			continue
		}

		reserved := 0
		if v, ok := fields["reserved-player-slots"]; ok && v != "" {
			reserved, _ = strconv.Atoi(v)
		}

		lastTime, err := strconv.ParseFloat(lrt, 64)
		if err != nil {
			return carriedReservation{found: true, reservedPlayerSlots: reserved, lastReservationTime: lrt}, nil
		}

		now := float64(h.clock.Now().Unix())
		if now-lastTime > registry.ReservationStaleAfter && reserved > currentPlayers {
			reserved = currentPlayers
			if reserved < 0 {
				reserved = 0
			}
		}

		return carriedReservation{
			found:               true,
			reservedPlayerSlots: reserved,
			lastReservationTime: lrt,
		}, nil
	}

	return carriedReservation{}, nil
}

func (h *Handler) deleteAllBuckets(ctx context.Context, cid string) error {
	for _, b := range models.AllBuckets {
		if err := h.store.Del(ctx, b.Key(cid)); err != nil {
			return err
		}
	}
	return nil
}

// selectBucket implements step 4: the three-way branch over in-use,
// active, and idle (with priority stickiness), marking task priority as
// a side effect whenever the server is no longer idle.
func (h *Handler) selectBucket(ctx context.Context, r Report, onlyTaskArn, cid string) (models.Bucket, error) {
	switch {
	case r.ServerInUse:
		if err := h.markPriority(ctx, onlyTaskArn); err != nil {
			return "", err
		}
		return models.BucketFull, nil

	case r.CurrentPlayers > 0:
		if err := h.markPriority(ctx, onlyTaskArn); err != nil {
			return "", err
		}
		return models.BucketActive, nil

	default:
		isPriority, err := h.store.Exists(ctx, registry.PriorityKey(onlyTaskArn))
		if err != nil {
			return "", err
		}
		if isPriority {
			if err := h.store.Del(ctx, models.BucketAvailable.Key(cid)); err != nil {
				return "", err
			}
			if err := h.markPriority(ctx, onlyTaskArn); err != nil {
				return "", err
			}
			return models.BucketAvailablePriority, nil
		}
		return models.BucketAvailable, nil
	}
}

func (h *Handler) markPriority(ctx context.Context, onlyTaskArn string) error {
	return h.store.Set(ctx, registry.PriorityKey(onlyTaskArn), "yes", registry.GameServerDataTTL)
}

// writeTarget deletes the three non-target buckets, then writes the
// target's fields and sets its TTL, carrying forward any reservation
// found in step 1 when the target is active or an available variant.
func (h *Handler) writeTarget(ctx context.Context, target models.Bucket, cid string, r Report, carried carriedReservation) error {
	for _, b := range models.AllBuckets {
		if b == target {
			continue
		}
		if target == models.BucketAvailablePriority && b == models.BucketAvailable {
			// already deleted in selectBucket to satisfy I1 before the
			// priority mark was (re)written.
			continue
		}
		if err := h.store.Del(ctx, b.Key(cid)); err != nil {
			return err
		}
	}

	fields := map[string]interface{}{
		"server-id":       cid,
		"current-players": r.CurrentPlayers,
		"max-players":     r.MaxPlayers,
		"ready":           r.Ready,
		"publicIP":        r.PublicIP,
		"port":            r.Port,
	}

	if carried.found && (target == models.BucketActive || target == models.BucketAvailable || target == models.BucketAvailablePriority) {
		fields["reserved-player-slots"] = carried.reservedPlayerSlots
		fields["last-reservation-time"] = carried.lastReservationTime
	}

	key := target.Key(cid)
	if err := h.store.HSet(ctx, key, fields); err != nil {
		return err
	}
	return h.store.Expire(ctx, key, registry.GameServerDataTTL)
}
