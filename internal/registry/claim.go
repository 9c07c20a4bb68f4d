package registry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/clock"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/ctlerr"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/models"
	"github.com/redis/go-redis/v9"
)

// ClaimResult is the outcome of a successful TryClaimSlot call.
type ClaimResult struct {
	Address models.Address
}

// TryClaimSlot is the sole concurrency primitive the allocator is built
// on. It watches the bucket's lock sentinel and, within that watched
// transaction, reserves one slot on the server addressed by bucketKey.
//
// Every distinct failure mode is reported as a sentinel error from
// ctlerr (ErrNotReady, ErrFull, ErrRetry) so callers can loop without
// inspecting error strings.
func (c *Client) TryClaimSlot(ctx context.Context, bucketKey string, now clock.Clock) (ClaimResult, error) {
	lockKey := LockKey(bucketKey)

	var result ClaimResult

	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, bucketKey).Result()
		if err != nil {
			return fmt.Errorf("registry: claim read %q: %w", bucketKey, err)
		}
		if len(fields) == 0 {
			return ctlerr.ErrNotReady
		}

		if fields["ready"] != "1" {
			return ctlerr.ErrNotReady
		}

		maxPlayers, err := strconv.Atoi(fields["max-players"])
		if err != nil {
			return ctlerr.ErrNotReady
		}

		reserved := 0
		if v, ok := fields["reserved-player-slots"]; ok && v != "" {
			reserved, _ = strconv.Atoi(v)
		}

		if reserved >= maxPlayers {
			return ctlerr.ErrFull
		}

		publicIP := fields["publicIP"]
		port := fields["port"]

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, bucketKey, map[string]interface{}{
				"reserved-player-slots": reserved + 1,
				"last-reservation-time": formatEpoch(now),
			})
			pipe.Set(ctx, lockKey, "1", secondsToDuration(LockTTL))
			return nil
		})
		if err != nil {
			return err
		}

		result = ClaimResult{Address: models.Address{PublicIP: publicIP, Port: port}}
		return nil
	}

	err := c.rdb.Watch(ctx, txf, lockKey)
	switch {
	case err == nil:
		return result, nil
	case err == redis.TxFailedErr:
		return ClaimResult{}, ctlerr.ErrRetry
	default:
		return ClaimResult{}, err
	}
}

func formatEpoch(c clock.Clock) string {
	t := c.Now()
	return strconv.FormatFloat(float64(t.UnixNano())/1e9, 'f', 3, 64)
}
