package heartbeat

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/clock"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/models"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/registry"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/registry/registrytest"
	"github.com/stretchr/testify/require"
)

func TestHandle_IdleServerGoesToAvailable(t *testing.T) {
	store := registrytest.New()
	h := New(store, clock.NewFake(time.Unix(1000, 0)))
	ctx := context.Background()

	cid := "taskA-container0"
	err := h.Handle(ctx, Report{
		TaskArn:        cid,
		CurrentPlayers: 0,
		MaxPlayers:     2,
		Ready:          true,
		PublicIP:       "1.2.3.4",
		Port:           "7777",
	})
	require.NoError(t, err)

	fields, err := store.HGetAll(ctx, models.BucketAvailable.Key(cid))
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", fields["publicIP"])
}

func TestHandle_ActiveMarksPriorityAndMovesServer(t *testing.T) {
	store := registrytest.New()
	h := New(store, clock.NewFake(time.Unix(1000, 0)))
	ctx := context.Background()

	cid := "taskA-container0"
	require.NoError(t, store.HSet(ctx, models.BucketAvailable.Key(cid), map[string]interface{}{
		"publicIP": "1.2.3.4",
	}))

	err := h.Handle(ctx, Report{
		TaskArn:        cid,
		CurrentPlayers: 1,
		MaxPlayers:     2,
		Ready:          true,
		PublicIP:       "1.2.3.4",
		Port:           "7777",
	})
	require.NoError(t, err)

	exists, err := store.Exists(ctx, models.BucketAvailable.Key(cid))
	require.NoError(t, err)
	require.False(t, exists, "available bucket should have been cleared")

	fields, err := store.HGetAll(ctx, models.BucketActive.Key(cid))
	require.NoError(t, err)
	require.Equal(t, "1", fields["current-players"])

	priority, err := store.Get(ctx, registry.PriorityKey("taskA"))
	require.NoError(t, err)
	require.Equal(t, "yes", priority)
}

func TestHandle_IdleAfterActiveGoesToAvailablePriority(t *testing.T) {
	store := registrytest.New()
	h := New(store, clock.NewFake(time.Unix(1000, 0)))
	ctx := context.Background()

	cid := "taskA-container0"
	require.NoError(t, store.Set(ctx, registry.PriorityKey("taskA"), "yes", registry.GameServerDataTTL))

	err := h.Handle(ctx, Report{
		TaskArn:        cid,
		CurrentPlayers: 0,
		MaxPlayers:     2,
		Ready:          true,
		PublicIP:       "1.2.3.4",
		Port:           "7777",
	})
	require.NoError(t, err)

	fields, err := store.HGetAll(ctx, models.BucketAvailablePriority.Key(cid))
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", fields["publicIP"])
}

func TestHandle_Terminated_DeletesAllBuckets(t *testing.T) {
	store := registrytest.New()
	h := New(store, clock.NewFake(time.Unix(1000, 0)))
	ctx := context.Background()

	cid := "taskA-container0"
	require.NoError(t, store.HSet(ctx, models.BucketActive.Key(cid), map[string]interface{}{"publicIP": "1.2.3.4"}))

	err := h.Handle(ctx, Report{TaskArn: cid, ServerTerminated: true})
	require.NoError(t, err)

	for _, b := range models.AllBuckets {
		exists, err := store.Exists(ctx, b.Key(cid))
		require.NoError(t, err)
		require.False(t, exists)
	}
}

func TestHandle_MissingPublicIP_NoOp(t *testing.T) {
	store := registrytest.New()
	h := New(store, clock.NewFake(time.Unix(1000, 0)))
	ctx := context.Background()

	cid := "taskA-container0"
	err := h.Handle(ctx, Report{TaskArn: cid, CurrentPlayers: 1, MaxPlayers: 2})
	require.NoError(t, err)

	for _, b := range models.AllBuckets {
		exists, err := store.Exists(ctx, b.Key(cid))
		require.NoError(t, err)
		require.False(t, exists)
	}
}

func TestHandle_ReservationSweepClampsStaleReservation(t *testing.T) {
	store := registrytest.New()
	fake := clock.NewFake(time.Unix(10000, 0))
	h := New(store, fake)
	ctx := context.Background()

	cid := "taskA-container0"
	staleTime := float64(fake.Now().Unix()) - 31
	require.NoError(t, store.HSet(ctx, models.BucketActive.Key(cid), map[string]interface{}{
		"reserved-player-slots": 2,
		"last-reservation-time": toStr(staleTime),
	}))

	err := h.Handle(ctx, Report{
		TaskArn:        cid,
		CurrentPlayers: 0,
		MaxPlayers:     2,
		Ready:          true,
		PublicIP:       "1.2.3.4",
		Port:           "7777",
	})
	require.NoError(t, err)

	fields, err := store.HGetAll(ctx, models.BucketAvailable.Key(cid))
	require.NoError(t, err)
	require.Equal(t, "0", fields["reserved-player-slots"])
}

func toStr(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}
