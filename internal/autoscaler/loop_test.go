package autoscaler

import (
	"context"
	"testing"
	"time"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/clock"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/models"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/orchestrator/orchestratortest"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/registry"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/registry/registrytest"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIterate_ColdStartSeedsAvailableBuckets(t *testing.T) {
	store := registrytest.New()
	orch := orchestratortest.New(0, 10)
	l := New(store, orch, nil, DefaultConfig(), clock.NewFake(time.Unix(1000, 0)), zap.NewNop())

	err := l.iterate(context.Background())
	require.NoError(t, err)

	require.Equal(t, []int{3}, orch.LaunchCalls, "cold start from zero should launch ceil(30/10)=3 tasks")

	keys, err := store.Scan(context.Background(), "available-gameserver-*")
	require.NoError(t, err)
	require.Len(t, keys, 30)
}

func TestIterate_HealthyFleet_NoLaunch(t *testing.T) {
	store := registrytest.New()
	orch := orchestratortest.New(3, 10) // 30 running containers

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		key := models.BucketAvailable.Key(registry.ContainerID("seed", i))
		require.NoError(t, store.HSet(ctx, key, map[string]interface{}{"ready": false}))
	}
	for i := 0; i < 24; i++ {
		key := models.BucketActive.Key(registry.ContainerID("seed", 100+i))
		require.NoError(t, store.HSet(ctx, key, map[string]interface{}{"ready": true}))
	}

	l := New(store, orch, nil, DefaultConfig(), clock.NewFake(time.Unix(1000, 0)), zap.NewNop())
	err := l.iterate(ctx)
	require.NoError(t, err)
	require.Empty(t, orch.LaunchCalls)
}

func TestIterate_IntegrityBrakeSkipsLaunch(t *testing.T) {
	store := registrytest.New()
	orch := orchestratortest.New(100, 10) // expected 1000 containers, registry empty

	l := New(store, orch, nil, DefaultConfig(), clock.NewFake(time.Unix(1000, 0)), zap.NewNop())
	err := l.iterate(context.Background())
	require.Error(t, err)
	require.Empty(t, orch.LaunchCalls)
}

