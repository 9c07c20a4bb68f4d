package drain

import (
	"context"
	"testing"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/models"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/registry/registrytest"
	"github.com/stretchr/testify/require"
)

func TestIsDrained_True_WhenNoKeys(t *testing.T) {
	store := registrytest.New()
	c := New(store)

	drained, err := c.IsDrained(context.Background(), "taskA")
	require.NoError(t, err)
	require.True(t, drained)
}

func TestIsDrained_False_WhenServerRemains(t *testing.T) {
	store := registrytest.New()
	ctx := context.Background()
	require.NoError(t, store.HSet(ctx, models.BucketActive.Key("taskA-container0"), map[string]interface{}{
		"server-id": "taskA-container0",
	}))

	c := New(store)
	drained, err := c.IsDrained(ctx, "taskA")
	require.NoError(t, err)
	require.False(t, drained)
}
