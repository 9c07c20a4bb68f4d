package registry

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/clock"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/ctlerr"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testRDB *redis.Client

// TestMain brings up a single Redis container for the whole package and
// flushes it between tests instead of paying container startup cost per
// test case.
func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	connStr, err := container.ConnectionString(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
		os.Exit(1)
	}

	opts, err := redis.ParseURL(connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse redis url: %v\n", err)
		os.Exit(1)
	}
	testRDB = redis.NewClient(opts)

	code := m.Run()

	testRDB.Close()
	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}

	os.Exit(code)
}

// setupTest flushes the keyspace and returns a Client bound to the shared
// container, giving each test a clean slate without the cost of a fresh
// container.
func setupTest(t *testing.T) *Client {
	t.Helper()

	require.NoError(t, testRDB.FlushDB(context.Background()).Err())
	return FromRedis(testRDB)
}

func TestHSetHGetAll(t *testing.T) {
	c := setupTest(t)
	ctx := context.Background()

	key := BucketAvailableTestKey(t)
	err := c.HSet(ctx, key, map[string]interface{}{
		"server-id":   "srv-1",
		"max-players": 2,
		"ready":       true,
	})
	require.NoError(t, err)

	fields, err := c.HGetAll(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "srv-1", fields["server-id"])
	require.Equal(t, "2", fields["max-players"])
	require.Equal(t, "1", fields["ready"])
}

func TestScanMatchesPrefix(t *testing.T) {
	c := setupTest(t)
	ctx := context.Background()

	require.NoError(t, c.HSet(ctx, "active-gameserver-a", map[string]interface{}{"server-id": "a"}))
	require.NoError(t, c.HSet(ctx, "active-gameserver-b", map[string]interface{}{"server-id": "b"}))
	require.NoError(t, c.HSet(ctx, "full-gameserver-c", map[string]interface{}{"server-id": "c"}))

	keys, err := c.Scan(ctx, "active-gameserver-*")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"active-gameserver-a", "active-gameserver-b"}, keys)
}

func TestTryClaimSlot_NotReady(t *testing.T) {
	c := setupTest(t)
	ctx := context.Background()
	key := "available-gameserver-t1-container0"

	require.NoError(t, c.HSet(ctx, key, map[string]interface{}{
		"ready":       false,
		"max-players": 2,
		"publicIP":    "1.2.3.4",
		"port":        "7777",
	}))

	_, err := c.TryClaimSlot(ctx, key, clock.Real{})
	require.ErrorIs(t, err, ctlerr.ErrNotReady)
}

func TestTryClaimSlot_Full(t *testing.T) {
	c := setupTest(t)
	ctx := context.Background()
	key := "active-gameserver-t1-container0"

	require.NoError(t, c.HSet(ctx, key, map[string]interface{}{
		"ready":                 true,
		"max-players":           2,
		"reserved-player-slots": 2,
		"publicIP":              "1.2.3.4",
		"port":                  "7777",
	}))

	_, err := c.TryClaimSlot(ctx, key, clock.Real{})
	require.ErrorIs(t, err, ctlerr.ErrFull)
}

func TestTryClaimSlot_Succeeds(t *testing.T) {
	c := setupTest(t)
	ctx := context.Background()
	key := "active-gameserver-t1-container0"

	require.NoError(t, c.HSet(ctx, key, map[string]interface{}{
		"ready":                 true,
		"max-players":           2,
		"reserved-player-slots": 0,
		"publicIP":              "1.2.3.4",
		"port":                  "7777",
	}))

	res, err := c.TryClaimSlot(ctx, key, clock.Real{})
	require.NoError(t, err)
	require.Equal(t, "1.2.3.4", res.Address.PublicIP)
	require.Equal(t, "7777", res.Address.Port)

	fields, err := c.HGetAll(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "1", fields["reserved-player-slots"])
}

// BucketAvailableTestKey is a small helper to keep test key names unique
// per test without colliding across table-driven cases.
func BucketAvailableTestKey(t *testing.T) string {
	t.Helper()
	return "available-gameserver-" + t.Name()
}
