package registry

import (
	"fmt"
	"strings"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/models"
)

const (
	// GameServerDataTTL is the TTL applied to every heartbeat-maintained
	// bucket entry and to the priority sentinel.
	GameServerDataTTL = 20

	// ServerStartupGracePeriod is the TTL applied to an available-bucket
	// entry seeded by the autoscaler before any heartbeat has arrived.
	ServerStartupGracePeriod = 60

	// LockTTL is the TTL of the slot-claim sentinel key.
	LockTTL = 3

	// ReservationStaleAfter is how long a reservation may sit unconfirmed
	// before a heartbeat sweep clamps it down to the observed player count.
	ReservationStaleAfter = 30
)

// PriorityKey returns the sticky "this task has hosted a session" sentinel
// key for a bare task arn (not a container id).
func PriorityKey(taskArn string) string {
	return "prioritize-" + taskArn
}

// LockKey returns the watched sentinel key for a bucket key, used as the
// sole concurrency primitive behind TryClaimSlot.
func LockKey(bucketKey string) string {
	return "-lock" + bucketKey
}

// OnlyTaskArn strips the "-container<N>" suffix from a container id,
// returning the bare task arn it belongs to.
func OnlyTaskArn(cid string) string {
	if i := strings.LastIndex(cid, "-container"); i >= 0 {
		return cid[:i]
	}
	return cid
}

// ContainerID builds the container id for the Nth container (0-based) of
// a task arn.
func ContainerID(taskArn string, n int) string {
	return fmt.Sprintf("%s-container%d", taskArn, n)
}

// BucketPattern returns the SCAN glob matching every key in a bucket.
func BucketPattern(b models.Bucket) string {
	return string(b) + "*"
}

// AnyBucketPattern returns the SCAN glob used by the drain checker: any
// bucket prefix, for this specific task arn's containers.
func AnyBucketPattern(taskArn string) string {
	return "*-gameserver-" + taskArn + "*"
}
