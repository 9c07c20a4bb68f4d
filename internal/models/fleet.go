// Package models holds the domain types shared across the registry,
// allocator, heartbeat, autoscaler, orchestrator and API layers.
package models

import "fmt"

// Bucket is one of the four lifecycle states a server occupies in the
// registry at any instant.
type Bucket string

const (
	BucketAvailable         Bucket = "available-gameserver-"
	BucketAvailablePriority Bucket = "available-priority-gameserver-"
	BucketActive            Bucket = "active-gameserver-"
	BucketFull              Bucket = "full-gameserver-"
)

// AllBuckets lists the four lifecycle buckets in a fixed order, used
// wherever all of them must be probed or cleared (invariant I1).
var AllBuckets = [4]Bucket{BucketAvailable, BucketAvailablePriority, BucketActive, BucketFull}

// Key returns the registry key for this bucket and container id.
func (b Bucket) Key(cid string) string {
	return string(b) + cid
}

// Address is the public endpoint of a server, returned to a client once
// a slot has been reserved for them.
type Address struct {
	PublicIP string
	Port     string
}

func (a Address) String() string {
	return fmt.Sprintf("%s:%s", a.PublicIP, a.Port)
}
