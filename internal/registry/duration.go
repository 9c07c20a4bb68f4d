package registry

import "time"

// secondsToDuration converts a whole-second TTL into a time.Duration. A
// value of 0 is passed straight through, which go-redis treats as "no
// expiry" for Set/Expire.
func secondsToDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
