// Package registrytest provides an in-memory implementation of
// registry.Store for tests that exercise the allocator, heartbeat
// handler, autoscaler and drain checker without a live Redis instance.
package registrytest

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/clock"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/ctlerr"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/models"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/registry"
)

// Fake is a mutex-guarded in-memory registry.Store. Build one with New;
// the zero value has nil maps and is not usable. TTLs are accepted but
// neither enforced nor recorded: keys never expire, and the TTL
// arguments of Expire and Set are discarded.
type Fake struct {
	mu     sync.Mutex
	hashes map[string]map[string]string
	strs   map[string]string
}

var _ registry.Store = (*Fake)(nil)

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		hashes: make(map[string]map[string]string),
		strs:   make(map[string]string),
	}
}

func (f *Fake) Scan(ctx context.Context, pattern string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	re := globToRegexp(pattern)

	var keys []string
	for k := range f.hashes {
		if re.MatchString(k) {
			keys = append(keys, k)
		}
	}
	for k := range f.strs {
		if re.MatchString(k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// globToRegexp compiles a Redis SCAN-style glob (*, ?) into a regexp
// that matches the full key, same as real Redis: unlike filepath.Match,
// "*" here matches any sequence including "/", since task ARNs carry
// slashes and must still be matched by a bucket-prefix scan.
func globToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func (f *Fake) HSet(ctx context.Context, key string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, ok := f.hashes[key]
	if !ok {
		h = make(map[string]string)
		f.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = toFieldString(v)
	}
	return nil
}

func (f *Fake) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]string)
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return out, nil
}

func (f *Fake) HDel(ctx context.Context, key string, fields ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, ok := f.hashes[key]
	if !ok {
		return nil
	}
	for _, field := range fields {
		delete(h, field)
	}
	return nil
}

func (f *Fake) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, k := range keys {
		delete(f.hashes, k)
		delete(f.strs, k)
	}
	return nil
}

func (f *Fake) Expire(ctx context.Context, key string, seconds int) error {
	// TTLs are not modeled; presence is all the fake tracks.
	return nil
}

func (f *Fake) Set(ctx context.Context, key, value string, seconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.strs[key] = value
	return nil
}

func (f *Fake) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.strs[key], nil
}

func (f *Fake) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.hashes[key]; ok {
		return true, nil
	}
	_, ok := f.strs[key]
	return ok, nil
}

// TryClaimSlot mirrors registry.Client.TryClaimSlot's contract against
// the in-memory hash map. The fake has no real watch/retry race to
// model, so it simply locks the whole store for the duration of the
// check-and-set, which is sufficient to drive the same call sites the
// real client serves.
func (f *Fake) TryClaimSlot(ctx context.Context, bucketKey string, now clock.Clock) (registry.ClaimResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, ok := f.hashes[bucketKey]
	if !ok || len(h) == 0 {
		return registry.ClaimResult{}, ctlerr.ErrNotReady
	}
	if h["ready"] != "1" {
		return registry.ClaimResult{}, ctlerr.ErrNotReady
	}

	maxPlayers, err := strconv.Atoi(h["max-players"])
	if err != nil {
		return registry.ClaimResult{}, ctlerr.ErrNotReady
	}

	reserved := 0
	if v, ok := h["reserved-player-slots"]; ok && v != "" {
		reserved, _ = strconv.Atoi(v)
	}

	if reserved >= maxPlayers {
		return registry.ClaimResult{}, ctlerr.ErrFull
	}

	h["reserved-player-slots"] = strconv.Itoa(reserved + 1)
	h["last-reservation-time"] = strconv.FormatFloat(float64(now.Now().Unix()), 'f', 3, 64)

	return registry.ClaimResult{Address: models.Address{
		PublicIP: h["publicIP"],
		Port:     h["port"],
	}}, nil
}

func toFieldString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}
