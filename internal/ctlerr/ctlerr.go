// Package ctlerr defines the error taxonomy shared by every component:
// sentinel values that call sites compare with errors.Is, narrowed to
// the kinds that are actually expected to occur so that a programmer
// error never gets silently absorbed alongside them.
package ctlerr

import "errors"

var (
	// ErrNoCapacity is returned by the allocator when both search phases
	// exhaust their retry budgets without reserving a slot.
	ErrNoCapacity = errors.New("no free server spot found")

	// ErrNotReady is returned by the registry's slot-claim primitive when
	// the target server has not yet flipped ready=1.
	ErrNotReady = errors.New("server not ready")

	// ErrFull is returned by the registry's slot-claim primitive when the
	// target server's reservations have already reached max-players.
	ErrFull = errors.New("server full")

	// ErrRetry is returned by the registry's slot-claim primitive when the
	// watched lock sentinel changed between read and commit.
	ErrRetry = errors.New("concurrent claim, retry")

	// ErrIntegrityFailure indicates the orchestrator reports far more
	// running containers than the registry knows about, signalling a
	// broken server build that isn't reporting heartbeats. The autoscaler
	// refuses to launch more capacity in this state.
	ErrIntegrityFailure = errors.New("expected game server count far exceeds registered count, refusing to launch")

	// ErrMalformedHeartbeat indicates a heartbeat arrived without a usable
	// public address and was ignored; the server is expected to retry on
	// its next beat.
	ErrMalformedHeartbeat = errors.New("heartbeat missing public address")
)

// Transient reports whether err is one of the kinds a caller should treat
// as retryable/ignorable operational noise, rather than a programmer
// error that ought to propagate and be investigated.
func Transient(err error) bool {
	return errors.Is(err, ErrRetry) ||
		errors.Is(err, ErrNotReady) ||
		errors.Is(err, ErrFull) ||
		errors.Is(err, ErrMalformedHeartbeat)
}
