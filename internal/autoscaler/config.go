package autoscaler

import "time"

// Config is the autoscaler's tuning knobs, passed explicitly rather than
// held as process globals so a test can exercise arbitrary policy values
// deterministically.
type Config struct {
	// ContainersInTask is the fixed number of game-server containers
	// each launched task hosts.
	ContainersInTask int

	// TotalGameServersTargetMin is the baseline fleet size the scaler
	// maintains even when demand is otherwise satisfied.
	TotalGameServersTargetMin int

	// MaxGameServersToStart caps how many containers' worth of capacity
	// a single tick may launch.
	MaxGameServersToStart int

	// AvailableGameServersTargetPercentage is the fraction of the fleet
	// that should sit idle (available + available-priority) at any time.
	AvailableGameServersTargetPercentage float64

	// MaxPlayers is the per-server capacity seeded into newly launched
	// servers' registry entries.
	MaxPlayers int

	// ServerStartupGracePeriod is the TTL given to a seeded,
	// not-yet-ready available-bucket entry.
	ServerStartupGracePeriod time.Duration

	// IntegrityMultiplier is the ratio of expected to registered
	// containers above which the scaler refuses to launch, on the
	// assumption the server binary is broken and not reporting in.
	IntegrityMultiplier int

	// TickDuration is how long a single autoscaler invocation runs its
	// inner measure-decide-launch loop before yielding.
	TickDuration time.Duration

	// InnerCadence is the sleep between inner-loop iterations within a
	// single tick.
	InnerCadence time.Duration
}

// DefaultConfig returns the policy constants fixed at deploy time.
func DefaultConfig() Config {
	return Config{
		ContainersInTask:                     10,
		TotalGameServersTargetMin:            30,
		MaxGameServersToStart:                30,
		AvailableGameServersTargetPercentage: 0.20,
		MaxPlayers:                           2,
		ServerStartupGracePeriod:             60 * time.Second,
		IntegrityMultiplier:                  3,
		TickDuration:                         58 * time.Second,
		InnerCadence:                         2 * time.Second,
	}
}
