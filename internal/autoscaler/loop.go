// Package autoscaler periodically measures fleet capacity against
// observed demand and launches new tasks to close any shortfall,
// seeding their containers into the registry immediately so the
// allocator can see pending capacity before the servers themselves ever
// heartbeat.
package autoscaler

import (
	"context"
	"fmt"
	"time"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/clock"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/ctlerr"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/models"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/orchestrator"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/registry"
	"go.uber.org/zap"
)

// TaskDefResolver resolves the task definition ARN to launch against,
// called once per tick rather than cached across ticks so a deploy
// template change is picked up on the next invocation without a restart.
type TaskDefResolver func(ctx context.Context) (string, error)

// Loop is the autoscaler's periodic tick driver.
type Loop struct {
	store      registry.Store
	orch       orchestrator.Orchestrator
	resolveDef TaskDefResolver
	cfg        Config
	clock      clock.Clock
	logger     *zap.Logger

	done   chan struct{}
	ticker *time.Ticker
}

// New builds a Loop. cfg is explicit rather than defaulted internally so
// tests can drive arbitrary policy values.
func New(store registry.Store, orch orchestrator.Orchestrator, resolveDef TaskDefResolver, cfg Config, c clock.Clock, logger *zap.Logger) *Loop {
	return &Loop{
		store:      store,
		orch:       orch,
		resolveDef: resolveDef,
		cfg:        cfg,
		clock:      c,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start begins the background ticking loop, calling Tick once per
// cfg.TickDuration until Stop is called.
func (l *Loop) Start(ctx context.Context) {
	l.ticker = time.NewTicker(l.cfg.TickDuration)
	go l.run(ctx)
	l.logger.Info("autoscaler started", zap.Duration("tick", l.cfg.TickDuration))
}

// Stop halts the ticking loop.
func (l *Loop) Stop() {
	if l.ticker != nil {
		l.ticker.Stop()
	}
	close(l.done)
	l.logger.Info("autoscaler stopped")
}

func (l *Loop) run(ctx context.Context) {
	for {
		select {
		case <-l.done:
			return
		case <-l.ticker.C:
			l.Tick(ctx)
		}
	}
}

// Tick runs the inner measure-decide-launch loop for roughly
// cfg.TickDuration, sleeping cfg.InnerCadence between iterations. Every
// error within an iteration is logged and swallowed, so a single bad
// iteration never aborts the tick: the kinds ctlerr.Transient recognizes
// are logged at warn level, and any other error (registry or
// orchestrator I/O failures, the integrity brake) at error level, but it
// still does not escape, keeping user-visible failures confined to the
// allocator's entry point.
func (l *Loop) Tick(ctx context.Context) {
	if l.resolveDef != nil {
		arn, err := l.resolveDef(ctx)
		if err != nil {
			l.logger.Error("failed to resolve task definition, skipping tick", zap.Error(err))
			return
		}
		l.orch.SetTaskDefinition(arn)
	}

	deadline := l.clock.Now().Add(l.cfg.TickDuration)

	for l.clock.Now().Before(deadline) {
		if err := l.iterate(ctx); err != nil {
			if ctlerr.Transient(err) {
				l.logger.Warn("autoscaler iteration skipped", zap.Error(err))
			} else {
				l.logger.Error("autoscaler iteration failed", zap.Error(err))
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.cfg.InnerCadence):
		}
	}
}

func (l *Loop) iterate(ctx context.Context) error {
	tasks, err := l.orch.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("autoscaler: list tasks: %w", err)
	}
	expected := len(tasks) * l.cfg.ContainersInTask

	c, err := l.observeRegistry(ctx)
	if err != nil {
		return fmt.Errorf("autoscaler: observe registry: %w", err)
	}

	d := computeDecision(l.cfg, expected, c)
	if !d.launch {
		l.logger.Warn("integrity brake engaged, skipping launch",
			zap.Int("expected", expected),
			zap.Int("total", c.total()))
		return ctlerr.ErrIntegrityFailure
	}

	if d.tasksToStart == 0 {
		return nil
	}

	launched, err := l.orch.LaunchTasks(ctx, d.tasksToStart)
	if err != nil {
		return fmt.Errorf("autoscaler: launch tasks: %w", err)
	}

	if err := l.seedRegistry(ctx, launched); err != nil {
		return fmt.Errorf("autoscaler: seed registry: %w", err)
	}

	l.logger.Info("launched tasks",
		zap.Int("tasks", len(launched)),
		zap.Int("container_deficit", d.containerDeficit))

	return nil
}

func (l *Loop) observeRegistry(ctx context.Context) (counts, error) {
	available, err := l.store.Scan(ctx, registry.BucketPattern(models.BucketAvailable))
	if err != nil {
		return counts{}, err
	}
	availablePriority, err := l.store.Scan(ctx, registry.BucketPattern(models.BucketAvailablePriority))
	if err != nil {
		return counts{}, err
	}
	active, err := l.store.Scan(ctx, registry.BucketPattern(models.BucketActive))
	if err != nil {
		return counts{}, err
	}
	full, err := l.store.Scan(ctx, registry.BucketPattern(models.BucketFull))
	if err != nil {
		return counts{}, err
	}

	return counts{
		available:         len(available),
		availablePriority: len(availablePriority),
		active:            len(active),
		full:              len(full),
	}, nil
}

// seedRegistry creates one available-bucket entry per container of each
// launched task, ready=0, so the allocator sees pending capacity without
// being able to claim it until the server's first heartbeat flips
// ready=1.
func (l *Loop) seedRegistry(ctx context.Context, launched []orchestrator.LaunchedTask) error {
	for _, task := range launched {
		containerCount := task.ContainerCount
		if containerCount == 0 {
			containerCount = l.cfg.ContainersInTask
		}
		for i := 0; i < containerCount; i++ {
			cid := registry.ContainerID(task.TaskArn, i)
			key := models.BucketAvailable.Key(cid)

			if err := l.store.HSet(ctx, key, map[string]interface{}{
				"server-id":       cid,
				"current-players": 0,
				"max-players":     l.cfg.MaxPlayers,
				"ready":           false,
			}); err != nil {
				return err
			}
			if err := l.store.Expire(ctx, key, int(l.cfg.ServerStartupGracePeriod.Seconds())); err != nil {
				return err
			}
		}
	}
	return nil
}
