package autoscaler

// counts is a snapshot of how many servers occupy each lifecycle bucket,
// gathered once per inner-loop iteration.
type counts struct {
	available         int
	availablePriority int
	active            int
	full              int
}

func (c counts) total() int {
	return c.available + c.availablePriority + c.active + c.full
}

func (c counts) availableTotal() int {
	return c.available + c.availablePriority
}

// decision is the outcome of one iteration's shortfall computation.
type decision struct {
	// launch is false when the integrity gate trips; no other field is
	// meaningful in that case.
	launch bool

	// containerDeficit is how many additional containers the fleet
	// needs, after the baseline override and the single-tick cap.
	containerDeficit int

	// tasksToStart is containerDeficit converted to whole tasks.
	tasksToStart int
}

// computeDecision runs the integrity gate and the shortfall-to-task-count
// conversion for one iteration.
//
// When the computed deficit rounds to zero but the under-20%-available
// condition fired, this treats it as a minimum nudge of 1 container
// rather than skipping the tick: a fleet sitting exactly on the edge of
// the threshold should still make forward progress every tick instead of
// stalling until pct_available drifts further below target.
func computeDecision(cfg Config, expected int, c counts) decision {
	total := c.total()

	if expected > cfg.IntegrityMultiplier*total {
		return decision{launch: false}
	}

	pctAvailable := 0.0
	if total > 0 {
		pctAvailable = float64(c.availableTotal()) / float64(total)
	}

	belowTarget := pctAvailable < cfg.AvailableGameServersTargetPercentage
	belowBaseline := total < cfg.TotalGameServersTargetMin

	if !belowTarget && !belowBaseline {
		return decision{launch: true, containerDeficit: 0, tasksToStart: 0}
	}

	deficit := int((cfg.AvailableGameServersTargetPercentage - pctAvailable) * float64(total))
	if deficit <= 0 {
		deficit = 1
	}

	if belowBaseline {
		deficit = cfg.TotalGameServersTargetMin - total
	}

	if deficit > cfg.MaxGameServersToStart {
		deficit = cfg.MaxGameServersToStart
	}

	tasks := deficit / cfg.ContainersInTask
	if deficit > 0 && tasks == 0 {
		tasks = 1
	}

	return decision{launch: true, containerDeficit: deficit, tasksToStart: tasks}
}
