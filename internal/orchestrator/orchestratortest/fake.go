// Package orchestratortest provides an in-memory Orchestrator used by
// autoscaler tests so they can assert on launch counts without a real
// ECS cluster.
package orchestratortest

import (
	"context"
	"fmt"
	"sync"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/orchestrator"
)

// Fake is a mutex-guarded in-memory Orchestrator.
type Fake struct {
	mu             sync.Mutex
	tasks          []orchestrator.Task
	ContainersPer  int
	LaunchCalls    []int
	taskDefinition string
	nextTaskID     int
}

// New returns a Fake seeded with the given running tasks, each reporting
// containersPer containers (used to compute `expected` in tests).
func New(runningTasks int, containersPer int) *Fake {
	f := &Fake{ContainersPer: containersPer}
	for i := 0; i < runningTasks; i++ {
		f.tasks = append(f.tasks, orchestrator.Task{
			TaskArn:    fmt.Sprintf("arn:aws:ecs:task/seed-%d", i),
			Containers: containersPer,
		})
	}
	f.nextTaskID = runningTasks
	return f
}

func (f *Fake) ListTasks(ctx context.Context) ([]orchestrator.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]orchestrator.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *Fake) LaunchTasks(ctx context.Context, n int) ([]orchestrator.LaunchedTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.LaunchCalls = append(f.LaunchCalls, n)

	var launched []orchestrator.LaunchedTask
	for i := 0; i < n; i++ {
		arn := fmt.Sprintf("arn:aws:ecs:task/new-%d", f.nextTaskID)
		f.nextTaskID++
		f.tasks = append(f.tasks, orchestrator.Task{TaskArn: arn, Containers: f.ContainersPer})
		launched = append(launched, orchestrator.LaunchedTask{TaskArn: arn, ContainerCount: f.ContainersPer})
	}
	return launched, nil
}

func (f *Fake) SetTaskDefinition(arn string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.taskDefinition = arn
}

// TotalLaunched sums every n passed to LaunchTasks across calls, i.e.
// the total number of tasks launched.
func (f *Fake) TotalLaunched() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, n := range f.LaunchCalls {
		total += n
	}
	return total
}

var _ orchestrator.Orchestrator = (*Fake)(nil)
