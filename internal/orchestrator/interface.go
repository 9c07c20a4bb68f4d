package orchestrator

import "context"

// Orchestrator is the surface the autoscaler depends on. *Client satisfies it against real ECS; orchestratortest.Fake
// satisfies it in memory for unit tests.
type Orchestrator interface {
	ListTasks(ctx context.Context) ([]Task, error)
	LaunchTasks(ctx context.Context, n int) ([]LaunchedTask, error)
	SetTaskDefinition(arn string)
}

var _ Orchestrator = (*Client)(nil)
