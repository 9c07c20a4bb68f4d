// Package orchestrator wraps the external container orchestrator (AWS
// ECS on Fargate) that actually runs game-server containers. The
// autoscaler is the only caller.
package orchestrator

// Task is one running container group, as reported by ListTasks.
type Task struct {
	TaskArn    string
	Containers int
}

// LaunchedTask is one task launched by LaunchTasks, enumerating the
// container ordinals the autoscaler must seed into the registry.
type LaunchedTask struct {
	TaskArn        string
	ContainerCount int
}
