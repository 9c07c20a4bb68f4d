package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
)

// ecsBatchSize is the soft API cap the autoscaler's launch step respects:
// RunTask accepts a count but the control plane issues calls in batches of
// this size so a single launch doesn't risk the service-level throttle.
const ecsBatchSize = 10

// Client is the typed ECS/Fargate wrapper every autoscaler call goes
// through.
type Client struct {
	ecs            *ecs.Client
	cluster        string
	subnets        []string
	securityGroup  string
	taskDefinition string
}

// NewClient builds an orchestrator Client from an AWS config and the
// network parameters the autoscaler was configured with. taskDefinition
// is resolved separately via ResolveTaskDefinition and set with
// SetTaskDefinition before the first LaunchTasks call.
func NewClient(ecsClient *ecs.Client, cluster string, subnets []string, securityGroup string) *Client {
	return &Client{
		ecs:           ecsClient,
		cluster:       cluster,
		subnets:       subnets,
		securityGroup: securityGroup,
	}
}

// SetTaskDefinition records the task definition ARN to launch against.
// The spec resolves this once per autoscaler invocation, before entering
// the tick loop, rather than on every LaunchTasks call.
func (c *Client) SetTaskDefinition(arn string) {
	c.taskDefinition = arn
}

// ListTasks paginates through every running task in the target cluster
// and returns the per-task container count (derived from the task's
// container list, not merely its definition, so partially-stopped tasks
// are reported accurately).
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var arns []string

	paginator := ecs.NewListTasksPaginator(c.ecs, &ecs.ListTasksInput{
		Cluster:       aws.String(c.cluster),
		DesiredStatus: types.DesiredStatusRunning,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: list tasks: %w", err)
		}
		arns = append(arns, page.TaskArns...)
	}

	if len(arns) == 0 {
		return nil, nil
	}

	var tasks []Task
	for _, chunk := range chunkStrings(arns, 100) {
		out, err := c.ecs.DescribeTasks(ctx, &ecs.DescribeTasksInput{
			Cluster: aws.String(c.cluster),
			Tasks:   chunk,
		})
		if err != nil {
			return nil, fmt.Errorf("orchestrator: describe tasks: %w", err)
		}
		for _, t := range out.Tasks {
			tasks = append(tasks, Task{
				TaskArn:    aws.ToString(t.TaskArn),
				Containers: len(t.Containers),
			})
		}
	}

	return tasks, nil
}

// LaunchTasks requests n new tasks from the resolved task definition, in
// batches of ecsBatchSize (the final batch holding the remainder), and
// returns each launched task's arn and container count.
func (c *Client) LaunchTasks(ctx context.Context, n int) ([]LaunchedTask, error) {
	if c.taskDefinition == "" {
		return nil, fmt.Errorf("orchestrator: launch tasks: task definition not resolved")
	}
	if n <= 0 {
		return nil, nil
	}

	var launched []LaunchedTask
	for remaining := n; remaining > 0; {
		batch := ecsBatchSize
		if remaining < batch {
			batch = remaining
		}
		remaining -= batch

		out, err := c.ecs.RunTask(ctx, &ecs.RunTaskInput{
			Cluster:        aws.String(c.cluster),
			TaskDefinition: aws.String(c.taskDefinition),
			Count:          aws.Int32(int32(batch)),
			LaunchType:     types.LaunchTypeFargate,
			NetworkConfiguration: &types.NetworkConfiguration{
				AwsvpcConfiguration: &types.AwsVpcConfiguration{
					Subnets:        c.subnets,
					SecurityGroups: []string{c.securityGroup},
					AssignPublicIp: types.AssignPublicIpEnabled,
				},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("orchestrator: run task: %w", err)
		}

		for _, t := range out.Tasks {
			launched = append(launched, LaunchedTask{
				TaskArn:        aws.ToString(t.TaskArn),
				ContainerCount: len(t.Containers),
			})
		}
	}

	return launched, nil
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}
