package orchestrator

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

// taskDefinitionOutputKey is the CloudFormation stack output the task
// definition ARN is published under.
const taskDefinitionOutputKey = "TaskDefinition"

// ResolveTaskDefinition looks up the deploy template's TaskDefinition
// output for the given stack name. The autoscaler calls this once per
// invocation, before its tick loop, rather than caching it across
// invocations, so a task-definition rollout is picked up on the next
// scaler run without a restart.
func ResolveTaskDefinition(ctx context.Context, cfn *cloudformation.Client, stackName string) (string, error) {
	out, err := cfn.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{
		StackName: aws.String(stackName),
	})
	if err != nil {
		return "", fmt.Errorf("orchestrator: describe stack %q: %w", stackName, err)
	}
	if len(out.Stacks) == 0 {
		return "", fmt.Errorf("orchestrator: stack %q not found", stackName)
	}

	for _, output := range out.Stacks[0].Outputs {
		if aws.ToString(output.OutputKey) == taskDefinitionOutputKey {
			return aws.ToString(output.OutputValue), nil
		}
	}

	return "", fmt.Errorf("orchestrator: stack %q has no %s output", stackName, taskDefinitionOutputKey)
}
