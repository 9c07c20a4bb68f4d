package orchestrator

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
)

// SDK bundles the two AWS service clients the control plane talks to.
// cmd/controlplane builds one of these at startup and passes it to the
// orchestrator and autoscaler constructors.
type SDK struct {
	ECS            *ecs.Client
	CloudFormation *cloudformation.Client
}

// LoadSDK resolves credentials and region the standard AWS SDK way
// (environment, shared config file, or the instance's task role when
// running on Fargate itself) and builds the two clients needed.
func LoadSDK(ctx context.Context, region string) (*SDK, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load aws config: %w", err)
	}

	return &SDK{
		ECS:            ecs.NewFromConfig(cfg),
		CloudFormation: cloudformation.NewFromConfig(cfg),
	}, nil
}
