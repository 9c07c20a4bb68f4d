// Package config loads the control plane's runtime configuration from the
// environment, following the same fail-fast, no-magic-global style the
// rest of this codebase uses for its services.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the fully resolved set of values the control plane needs to
// start: where Redis lives, which ECS cluster and network to launch
// containers into, and the usual server/logging knobs.
type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Server
	Port    string
	GinMode string

	// Fleet registry (Redis)
	RedisEndpoint string
	RedisPassword string
	RedisDB       int

	// Orchestrator (ECS/Fargate)
	FargateClusterName string
	Subnets            []string
	SecurityGroup      string
	TaskDefStackName   string
	AWSRegion          string

	// Autoscaler
	ScalerTickInterval time.Duration
}

// Load builds a Config from the process environment, applying sane
// defaults where one exists and failing fast when a value has no safe
// default.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		Port:    getEnv("PORT", "8080"),
		GinMode: getEnv("GIN_MODE", "debug"),

		RedisEndpoint: getEnv("REDIS_ENDPOINT", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		FargateClusterName: getEnv("FARGATE_CLUSTER_NAME", ""),
		Subnets:            getEnvSlice("SUBNETS", nil),
		SecurityGroup:      getEnv("SECURITY_GROUP", ""),
		TaskDefStackName:   getEnv("TASK_DEF_STACK_NAME", "fargate-game-servers-task-definition"),
		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),

		ScalerTickInterval: parseDuration(getEnv("SCALER_TICK_INTERVAL", "58s"), 58*time.Second),
	}

	// SUBNET_1/SUBNET_2 mirror the two explicit env vars the original
	// scaler handler read; SUBNETS (comma-separated) takes precedence if
	// both are set.
	if len(cfg.Subnets) == 0 {
		var subnets []string
		if s := os.Getenv("SUBNET_1"); s != "" {
			subnets = append(subnets, s)
		}
		if s := os.Getenv("SUBNET_2"); s != "" {
			subnets = append(subnets, s)
		}
		cfg.Subnets = subnets
	}

	if cfg.FargateClusterName == "" {
		return nil, fmt.Errorf("FARGATE_CLUSTER_NAME is required")
	}
	if len(cfg.Subnets) == 0 {
		return nil, fmt.Errorf("at least one of SUBNETS, SUBNET_1, SUBNET_2 is required")
	}
	if cfg.SecurityGroup == "" {
		return nil, fmt.Errorf("SECURITY_GROUP is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func parseDuration(value string, defaultValue time.Duration) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
