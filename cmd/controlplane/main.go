// Command controlplane is the standalone server for the game-server
// fleet control plane: it answers session requests, ingests heartbeats,
// reports drain status, and runs the background autoscaler loop, all
// behind one gin.Engine.
package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/allocator"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/api"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/autoscaler"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/clock"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/config"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/drain"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/heartbeat"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/logging"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/orchestrator"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/registry"
)

func main() {
	// Load .env file (ignore error in production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	store := registry.New(registry.Options{
		Addr:     cfg.RedisEndpoint,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		logger.Fatal("failed to connect to fleet registry", zap.Error(err))
	}
	logger.Info("connected to fleet registry", zap.String("endpoint", cfg.RedisEndpoint))

	sdk, err := orchestrator.LoadSDK(ctx, cfg.AWSRegion)
	if err != nil {
		logger.Fatal("failed to load AWS SDK config", zap.Error(err))
	}
	orch := orchestrator.NewClient(sdk.ECS, cfg.FargateClusterName, cfg.Subnets, cfg.SecurityGroup)

	resolveTaskDef := func(ctx context.Context) (string, error) {
		return orchestrator.ResolveTaskDefinition(ctx, sdk.CloudFormation, cfg.TaskDefStackName)
	}

	clk := clock.Real{}
	allocatorSvc := allocator.New(store, clk)
	heartbeatSvc := heartbeat.New(store, clk)
	drainSvc := drain.New(store)

	scalerCfg := autoscaler.DefaultConfig()
	scalerCfg.TickDuration = cfg.ScalerTickInterval
	scalerLoop := autoscaler.New(store, orch, resolveTaskDef, scalerCfg, clk, logger)
	scalerLoop.Start(ctx)
	defer scalerLoop.Stop()
	logger.Info("autoscaler loop started", zap.Duration("tick", scalerCfg.TickDuration))

	handlers := api.NewHandlers(allocatorSvc, heartbeatSvc, drainSvc, scalerLoop, logger)

	gin.SetMode(cfg.GinMode)
	r := gin.Default()
	handlers.RegisterRoutes(r)

	logger.Info("starting control plane", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("control plane server failed", zap.Error(err))
	}
}
