// Package api exposes the control plane's four entry points (session
// requests, heartbeats, drain checks, and on-demand scaling) as HTTP
// handlers on a gin.Engine, all bundled in one Handlers struct. Internal
// errors are logged and never leaked past the HTTP boundary.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mooncorn/gshub-fleet-controlplane/internal/allocator"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/autoscaler"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/drain"
	"github.com/mooncorn/gshub-fleet-controlplane/internal/heartbeat"
)

// Handlers bundles the four control-plane entry points, each backed by
// one of the core components.
type Handlers struct {
	allocator *allocator.Allocator
	heartbeat *heartbeat.Handler
	drain     *drain.Checker
	scaler    *autoscaler.Loop
	logger    *zap.Logger
}

// NewHandlers builds a Handlers bundle over the already-constructed
// components; cmd/controlplane owns their lifecycle.
func NewHandlers(a *allocator.Allocator, h *heartbeat.Handler, d *drain.Checker, s *autoscaler.Loop, logger *zap.Logger) *Handlers {
	return &Handlers{allocator: a, heartbeat: h, drain: d, scaler: s, logger: logger}
}

// RegisterRoutes registers the health check and the four invocation
// endpoints on r.
func (h *Handlers) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	r.POST("/v1/sessions", h.RequestGameSession)
	r.POST("/v1/heartbeats", h.UpdateRedis)
	r.GET("/v1/tasks/:taskArn/drained", h.CheckTaskStatus)
	r.POST("/v1/scale", h.ScaleNow)
}

// RequestGameSession reserves a slot on an available server and returns
// its public address, or 500 with the failure body below if no server
// had capacity.
func (h *Handlers) RequestGameSession(c *gin.Context) {
	addr, err := h.allocator.Allocate(c.Request.Context())
	if err != nil {
		h.logger.Warn("no capacity for session request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"failed": "couldnt find a free server spot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicIP": addr.PublicIP, "port": addr.Port})
}

// heartbeatRequest is the wire shape of a heartbeat posted by a running
// game server.
type heartbeatRequest struct {
	ServerInUse      bool   `json:"serverInUse"`
	TaskArn          string `json:"taskArn" binding:"required"`
	CurrentPlayers   int    `json:"currentPlayers"`
	MaxPlayers       int    `json:"maxPlayers"`
	Ready            bool   `json:"ready"`
	PublicIP         string `json:"publicIP"`
	Port             string `json:"port"`
	ServerTerminated bool   `json:"serverTerminated"`
}

// UpdateRedis applies a heartbeat to the fleet registry. Only a
// malformed request body (missing taskArn) is reported to the caller;
// every internal error is logged and swallowed, and the handler always
// answers 204 otherwise, since the server will simply retry on its next
// heartbeat.
func (h *Handlers) UpdateRedis(c *gin.Context) {
	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := heartbeat.Report{
		ServerInUse:      req.ServerInUse,
		TaskArn:          req.TaskArn,
		CurrentPlayers:   req.CurrentPlayers,
		MaxPlayers:       req.MaxPlayers,
		Ready:            req.Ready,
		PublicIP:         req.PublicIP,
		Port:             req.Port,
		ServerTerminated: req.ServerTerminated,
	}

	if err := h.heartbeat.Handle(c.Request.Context(), report); err != nil {
		h.logger.Error("heartbeat handling failed", zap.String("taskArn", req.TaskArn), zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

// CheckTaskStatus reports whether a task has fully drained, for the
// orchestrator's pre-stop hook to decide whether it is safe to recycle.
func (h *Handlers) CheckTaskStatus(c *gin.Context) {
	taskArn := c.Param("taskArn")
	drained, err := h.drain.IsDrained(c.Request.Context(), taskArn)
	if err != nil {
		h.logger.Error("drain check failed", zap.String("taskArn", taskArn), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "drain check failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"drained": drained})
}

// ScaleNow runs one autoscaler tick synchronously, for operator-triggered
// scale-now semantics, distinct from the background ticker
// cmd/controlplane starts at boot.
func (h *Handlers) ScaleNow(c *gin.Context) {
	h.scaler.Tick(c.Request.Context())
	c.Status(http.StatusAccepted)
}
