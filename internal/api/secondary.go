package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/replicatedlog/internal/metrics"
	"github.com/you/replicatedlog/internal/model"
	"github.com/you/replicatedlog/internal/secondary"
)

// SecondaryHandler exposes a secondary's client-facing, debug, and
// peer-facing (/rpc/...) endpoints.
type SecondaryHandler struct {
	applier *secondary.Applier
	metrics *metrics.Metrics
}

// NewSecondaryHandler creates a SecondaryHandler.
func NewSecondaryHandler(a *secondary.Applier, met *metrics.Metrics) *SecondaryHandler {
	return &SecondaryHandler{applier: a, metrics: met}
}

// Register mounts every secondary route on r.
func (h *SecondaryHandler) Register(r *gin.Engine) {
	r.GET("/logs", h.Logs)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	r.GET("/debug/missed", h.DebugMissed)

	rpc := r.Group("/rpc")
	rpc.POST("/replicate", h.Replicate)
	rpc.POST("/heartbeat", h.Heartbeat)
	rpc.POST("/missed_logs", h.MissedLogs)
}

// Logs handles GET /logs, returning this secondary's contiguous applied
// prefix.
func (h *SecondaryHandler) Logs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": h.applier.ReadLog()})
}

// Health handles GET /health, exposing this secondary's apply bookkeeping.
func (h *SecondaryHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.applier.HealthStatus())
}

// DebugMissed handles GET /debug/missed?since=<id>, an operator-facing
// window onto the same backlog GetMissedLogs serves to peers over RPC.
func (h *SecondaryHandler) DebugMissed(c *gin.Context) {
	since, err := parseSinceParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": h.applier.GetMissedLogs(since)})
}

// Replicate handles POST /rpc/replicate: the primary (or a resync task)
// delivering one log entry.
func (h *SecondaryHandler) Replicate(c *gin.Context) {
	var entry model.LogEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	success, message := h.applier.Replicate(entry.ID, entry.Payload)
	c.JSON(http.StatusOK, model.LogAck{Success: success, Message: message})
}

// Heartbeat handles POST /rpc/heartbeat: the primary checking liveness and
// apply position.
func (h *SecondaryHandler) Heartbeat(c *gin.Context) {
	var req model.HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.applier.Heartbeat(req.SecondaryName))
}

// MissedLogs handles POST /rpc/missed_logs: bulk catch-up delivery to a
// peer (kept for symmetry with the spec's RPC surface; the primary's own
// resync currently reads its local log directly instead of calling this).
func (h *SecondaryHandler) MissedLogs(c *gin.Context) {
	var req model.MissedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msgs := h.applier.GetMissedLogs(req.LastReceivedID)
	entries := make([]model.LogEntry, len(msgs))
	for i, m := range msgs {
		entries[i] = m.ToEntry()
	}
	c.JSON(http.StatusOK, model.MissedResponse{Entries: entries})
}
