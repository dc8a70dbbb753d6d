// Package api wires up the Gin HTTP router with all handler functions, for
// both the primary and secondary roles. Grounded on the teacher's
// internal/api/handlers.go (Handler struct + Register method shape),
// replacing the KV store's /kv, /cluster, /internal surface with the
// replicated log's client-facing and peer-facing surface.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/you/replicatedlog/internal/metrics"
	"github.com/you/replicatedlog/internal/model"
	"github.com/you/replicatedlog/internal/primary"
)

// PrimaryHandler exposes the primary node's client-facing and internal
// endpoints.
type PrimaryHandler struct {
	manager *primary.Manager
	metrics *metrics.Metrics
}

// NewPrimaryHandler creates a PrimaryHandler.
func NewPrimaryHandler(m *primary.Manager, met *metrics.Metrics) *PrimaryHandler {
	return &PrimaryHandler{manager: m, metrics: met}
}

// Register mounts every primary route on r.
func (h *PrimaryHandler) Register(r *gin.Engine) {
	r.POST("/send_log", h.SendLog)
	r.GET("/logs", h.Logs)
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
}

// SendLog handles POST /send_log.
// Body: {"message": "<string>", "w": <int, optional>}
func (h *PrimaryHandler) SendLog(c *gin.Context) {
	var body struct {
		Message string `json:"message" binding:"required"`
		W       int    `json:"w"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if body.W == 0 {
		body.W = 1
	}

	result, err := h.manager.Append(body.Message, body.W)
	if err != nil {
		switch {
		case errors.Is(err, primary.ErrReadOnly):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		case errors.Is(err, primary.ErrInvalidW):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if result.Status == model.Committed {
		c.JSON(http.StatusOK, gin.H{
			"status":     http.StatusOK,
			"acks":       result.Acks,
			"message_id": result.ID,
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":     http.StatusAccepted,
		"acks":       result.Acks,
		"message_id": result.ID,
		"message":    fmt.Sprintf("Accepted but only %d/%d acks received", result.Acks, body.W),
	})
}

// Logs handles GET /logs, returning the primary's own log. Per design note
// this never reads through to a secondary.
func (h *PrimaryHandler) Logs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"logs": h.manager.ReadLog()})
}

// Health handles GET /health: read-only mode plus every secondary's
// classified status.
func (h *PrimaryHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Health())
}

// parseSinceParam reads an optional ?since= query parameter used by the
// secondary's debug endpoint, defaulting to 0.
func parseSinceParam(c *gin.Context) (uint64, error) {
	raw := c.Query("since")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}
