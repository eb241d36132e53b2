package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	started  time.Time
	sessions func() int
	pending  func() int
}

// NewHealthHandler reports live session and queued LLM call counts.
func NewHealthHandler(sessions, pending func() int) *HealthHandler {
	return &HealthHandler{started: time.Now(), sessions: sessions, pending: pending}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptimeSeconds":  int64(time.Since(h.started).Seconds()),
		"activeSessions": h.sessions(),
		"pendingLLM":     h.pending(),
	})
}
