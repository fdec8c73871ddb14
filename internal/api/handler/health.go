package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/kbsync/internal/api/middleware"
)

const healthTimeout = 2 * time.Second

// Pinger checks that the report store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the API can serve reports.
type HealthHandler struct {
	store Pinger
}

// NewHealthHandler creates a health handler probing store.
func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health handles GET /health: 200 when the report store answers, 503 otherwise.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		middleware.GetLogger(c).WithError(err).Warn("Report store unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":       "unavailable",
			"report_store": "unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"report_store": "ok",
	})
}
