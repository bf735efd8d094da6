package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-api/internal/db"
)

type HealthHandler struct {
	logger *zap.Logger
	pinger db.Pinger
}

func NewHealthHandler(logger *zap.Logger, pinger db.Pinger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{logger: logger, pinger: pinger}
}

// Health maneja GET /healthz.
func (h *HealthHandler) Health(c *gin.Context) {
	if h.pinger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := db.Ping(ctx, h.pinger); err != nil {
		h.logger.Warn("health ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
