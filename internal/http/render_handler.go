package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-api/internal/service"
)

// RenderHandler expone la version de staleness de cada ruta para que los clientes sepan
// cuando refrescar.
type RenderHandler struct {
	logger *zap.Logger
	stale  service.StaleTracker
}

func NewRenderHandler(logger *zap.Logger, stale service.StaleTracker) *RenderHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RenderHandler{logger: logger, stale: stale}
}

// Version maneja GET /render/version?path=.
func (h *RenderHandler) Version(c *gin.Context) {
	path := service.NormalizePath(c.Query("path"))
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	if h.stale == nil {
		c.JSON(http.StatusOK, gin.H{"path": path, "version": 0})
		return
	}

	version, err := h.stale.Version(c.Request.Context(), path)
	if err != nil {
		h.logger.Error("render version failed", zap.String("path", path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read version"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "version": version})
}
