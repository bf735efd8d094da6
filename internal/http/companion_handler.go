package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-api/internal/domain"
	"companion-api/internal/service"
)

const defaultBookmarkPath = "/companions"

// CompanionHandler expone companions, historial de sesiones y favoritos.
type CompanionHandler struct {
	logger *zap.Logger
	svc    *service.CompanionService
}

func NewCompanionHandler(logger *zap.Logger, svc *service.CompanionService) *CompanionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanionHandler{logger: logger, svc: svc}
}

// CreateCompanion maneja POST /companions.
func (h *CompanionHandler) CreateCompanion(c *gin.Context) {
	var req service.CreateCompanionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create companion request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	companion, err := h.svc.CreateCompanion(c.Request.Context(), GetViewer(c), req)
	if err != nil {
		h.respondError(c, "create companion", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"companion": companion})
}

// ListCompanions maneja GET /companions?limit=&page=&subject=&topic=.
func (h *CompanionHandler) ListCompanions(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}

	list, err := h.svc.ListCompanions(c.Request.Context(), GetViewer(c), domain.CompanionFilter{
		Limit:   limit,
		Page:    page,
		Subject: c.Query("subject"),
		Topic:   c.Query("topic"),
	})
	if err != nil {
		h.respondError(c, "list companions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companions": list})
}

// Permissions maneja GET /companions/permissions.
func (h *CompanionHandler) Permissions(c *gin.Context) {
	allowed, err := h.svc.NewCompanionPermissions(c.Request.Context(), GetViewer(c))
	if err != nil {
		h.respondError(c, "companion permissions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"can_create": allowed})
}

// GetCompanion maneja GET /companions/:id.
func (h *CompanionHandler) GetCompanion(c *gin.Context) {
	companion, err := h.svc.GetCompanion(c.Request.Context(), GetViewer(c), c.Param("id"))
	if err != nil {
		h.respondError(c, "get companion", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companion": companion})
}

// DeleteCompanion maneja DELETE /companions/:id. Responde 200 aunque no se borre nada.
func (h *CompanionHandler) DeleteCompanion(c *gin.Context) {
	n, err := h.svc.DeleteCompanion(c.Request.Context(), GetViewer(c), c.Param("id"))
	if err != nil {
		h.respondError(c, "delete companion", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

// StartSession maneja POST /companions/:id/sessions.
func (h *CompanionHandler) StartSession(c *gin.Context) {
	entry, err := h.svc.AddToSessionHistory(c.Request.Context(), GetViewer(c), c.Param("id"))
	if err != nil {
		h.respondError(c, "add session history", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": entry})
}

// AddBookmark maneja POST /companions/:id/bookmark con body opcional {"path": "..."}.
func (h *CompanionHandler) AddBookmark(c *gin.Context) {
	var req struct {
		Path string `json:"path"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("invalid bookmark request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
	}
	if req.Path == "" {
		req.Path = defaultBookmarkPath
	}

	viewer := GetViewer(c)
	if err := h.svc.AddBookmark(c.Request.Context(), viewer, c.Param("id"), req.Path); err != nil {
		h.respondError(c, "add bookmark", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarked": viewer.Authenticated()})
}

// RemoveBookmark maneja DELETE /companions/:id/bookmark?path=.
func (h *CompanionHandler) RemoveBookmark(c *gin.Context) {
	path := c.DefaultQuery("path", defaultBookmarkPath)
	if err := h.svc.RemoveBookmark(c.Request.Context(), GetViewer(c), c.Param("id"), path); err != nil {
		h.respondError(c, "remove bookmark", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarked": false})
}

// RecentSessions maneja GET /sessions/recent?limit=.
func (h *CompanionHandler) RecentSessions(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	list, err := h.svc.GetRecentSessions(c.Request.Context(), GetViewer(c), limit)
	if err != nil {
		h.respondError(c, "recent sessions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companions": list})
}

// UserSessions maneja GET /users/:userId/sessions?limit=.
func (h *CompanionHandler) UserSessions(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	list, err := h.svc.GetUserSessions(c.Request.Context(), c.Param("userId"), limit)
	if err != nil {
		h.respondError(c, "user sessions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companions": list})
}

// UserCompanions maneja GET /users/:userId/companions.
func (h *CompanionHandler) UserCompanions(c *gin.Context) {
	list, err := h.svc.GetUserCompanions(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, "user companions", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companions": list})
}

// UserBookmarks maneja GET /users/:userId/bookmarks.
func (h *CompanionHandler) UserBookmarks(c *gin.Context) {
	list, err := h.svc.GetBookmarkedCompanions(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, "user bookmarks", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companions": list})
}

func (h *CompanionHandler) respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
	case errors.Is(err, service.ErrCompanionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "companion not found"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	case errors.Is(err, service.ErrCompanionServiceNotConfigured):
		h.logger.Error(op+" failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "companions unavailable"})
	default:
		h.logger.Error(op+" failed", zap.Error(err), zap.Bool("store_error", service.IsStoreError(err)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not " + op})
	}
}

// queryInt lee un entero opcional de la query. Si no parsea responde 400 y devuelve false.
func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return v, true
}
