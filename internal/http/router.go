package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"companion-api/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	companionH *CompanionHandler,
	authH *AuthHandler,
	renderH *RenderHandler,
	healthH *HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/healthz", healthH.Health)
	r.GET("/render/version", renderH.Version)
	r.POST("/auth/refresh", authH.Refresh)

	api := r.Group("", IdentityMiddleware(jwtSvc))

	companions := api.Group("/companions")
	companions.POST("", RequireViewer(), companionH.CreateCompanion)
	companions.GET("", companionH.ListCompanions)
	companions.GET("/permissions", RequireViewer(), companionH.Permissions)
	companions.GET("/:id", companionH.GetCompanion)
	companions.DELETE("/:id", RequireViewer(), companionH.DeleteCompanion)
	companions.POST("/:id/sessions", companionH.StartSession)
	companions.POST("/:id/bookmark", companionH.AddBookmark)
	companions.DELETE("/:id/bookmark", companionH.RemoveBookmark)

	api.GET("/sessions/recent", companionH.RecentSessions)

	users := api.Group("/users/:userId")
	users.GET("/sessions", companionH.UserSessions)
	users.GET("/companions", companionH.UserCompanions)
	users.GET("/bookmarks", companionH.UserBookmarks)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
