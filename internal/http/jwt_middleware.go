package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"companion-api/internal/domain"
	"companion-api/internal/service"
)

const viewerKey = "viewer"

// IdentityMiddleware resuelve el viewer de la request. Sin header Authorization la request
// sigue como anonima; un token presente pero invalido se rechaza con 401.
func IdentityMiddleware(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Set(viewerKey, domain.Anonymous())
			c.Next()
			return
		}

		if jwtSvc == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt not configured"})
			c.Abort()
			return
		}
		if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(viewerKey, claims.Viewer())
		c.Next()
	}
}

// RequireViewer corta con 401 las requests anonimas.
func RequireViewer() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetViewer(c).Authenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetViewer obtiene el viewer del contexto; si no hay, devuelve un anonimo.
func GetViewer(c *gin.Context) domain.Viewer {
	val, ok := c.Get(viewerKey)
	if !ok {
		return domain.Anonymous()
	}
	viewer, ok := val.(domain.Viewer)
	if !ok {
		return domain.Anonymous()
	}
	return viewer
}
