package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

// ContextUserKey is the gin context key storing the resolved viewer.
const ContextUserKey = "currentUser"

type viewerAuthenticator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
	Resolve(viewer models.Viewer) (models.Viewer, error)
}

// JWT protects routes by requiring a valid access token. The token's viewer is re-resolved
// against current data on every request.
func JWT(auth viewerAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		viewer, err := auth.Resolve(claims.Viewer)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, viewer)
		c.Next()
	}
}

// ViewerFromContext returns the viewer stored by JWT.
func ViewerFromContext(c *gin.Context) (models.Viewer, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return models.Viewer{}, false
	}
	viewer, ok := value.(models.Viewer)
	return viewer, ok
}
