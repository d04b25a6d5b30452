package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

// RequireCapabilities lets the request through only when the viewer holds every capability.
func RequireCapabilities(capabilities ...models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, ok := ViewerFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, capability := range capabilities {
			if !viewer.Can(capability) {
				response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "missing permission "+string(capability)))
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// RequireKinds restricts a route to the given viewer kinds.
func RequireKinds(kinds ...models.ViewerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer, ok := ViewerFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		for _, kind := range kinds {
			if viewer.Kind == kind {
				c.Next()
				return
			}
		}
		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
