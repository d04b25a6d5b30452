package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

// viewerFromContext writes a 401 and returns false when the request carries no viewer.
func viewerFromContext(c *gin.Context) (models.Viewer, bool) {
	viewer, ok := middleware.ViewerFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Viewer{}, false
	}
	return viewer, true
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}
