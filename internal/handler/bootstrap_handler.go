package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type bootstrapService interface {
	Load(ctx context.Context) (models.LoadStatus, error)
	Status() models.LoadStatus
	View(viewer models.Viewer) models.BootstrapView
}

// BootstrapHandler serves the initial data set and reloads it on demand.
type BootstrapHandler struct {
	service bootstrapService
}

// NewBootstrapHandler constructs the handler.
func NewBootstrapHandler(svc bootstrapService) *BootstrapHandler {
	return &BootstrapHandler{service: svc}
}

// Get godoc
// @Summary Initial data for the current viewer
// @Description Students receive only their own record; teachers receive their classes
// @Tags Bootstrap
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /bootstrap [get]
func (h *BootstrapHandler) Get(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, h.service.View(viewer), nil)
}

// Reload godoc
// @Summary Reload the data set from the remote store
// @Tags Bootstrap
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Security BearerAuth
// @Router /bootstrap/reload [post]
func (h *BootstrapHandler) Reload(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	if viewer.Kind != models.ViewerAdmin {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "only administrators can reload data"))
		return
	}
	status, err := h.service.Load(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
