package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type settingsService interface {
	Get(ctx context.Context) models.Settings
	Save(ctx context.Context, viewer models.Viewer, req service.SettingsRequest) (*models.Settings, models.SyncResult, error)
	ChapterConfig(ctx context.Context, subject string) service.ChapterConfig
	SaveChapterConfig(ctx context.Context, viewer models.Viewer, subject string, req service.ChapterConfigRequest) (*service.ChapterConfig, models.SyncResult, error)
}

// SettingsHandler exposes school settings and chapter visibility.
type SettingsHandler struct {
	settings settingsService
}

// NewSettingsHandler constructs SettingsHandler.
func NewSettingsHandler(settings settingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// Get godoc
// @Summary Get school settings
// @Tags Settings
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.settings.Get(c.Request.Context()), nil)
}

// Save godoc
// @Summary Replace school settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param payload body service.SettingsRequest true "Settings"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /settings [put]
func (h *SettingsHandler) Save(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var req service.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid settings payload"))
		return
	}
	settings, sync, err := h.settings.Save(c.Request.Context(), viewer, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutated(c, http.StatusOK, settings, sync)
}

// GetChapterConfig godoc
// @Summary Chapter visibility of a subject
// @Description Falls back to the global visibility when the subject has no override
// @Tags Settings
// @Produce json
// @Param subject path string true "Subject"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /chapter-configs/{subject} [get]
func (h *SettingsHandler) GetChapterConfig(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.settings.ChapterConfig(c.Request.Context(), c.Param("subject")), nil)
}

// SaveChapterConfig godoc
// @Summary Store the chapter visibility of a subject
// @Tags Settings
// @Accept json
// @Produce json
// @Param subject path string true "Subject"
// @Param payload body service.ChapterConfigRequest true "Visibility"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /chapter-configs/{subject} [put]
func (h *SettingsHandler) SaveChapterConfig(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var req service.ChapterConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid chapter config payload"))
		return
	}
	cfg, sync, err := h.settings.SaveChapterConfig(c.Request.Context(), viewer, c.Param("subject"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutated(c, http.StatusOK, cfg, sync)
}
