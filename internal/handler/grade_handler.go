package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type gradeService interface {
	SaveScore(ctx context.Context, viewer models.Viewer, req service.SaveScoreRequest) (*service.GradeCell, models.SyncResult, error)
	ResetClass(ctx context.Context, viewer models.Viewer, req service.ResetClassRequest) (models.SyncResult, error)
}

// GradeHandler exposes grade entry endpoints.
type GradeHandler struct {
	grades gradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades gradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Save godoc
// @Summary Save one grade cell
// @Description Blank values clear the cell. Values are clamped to 0..100. The slot must be opened by a session.
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.SaveScoreRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /grades [put]
func (h *GradeHandler) Save(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var req service.SaveScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid grade payload"))
		return
	}
	cell, sync, err := h.grades.SaveScore(c.Request.Context(), viewer, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutated(c, http.StatusOK, cell, sync)
}

// Reset godoc
// @Summary Clear a class's grades for a subject and semester
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.ResetClassRequest true "Reset scope"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /grades/reset [post]
func (h *GradeHandler) Reset(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var req service.ResetClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid reset payload"))
		return
	}
	sync, err := h.grades.ResetClass(c.Request.Context(), viewer, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutated(c, http.StatusOK, req, sync)
}
