package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type recapService interface {
	ClassRecap(ctx context.Context, viewer models.Viewer, scope models.RecapScope) (*models.ClassRecap, error)
	Monitoring(ctx context.Context, viewer models.Viewer, scope models.RecapScope) (*models.MonitoringReport, error)
	StudentDashboard(ctx context.Context, viewer models.Viewer, subject string, semester models.SemesterKey) (*models.StudentDashboard, error)
}

// RecapHandler exposes computed grade views.
type RecapHandler struct {
	recaps recapService
}

// NewRecapHandler constructs RecapHandler.
func NewRecapHandler(recaps recapService) *RecapHandler {
	return &RecapHandler{recaps: recaps}
}

// Recap godoc
// @Summary Class recap
// @Description Chapter averages, mid-term, end-of-term and final grade per student
// @Tags Recap
// @Produce json
// @Param class query string true "Class"
// @Param subject query string false "Subject"
// @Param semester query string true "odd or even"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /recap [get]
func (h *RecapHandler) Recap(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var scope models.RecapScope
	if err := c.ShouldBindQuery(&scope); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}
	recap, err := h.recaps.ClassRecap(c.Request.Context(), viewer, scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, recap, nil)
}

// Monitoring godoc
// @Summary Outstanding and remedial students per session
// @Tags Recap
// @Produce json
// @Param class query string true "Class"
// @Param subject query string false "Subject"
// @Param semester query string true "odd or even"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /monitoring [get]
func (h *RecapHandler) Monitoring(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var scope models.RecapScope
	if err := c.ShouldBindQuery(&scope); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}
	report, err := h.recaps.Monitoring(c.Request.Context(), viewer, scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// MyGrades godoc
// @Summary The logged in student's grades
// @Tags Recap
// @Produce json
// @Param subject query string false "Subject"
// @Param semester query string false "odd or even, defaults to odd"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /me/grades [get]
func (h *RecapHandler) MyGrades(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	dashboard, err := h.recaps.StudentDashboard(c.Request.Context(), viewer, c.Query("subject"), models.SemesterKey(c.Query("semester")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}
