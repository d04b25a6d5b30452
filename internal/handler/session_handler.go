package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/service"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type sessionService interface {
	List(ctx context.Context, viewer models.Viewer, filter models.SessionFilter) ([]models.AssessmentSession, error)
	Open(ctx context.Context, viewer models.Viewer, req service.OpenSessionRequest) (*models.AssessmentSession, models.SyncResult, error)
	Delete(ctx context.Context, viewer models.Viewer, id string) (models.SyncResult, error)
	AvailableSlots(ctx context.Context, viewer models.Viewer, query service.SlotQuery) ([]models.Slot, error)
}

// SessionHandler exposes the assessment history.
type SessionHandler struct {
	sessions sessionService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions sessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// List godoc
// @Summary List assessment sessions
// @Tags Sessions
// @Produce json
// @Param class query string false "Class"
// @Param subject query string false "Subject"
// @Param semester query string false "odd or even"
// @Param chapter query string false "ch1..ch5"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	filter := models.SessionFilter{
		ClassName: strings.TrimSpace(c.Query("class")),
		Subject:   strings.TrimSpace(c.Query("subject")),
		Semester:  models.SemesterKey(c.Query("semester")),
		Chapter:   models.ChapterKey(c.Query("chapter")),
	}
	sessions, err := h.sessions.List(c.Request.Context(), viewer, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}

// Open godoc
// @Summary Open a slot for grade entry
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body service.OpenSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions [post]
func (h *SessionHandler) Open(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var req service.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid session payload"))
		return
	}
	session, sync, err := h.sessions.Open(c.Request.Context(), viewer, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutated(c, http.StatusCreated, session, sync)
}

// Available godoc
// @Summary Slots not yet opened for a class, subject and semester
// @Tags Sessions
// @Produce json
// @Param class query string true "Class"
// @Param subject query string false "Subject"
// @Param semester query string true "odd or even"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/available [get]
func (h *SessionHandler) Available(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var query service.SlotQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid query"))
		return
	}
	slots, err := h.sessions.AvailableSlots(c.Request.Context(), viewer, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Delete godoc
// @Summary Delete a session
// @Description Scores already entered remain but the slot is locked again
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	sync, err := h.sessions.Delete(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutated(c, http.StatusOK, gin.H{"id": c.Param("id")}, sync)
}
