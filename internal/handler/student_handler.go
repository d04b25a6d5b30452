package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/service"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, viewer models.Viewer, filter models.StudentFilter) ([]models.Student, *models.Pagination, error)
	Get(ctx context.Context, viewer models.Viewer, id string) (*models.Student, error)
	Create(ctx context.Context, viewer models.Viewer, req service.StudentRequest) (*models.Student, models.SyncResult, error)
	Update(ctx context.Context, viewer models.Viewer, id string, req service.StudentRequest) (*models.Student, models.SyncResult, error)
	Delete(ctx context.Context, viewer models.Viewer, id string) (models.SyncResult, error)
}

type importService interface {
	Import(ctx context.Context, viewer models.Viewer, req service.ImportRequest) (*models.ImportResult, models.SyncResult, error)
}

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students studentService
	imports  importService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students studentService, imports importService) *StudentHandler {
	return &StudentHandler{students: students, imports: imports}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name, roll or registration number"
// @Param class query string false "Filter by class"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.ClassName = strings.TrimSpace(c.Query("class"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	students, pagination, err := h.students.List(c.Request.Context(), viewer, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Create student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.StudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid payload"))
		return
	}
	student, sync, err := h.students.Create(c.Request.Context(), viewer, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutated(c, http.StatusCreated, student, sync)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.StudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	var req service.StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid payload"))
		return
	}
	student, sync, err := h.students.Update(c.Request.Context(), viewer, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutated(c, http.StatusOK, student, sync)
}

// Delete godoc
// @Summary Delete student and their grades
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	sync, err := h.students.Delete(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutated(c, http.StatusOK, gin.H{"id": c.Param("id")}, sync)
}

// Import godoc
// @Summary Import a roster spreadsheet
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster (.xlsx or .csv)"
// @Param class_name formData string false "Class for rows without a class column"
// @Success 201 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Security BearerAuth
// @Router /students/import [post]
func (h *StudentHandler) Import(c *gin.Context) {
	viewer, ok := viewerFromContext(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, bindError(err, "file is required"))
		return
	}
	if fileHeader.Size > service.MaxImportSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the 5MB limit"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(file, service.MaxImportSize+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	if int64(len(data)) > service.MaxImportSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the 5MB limit"))
		return
	}

	result, sync, err := h.imports.Import(c.Request.Context(), viewer, service.ImportRequest{
		Filename:  fileHeader.Filename,
		Data:      data,
		ClassName: strings.TrimSpace(c.PostForm("class_name")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Mutated(c, http.StatusCreated, result, sync)
}
