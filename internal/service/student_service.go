package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/state"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type studentDispatcher interface {
	Snapshot() state.State
	Dispatch(ctx context.Context, action state.Action) (models.SyncResult, error)
}

// StudentRequest holds payload for creating or updating students.
type StudentRequest struct {
	RollNumber string `json:"roll_number"`
	RegNumber  string `json:"reg_number"`
	Name       string `json:"name" validate:"required"`
	ClassName  string `json:"class_name" validate:"required"`
	Gender     string `json:"gender" validate:"omitempty,oneof=M F L P"`
}

// StudentService handles student use-cases.
type StudentService struct {
	store     studentDispatcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(store studentDispatcher, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{store: store, validator: validate, logger: logger}
}

// List returns the students visible to the viewer, ordered by class and roll number.
func (s *StudentService) List(ctx context.Context, viewer models.Viewer, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if err := requireCapability(viewer, models.CapViewReports); err != nil {
		return nil, nil, err
	}
	if filter.ClassName != "" {
		if err := requireClass(viewer, filter.ClassName); err != nil {
			return nil, nil, err
		}
	}
	if viewer.Kind == models.ViewerTeacher {
		filter.Classes = viewer.Classes
	}

	matched := make([]models.Student, 0)
	for _, student := range s.store.Snapshot().Students {
		if filter.Matches(student) {
			matched = append(matched, student)
		}
	}
	SortStudents(matched)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 50
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: len(matched)}

	start := (page - 1) * size
	if start >= len(matched) {
		return []models.Student{}, pagination, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], pagination, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, viewer models.Viewer, id string) (*models.Student, error) {
	student, ok := s.store.Snapshot().Student(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if viewer.Kind == models.ViewerStudent {
		if viewer.ID != id {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only view themselves")
		}
		return &student, nil
	}
	if err := requireClass(viewer, student.ClassName); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create registers a new student with empty grade records.
func (s *StudentService) Create(ctx context.Context, viewer models.Viewer, req StudentRequest) (*models.Student, models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageStudents); err != nil {
		return nil, models.SyncResult{}, err
	}
	req = req.normalized()
	if err := s.validator.Struct(req); err != nil {
		return nil, models.SyncResult{}, validationError(err, "invalid student payload")
	}
	student := models.NewStudent(uuid.NewString(), req.RollNumber, req.RegNumber, req.Name, req.ClassName, req.Gender)
	result, err := s.store.Dispatch(ctx, state.AddStudent{Student: student})
	if err != nil {
		return nil, result, err
	}
	s.logger.Info("student created", zap.String("student_id", student.ID), zap.String("class", student.ClassName))
	return &student, result, nil
}

// Update replaces identity fields. Grades are untouched.
func (s *StudentService) Update(ctx context.Context, viewer models.Viewer, id string, req StudentRequest) (*models.Student, models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageStudents); err != nil {
		return nil, models.SyncResult{}, err
	}
	req = req.normalized()
	if err := s.validator.Struct(req); err != nil {
		return nil, models.SyncResult{}, validationError(err, "invalid student payload")
	}
	update := models.Student{ID: id, RollNumber: req.RollNumber, RegNumber: req.RegNumber, Name: req.Name, ClassName: req.ClassName, Gender: req.Gender}
	result, err := s.store.Dispatch(ctx, state.UpdateStudent{Student: update})
	if err != nil {
		return nil, result, err
	}
	student, _ := s.store.Snapshot().Student(id)
	return &student, result, nil
}

// Delete removes a student and all of their grades.
func (s *StudentService) Delete(ctx context.Context, viewer models.Viewer, id string) (models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageStudents); err != nil {
		return models.SyncResult{}, err
	}
	result, err := s.store.Dispatch(ctx, state.DeleteStudent{ID: id})
	if err != nil {
		return result, err
	}
	s.logger.Info("student deleted", zap.String("student_id", id))
	return result, nil
}

func (r StudentRequest) normalized() StudentRequest {
	r.RollNumber = strings.TrimSpace(r.RollNumber)
	r.RegNumber = strings.TrimSpace(r.RegNumber)
	r.Name = strings.TrimSpace(r.Name)
	r.ClassName = strings.TrimSpace(r.ClassName)
	r.Gender = strings.ToUpper(strings.TrimSpace(r.Gender))
	return r
}

// SortStudents orders by class, then numeric roll number when both parse, then name.
func SortStudents(students []models.Student) {
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.ClassName != b.ClassName {
			return a.ClassName < b.ClassName
		}
		if a.RollNumber != b.RollNumber {
			an, aErr := strconv.Atoi(a.RollNumber)
			bn, bErr := strconv.Atoi(b.RollNumber)
			if aErr == nil && bErr == nil {
				return an < bn
			}
			return a.RollNumber < b.RollNumber
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}
