package service

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/state"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

// TeacherRequest represents payload for creating or updating teachers. Password may be empty on
// update to keep the current one.
type TeacherRequest struct {
	Name     string   `json:"name" validate:"required,max=120"`
	Username string   `json:"username" validate:"required,max=64"`
	Password string   `json:"password" validate:"omitempty,min=4,max=72"`
	Classes  []string `json:"classes" validate:"dive,required"`
	Subjects []string `json:"subjects" validate:"dive,required"`
}

// TeacherService orchestrates teacher accounts.
type TeacherService struct {
	store     studentDispatcher
	validator *validator.Validate
	logger    *zap.Logger
	hashCost  int
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(store studentDispatcher, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{store: store, validator: validate, logger: logger, hashCost: bcrypt.DefaultCost}
}

// List returns every teacher without passwords, ordered by name.
func (s *TeacherService) List(ctx context.Context, viewer models.Viewer) ([]models.Teacher, error) {
	if err := requireCapability(viewer, models.CapManageTeachers); err != nil {
		return nil, err
	}
	snap := s.store.Snapshot()
	teachers := make([]models.Teacher, 0, len(snap.Teachers))
	for _, teacher := range snap.Teachers {
		teachers = append(teachers, teacher.Public())
	}
	sort.SliceStable(teachers, func(i, j int) bool {
		return strings.ToLower(teachers[i].Name) < strings.ToLower(teachers[j].Name)
	})
	return teachers, nil
}

// Create registers a new teacher account.
func (s *TeacherService) Create(ctx context.Context, viewer models.Viewer, req TeacherRequest) (*models.Teacher, models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageTeachers); err != nil {
		return nil, models.SyncResult{}, err
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, models.SyncResult{}, appErrors.Clone(appErrors.ErrValidation, "password is required")
	}
	return s.save(ctx, uuid.NewString(), req)
}

// Update modifies an existing teacher account.
func (s *TeacherService) Update(ctx context.Context, viewer models.Viewer, id string, req TeacherRequest) (*models.Teacher, models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageTeachers); err != nil {
		return nil, models.SyncResult{}, err
	}
	if _, ok := s.store.Snapshot().Teacher(id); !ok {
		return nil, models.SyncResult{}, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
	}
	return s.save(ctx, id, req)
}

// Delete removes a teacher account.
func (s *TeacherService) Delete(ctx context.Context, viewer models.Viewer, id string) (models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageTeachers); err != nil {
		return models.SyncResult{}, err
	}
	result, err := s.store.Dispatch(ctx, state.DeleteTeacher{ID: id})
	if err != nil {
		return result, err
	}
	s.logger.Info("teacher deleted", zap.String("teacher_id", id))
	return result, nil
}

func (s *TeacherService) save(ctx context.Context, id string, req TeacherRequest) (*models.Teacher, models.SyncResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Username = strings.TrimSpace(req.Username)
	req.Classes = normalizeList(req.Classes)
	req.Subjects = normalizeList(req.Subjects)
	if err := s.validator.Struct(req); err != nil {
		return nil, models.SyncResult{}, validationError(err, "invalid teacher payload")
	}

	teacher := models.Teacher{
		ID:       id,
		Name:     req.Name,
		Username: req.Username,
		Classes:  req.Classes,
		Subjects: req.Subjects,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
		if err != nil {
			return nil, models.SyncResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		teacher.Password = string(hash)
	}

	result, err := s.store.Dispatch(ctx, state.SaveTeacher{Teacher: teacher})
	if err != nil {
		return nil, result, err
	}
	s.logger.Info("teacher saved", zap.String("teacher_id", id), zap.String("username", teacher.Username))
	public := teacher.Public()
	return &public, result, nil
}

// normalizeList trims entries and drops blanks and case-insensitive duplicates.
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
