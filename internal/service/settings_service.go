package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/state"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

// SettingsRequest replaces school settings.
type SettingsRequest struct {
	SchoolName        string                   `json:"school_name" validate:"max=200"`
	AcademicYear      string                   `json:"academic_year" validate:"max=20"`
	DefaultSubject    string                   `json:"default_subject" validate:"max=100"`
	ChapterVisibility models.ChapterVisibility `json:"chapter_visibility"`
}

// ChapterConfigRequest stores a subject's chapter visibility.
type ChapterConfigRequest struct {
	Visibility models.ChapterVisibility `json:"visibility" validate:"required"`
}

// ChapterConfig is a subject's resolved chapter visibility.
type ChapterConfig struct {
	Subject    string                   `json:"subject"`
	Visibility models.ChapterVisibility `json:"visibility"`
	Override   bool                     `json:"override"`
}

// SettingsService reads and writes school preferences.
type SettingsService struct {
	store     studentDispatcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs the settings service.
func NewSettingsService(store studentDispatcher, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{store: store, validator: validate, logger: logger}
}

// Get returns the current settings.
func (s *SettingsService) Get(ctx context.Context) models.Settings {
	return s.store.Snapshot().Settings
}

// Save replaces the settings. Blank default subject keeps the current one.
func (s *SettingsService) Save(ctx context.Context, viewer models.Viewer, req SettingsRequest) (*models.Settings, models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageSettings); err != nil {
		return nil, models.SyncResult{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, models.SyncResult{}, validationError(err, "invalid settings payload")
	}
	if err := checkChapterKeys(req.ChapterVisibility); err != nil {
		return nil, models.SyncResult{}, err
	}
	result, err := s.store.Dispatch(ctx, state.SaveSettings{Settings: models.Settings{
		SchoolName:        strings.TrimSpace(req.SchoolName),
		AcademicYear:      strings.TrimSpace(req.AcademicYear),
		DefaultSubject:    strings.TrimSpace(req.DefaultSubject),
		ChapterVisibility: req.ChapterVisibility,
	}})
	if err != nil {
		return nil, result, err
	}
	settings := s.store.Snapshot().Settings
	return &settings, result, nil
}

// ChapterConfig resolves the visibility of a subject, falling back to the global default.
func (s *SettingsService) ChapterConfig(ctx context.Context, subject string) ChapterConfig {
	snap := s.store.Snapshot()
	name := snap.SubjectName(strings.TrimSpace(subject))
	_, override := snap.ChapterConfigs[name]
	return ChapterConfig{Subject: name, Visibility: snap.Visibility(name), Override: override}
}

// SaveChapterConfig stores the visibility override of a subject.
func (s *SettingsService) SaveChapterConfig(ctx context.Context, viewer models.Viewer, subject string, req ChapterConfigRequest) (*ChapterConfig, models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageSettings); err != nil {
		return nil, models.SyncResult{}, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, models.SyncResult{}, validationError(err, "invalid chapter config payload")
	}
	if err := checkChapterKeys(req.Visibility); err != nil {
		return nil, models.SyncResult{}, err
	}
	result, err := s.store.Dispatch(ctx, state.SaveChapterConfig{Subject: subject, Visibility: req.Visibility})
	if err != nil {
		return nil, result, err
	}
	cfg := s.ChapterConfig(ctx, subject)
	return &cfg, result, nil
}

func checkChapterKeys(visibility models.ChapterVisibility) error {
	for key := range visibility {
		if !key.Valid() {
			return appErrors.Clone(appErrors.ErrValidation, "unknown chapter "+string(key))
		}
	}
	return nil
}
