package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/state"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

// ScoreInput is the raw text typed into a grade cell. JSON numbers, strings and null are accepted.
type ScoreInput string

// UnmarshalJSON implements json.Unmarshaler.
func (s *ScoreInput) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var raw string
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return err
		}
		*s = ScoreInput(raw)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("score must be a number or string: %w", err)
	}
	*s = ScoreInput(n.String())
	return nil
}

// SaveScoreRequest writes one grade cell.
type SaveScoreRequest struct {
	StudentID string             `json:"student_id" validate:"required"`
	Subject   string             `json:"subject"`
	Semester  models.SemesterKey `json:"semester" validate:"required,oneof=odd even"`
	Slot      models.Slot        `json:"slot"`
	Value     ScoreInput         `json:"value"`
}

// ResetClassRequest clears a class for one subject and semester.
type ResetClassRequest struct {
	ClassName string             `json:"class_name" validate:"required"`
	Subject   string             `json:"subject"`
	Semester  models.SemesterKey `json:"semester" validate:"required,oneof=odd even"`
}

// GradeCell is the stored value of a cell after a write.
type GradeCell struct {
	StudentID      string                `json:"student_id"`
	Subject        string                `json:"subject"`
	Semester       models.SemesterKey    `json:"semester"`
	Slot           models.Slot           `json:"slot"`
	Value          *float64              `json:"value"`
	Classification models.Classification `json:"classification"`
}

// GradeService handles grade entry.
type GradeService struct {
	store     studentDispatcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs the grade service.
func NewGradeService(store studentDispatcher, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{store: store, validator: validate, logger: logger}
}

// SaveScore parses, clamps and stores one cell. Blank input clears the cell.
func (s *GradeService) SaveScore(ctx context.Context, viewer models.Viewer, req SaveScoreRequest) (*GradeCell, models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapEditGrades); err != nil {
		return nil, models.SyncResult{}, err
	}
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return nil, models.SyncResult{}, validationError(err, "invalid grade payload")
	}
	if err := req.Slot.Validate(); err != nil {
		return nil, models.SyncResult{}, validationError(err, err.Error())
	}
	value, err := grading.ParseScore(string(req.Value))
	if err != nil {
		return nil, models.SyncResult{}, validationError(err, err.Error())
	}

	snap := s.store.Snapshot()
	student, ok := snap.Student(req.StudentID)
	if !ok {
		return nil, models.SyncResult{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	subject := snap.SubjectName(req.Subject)
	if err := requireScope(viewer, student.ClassName, subject); err != nil {
		return nil, models.SyncResult{}, err
	}

	result, err := s.store.Dispatch(ctx, state.SaveGrade{
		StudentID: req.StudentID,
		Subject:   subject,
		Semester:  req.Semester,
		Slot:      req.Slot,
		Value:     value,
	})
	if err != nil {
		return nil, result, err
	}
	return &GradeCell{
		StudentID:      req.StudentID,
		Subject:        subject,
		Semester:       req.Semester,
		Slot:           req.Slot,
		Value:          value,
		Classification: grading.Classify(value),
	}, result, nil
}

// ResetClass clears every slot of a subject and semester for a class.
func (s *GradeService) ResetClass(ctx context.Context, viewer models.Viewer, req ResetClassRequest) (models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageStudents); err != nil {
		return models.SyncResult{}, err
	}
	req.ClassName = strings.TrimSpace(req.ClassName)
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return models.SyncResult{}, validationError(err, "invalid reset payload")
	}
	result, err := s.store.Dispatch(ctx, state.ResetClassGrades{
		ClassName: req.ClassName,
		Subject:   req.Subject,
		Semester:  req.Semester,
	})
	if err != nil {
		return result, err
	}
	s.logger.Warn("class grades reset",
		zap.String("class", req.ClassName),
		zap.String("subject", req.Subject),
		zap.String("semester", string(req.Semester)),
		zap.String("by", viewer.ID),
	)
	return result, nil
}
