package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/state"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

const sessionDateLayout = "2006-01-02"

// OpenSessionRequest opens a slot for input.
type OpenSessionRequest struct {
	ClassName   string             `json:"class_name" validate:"required"`
	Subject     string             `json:"subject"`
	Semester    models.SemesterKey `json:"semester" validate:"required,oneof=odd even"`
	Slot        models.Slot        `json:"slot"`
	Date        string             `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Description string             `json:"description" validate:"max=500"`
}

// SlotQuery selects the scope for the slot picker.
type SlotQuery struct {
	ClassName string             `form:"class" validate:"required"`
	Subject   string             `form:"subject"`
	Semester  models.SemesterKey `form:"semester" validate:"required,oneof=odd even"`
}

// SessionService manages the assessment history.
type SessionService struct {
	store     studentDispatcher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionService constructs the session service.
func NewSessionService(store studentDispatcher, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{store: store, validator: validate, logger: logger, now: time.Now}
}

// List returns sessions matching filter, newest first. Teachers only see their classes and
// students only see their own class.
func (s *SessionService) List(ctx context.Context, viewer models.Viewer, filter models.SessionFilter) ([]models.AssessmentSession, error) {
	if filter.ClassName != "" {
		if err := requireClass(viewer, filter.ClassName); err != nil {
			return nil, err
		}
	}
	if filter.Semester != "" && !filter.Semester.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be odd or even")
	}

	snap := s.store.Snapshot()
	sessions := make([]models.AssessmentSession, 0)
	for _, session := range snap.History {
		if !filter.Matches(session) || !viewer.CanAccessClass(session.ClassName) {
			continue
		}
		if viewer.Kind == models.ViewerTeacher && !viewer.CanAccessSubject(session.Subject) {
			continue
		}
		sessions = append(sessions, session)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date > sessions[j].Date
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// Open records a new assessment session, unlocking its slot for grade entry.
func (s *SessionService) Open(ctx context.Context, viewer models.Viewer, req OpenSessionRequest) (*models.AssessmentSession, models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageSessions); err != nil {
		return nil, models.SyncResult{}, err
	}
	req.ClassName = strings.TrimSpace(req.ClassName)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, models.SyncResult{}, validationError(err, "invalid session payload")
	}
	if err := req.Slot.Validate(); err != nil {
		return nil, models.SyncResult{}, validationError(err, err.Error())
	}

	snap := s.store.Snapshot()
	subject := snap.SubjectName(req.Subject)
	if err := requireScope(viewer, req.ClassName, subject); err != nil {
		return nil, models.SyncResult{}, err
	}
	// Only offered slots can be opened; the store itself accepts repeated openings.
	if snap.SlotOpen(req.ClassName, subject, req.Semester, req.Slot) {
		return nil, models.SyncResult{}, appErrors.Clone(appErrors.ErrDuplicate, req.Slot.String()+" is already open for this class")
	}

	now := s.now().UTC()
	date := req.Date
	if date == "" {
		date = now.Format(sessionDateLayout)
	}
	session := models.AssessmentSession{
		ID:          uuid.NewString(),
		ClassName:   req.ClassName,
		Subject:     subject,
		Semester:    req.Semester,
		Slot:        req.Slot,
		Date:        date,
		Description: req.Description,
		CreatedBy:   viewer.ID,
		CreatedAt:   now,
	}
	result, err := s.store.Dispatch(ctx, state.SaveHistory{Session: session})
	if err != nil {
		return nil, result, err
	}
	s.logger.Info("assessment session opened",
		zap.String("session_id", session.ID),
		zap.String("class", session.ClassName),
		zap.String("subject", session.Subject),
		zap.String("slot", session.Slot.String()),
	)
	return &session, result, nil
}

// Delete removes a session. Scores already entered stay but the slot locks again.
func (s *SessionService) Delete(ctx context.Context, viewer models.Viewer, id string) (models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageSessions); err != nil {
		return models.SyncResult{}, err
	}
	var target *models.AssessmentSession
	for _, session := range s.store.Snapshot().History {
		if session.ID == id {
			session := session
			target = &session
			break
		}
	}
	if target == nil {
		return models.SyncResult{}, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	if err := requireScope(viewer, target.ClassName, target.Subject); err != nil {
		return models.SyncResult{}, err
	}
	return s.store.Dispatch(ctx, state.DeleteHistory{ID: id})
}

// AvailableSlots lists the slots not yet opened for the scope, in display order.
func (s *SessionService) AvailableSlots(ctx context.Context, viewer models.Viewer, query SlotQuery) ([]models.Slot, error) {
	if err := requireCapability(viewer, models.CapManageSessions); err != nil {
		return nil, err
	}
	query.ClassName = strings.TrimSpace(query.ClassName)
	query.Subject = strings.TrimSpace(query.Subject)
	if err := s.validator.Struct(query); err != nil {
		return nil, validationError(err, "invalid slot query")
	}
	snap := s.store.Snapshot()
	subject := snap.SubjectName(query.Subject)
	if err := requireScope(viewer, query.ClassName, subject); err != nil {
		return nil, err
	}

	available := make([]models.Slot, 0)
	for _, slot := range models.AllSlots() {
		if !snap.SlotOpen(query.ClassName, subject, query.Semester, slot) {
			available = append(available, slot)
		}
	}
	return available, nil
}
