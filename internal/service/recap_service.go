package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/grading"
	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/state"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

// recapSource is the state a recap is computed from. Generation must be read before Snapshot.
type recapSource interface {
	Snapshot() state.State
	Generation() string
}

type recapCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{})
}

// RecapService computes class recaps, student dashboards and remediation lists.
type RecapService struct {
	store     recapSource
	cache     recapCache
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewRecapService constructs the recap service. cache may be nil.
func NewRecapService(store recapSource, cache recapCache, validate *validator.Validate, logger *zap.Logger) *RecapService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecapService{store: store, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// ClassRecap computes every student's chapter averages and final grade. Active fields are
// derived from the data entered for the cohort. Cached recaps are keyed by the state generation
// read before the snapshot, so a recap built while a write lands is never served after it.
func (s *RecapService) ClassRecap(ctx context.Context, viewer models.Viewer, scope models.RecapScope) (*models.ClassRecap, error) {
	generation := s.store.Generation()
	snap, scope, err := s.authorize(viewer, scope)
	if err != nil {
		return nil, err
	}

	key := recapCacheKey(scope, generation)
	if s.cache != nil {
		var cached models.ClassRecap
		if s.cache.Get(ctx, key, &cached) {
			return &cached, nil
		}
	}

	recap := buildClassRecap(snap, scope)
	recap.GeneratedAt = s.now().UTC()
	if s.cache != nil {
		s.cache.Set(ctx, key, recap)
	}
	return recap, nil
}

// Monitoring lists, per assessment session, the students whose score is outstanding or
// remedial.
func (s *RecapService) Monitoring(ctx context.Context, viewer models.Viewer, scope models.RecapScope) (*models.MonitoringReport, error) {
	snap, scope, err := s.authorize(viewer, scope)
	if err != nil {
		return nil, err
	}

	cohort := snap.Cohort(scope.ClassName)
	SortStudents(cohort)
	sessions := make([]models.AssessmentSession, 0)
	for _, session := range snap.History {
		if session.ClassName == scope.ClassName && models.SameSubject(session.Subject, scope.Subject) && session.Semester == scope.Semester {
			sessions = append(sessions, session)
		}
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date < sessions[j].Date
		}
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})

	report := &models.MonitoringReport{RecapScope: scope, Entries: make([]models.MonitoringEntry, 0, len(sessions))}
	for _, session := range sessions {
		entry := models.MonitoringEntry{
			Session:     session,
			Outstanding: []models.MonitoredStudent{},
			Remedial:    []models.MonitoredStudent{},
		}
		for _, student := range cohort {
			score := session.Slot.Get(student.Semester(scope.Subject, snap.Settings.DefaultSubject, scope.Semester))
			switch grading.Classify(score) {
			case models.ClassificationOutstanding:
				entry.Outstanding = append(entry.Outstanding, monitored(student, *score))
			case models.ClassificationRemedial:
				entry.Remedial = append(entry.Remedial, monitored(student, *score))
			}
		}
		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}

// StudentDashboard returns a student's own results. Active fields come from the assessment
// sessions of the class, so a slot counts once it has been opened even if this student has no
// score in it.
func (s *RecapService) StudentDashboard(ctx context.Context, viewer models.Viewer, subject string, semester models.SemesterKey) (*models.StudentDashboard, error) {
	if err := requireCapability(viewer, models.CapViewOwnGrades); err != nil {
		return nil, err
	}
	if semester == "" {
		semester = models.SemesterOdd
	}
	if !semester.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "semester must be odd or even")
	}
	snap := s.store.Snapshot()
	student, ok := snap.Student(viewer.ID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	subject = snap.SubjectName(strings.TrimSpace(subject))

	active := grading.SessionFieldsByChapter(snap.History, student.ClassName, subject, semester)
	row := buildRecapRow(student, subject, snap.Settings.DefaultSubject, semester, active, snap.Visibility(subject))
	return &models.StudentDashboard{
		Student:      row,
		Subject:      subject,
		Semester:     semester,
		ActiveFields: activeFieldKeys(active),
		Subjects:     studentSubjects(student, snap.Settings.DefaultSubject),
	}, nil
}

func (s *RecapService) authorize(viewer models.Viewer, scope models.RecapScope) (state.State, models.RecapScope, error) {
	if err := requireCapability(viewer, models.CapViewReports); err != nil {
		return state.State{}, scope, err
	}
	scope.ClassName = strings.TrimSpace(scope.ClassName)
	scope.Subject = strings.TrimSpace(scope.Subject)
	if err := s.validator.Struct(scope); err != nil {
		return state.State{}, scope, validationError(err, "class and semester are required")
	}
	snap := s.store.Snapshot()
	scope.Subject = snap.SubjectName(scope.Subject)
	if err := requireScope(viewer, scope.ClassName, scope.Subject); err != nil {
		return state.State{}, scope, err
	}
	return snap, scope, nil
}

func buildClassRecap(snap state.State, scope models.RecapScope) *models.ClassRecap {
	cohort := snap.Cohort(scope.ClassName)
	SortStudents(cohort)
	defaultSubject := snap.Settings.DefaultSubject
	visibility := snap.Visibility(scope.Subject)
	active := grading.ActiveFieldsByChapter(cohort, scope.Subject, defaultSubject, scope.Semester)

	recap := &models.ClassRecap{
		RecapScope:   scope,
		ActiveFields: activeFieldKeys(active),
		Visibility:   visibility,
		Rows:         make([]models.RecapRow, 0, len(cohort)),
	}
	for _, student := range cohort {
		recap.Rows = append(recap.Rows, buildRecapRow(student, scope.Subject, defaultSubject, scope.Semester, active, visibility))
	}
	return recap
}

func buildRecapRow(student models.Student, subject, defaultSubject string, semester models.SemesterKey, active map[models.ChapterKey]grading.FieldSet, visibility models.ChapterVisibility) models.RecapRow {
	sem := student.Semester(subject, defaultSubject, semester)
	row := models.RecapRow{
		StudentID:  student.ID,
		RollNumber: student.RollNumber,
		RegNumber:  student.RegNumber,
		Name:       student.Name,
		ClassName:  student.ClassName,
		Chapters:   make([]models.ChapterResult, 0, len(models.ChapterKeys)),
		KTS:        sem.KTS,
		SAS:        sem.SAS,
	}
	for _, chapter := range models.ChapterKeys {
		result := models.ChapterResult{
			Chapter: chapter,
			Visible: visibility.Visible(chapter),
			Grades:  sem.ChapterAt(chapter),
		}
		if avg, ok := grading.ChapterAverage(result.Grades, active[chapter]); ok {
			result.Average = models.Score(avg)
		}
		row.Chapters = append(row.Chapters, result)
	}
	if final, ok := grading.FinalGrade(sem, active, visibility); ok {
		row.Final = models.Score(final)
	}
	row.Classification = grading.Classify(row.Final)
	return row
}

func activeFieldKeys(active map[models.ChapterKey]grading.FieldSet) map[models.ChapterKey][]models.FieldKey {
	out := make(map[models.ChapterKey][]models.FieldKey, len(active))
	for chapter, fields := range active {
		out[chapter] = fields.Keys()
	}
	return out
}

func studentSubjects(student models.Student, defaultSubject string) []string {
	subjects := []string{defaultSubject}
	extra := make([]string, 0, len(student.Subjects))
	for name := range student.Subjects {
		if !strings.EqualFold(name, defaultSubject) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(subjects, extra...)
}

func monitored(student models.Student, score float64) models.MonitoredStudent {
	return models.MonitoredStudent{
		StudentID:  student.ID,
		RollNumber: student.RollNumber,
		Name:       student.Name,
		Score:      score,
	}
}

func recapCacheKey(scope models.RecapScope, generation string) string {
	return fmt.Sprintf("recap:%s:%s:%s:%s", scope.ClassName, scope.Subject, scope.Semester, generation)
}
