package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/seed"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type datasetLoader interface {
	Enabled() bool
	Load(ctx context.Context) (*models.Dataset, error)
	Policy() models.SyncPolicy
}

// BootstrapService performs the initial load and serves the viewer scoped dataset.
type BootstrapService struct {
	loader     datasetLoader
	dispatcher *Dispatcher
	sample     func() (models.Dataset, error)
	logger     *zap.Logger

	mu     sync.RWMutex
	status models.LoadStatus
}

// NewBootstrapService constructs the service. The bundled sample is the fallback dataset.
func NewBootstrapService(loader datasetLoader, dispatcher *Dispatcher, logger *zap.Logger) *BootstrapService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BootstrapService{loader: loader, dispatcher: dispatcher, sample: seed.Sample, logger: logger}
}

// Load fetches the dataset. On the first load a disabled or failing backend falls back to the
// sample dataset with a warning; there is no retry. A failed reload keeps the current data.
func (s *BootstrapService) Load(ctx context.Context) (models.LoadStatus, error) {
	status := models.LoadStatus{Source: models.DataSourceRemote, LoadedAt: time.Now().UTC()}

	var dataset *models.Dataset
	var loadErr error
	if s.loader != nil && s.loader.Enabled() {
		dataset, loadErr = s.loader.Load(ctx)
	} else {
		loadErr = errSyncDisabled
	}

	if loadErr != nil && !s.Status().LoadedAt.IsZero() {
		s.logger.Warn("reload failed, keeping current data", zap.Error(loadErr))
		return s.Status(), appErrors.Wrap(loadErr, appErrors.ErrSyncFailed.Code, appErrors.ErrSyncFailed.Status, "failed to reload data")
	}
	if loadErr != nil {
		s.logger.Warn("initial load failed, using sample data", zap.Error(loadErr))
		sample, err := s.sample()
		if err != nil {
			return status, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sample data")
		}
		dataset = &sample
		status.Source = models.DataSourceSample
		status.Error = loadErr.Error()
	}

	s.dispatcher.Replace(ctx, *dataset)
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	s.logger.Info("dataset loaded",
		zap.String("source", string(status.Source)),
		zap.Int("students", len(dataset.Students)),
		zap.Int("teachers", len(dataset.Teachers)),
		zap.Int("sessions", len(dataset.History)),
	)
	return status, nil
}

// Status returns the last load outcome.
func (s *BootstrapService) Status() models.LoadStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// View returns what the viewer may see. Teachers see their classes, students only themselves,
// and only admins receive the teacher roster.
func (s *BootstrapService) View(viewer models.Viewer) models.BootstrapView {
	snapshot := s.dispatcher.Snapshot()
	view := models.BootstrapView{
		Viewer:         viewer,
		Students:       []models.Student{},
		History:        []models.AssessmentSession{},
		Settings:       snapshot.Settings,
		ChapterConfigs: snapshot.ChapterConfigs,
		Status:         s.Status(),
	}
	if s.loader != nil {
		view.SyncPolicy = s.loader.Policy()
	}

	for _, student := range snapshot.Students {
		switch viewer.Kind {
		case models.ViewerStudent:
			if student.ID == viewer.ID {
				view.Students = append(view.Students, student)
			}
		default:
			if viewer.CanAccessClass(student.ClassName) {
				view.Students = append(view.Students, student)
			}
		}
	}
	for _, session := range snapshot.History {
		if viewer.CanAccessClass(session.ClassName) && viewer.CanAccessSubject(session.Subject) {
			view.History = append(view.History, session)
		}
	}
	if viewer.Kind == models.ViewerAdmin {
		for _, teacher := range snapshot.Teachers {
			view.Teachers = append(view.Teachers, teacher.Public())
		}
	}
	return view
}
