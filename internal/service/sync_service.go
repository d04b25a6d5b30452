package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/repository"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/jobs"
)

const syncJobType = "sync.push"

var errSyncDisabled = errors.New("sync backend disabled")

// SyncBackend is the system of record the in-memory store mirrors.
type SyncBackend interface {
	LoadInitialData(ctx context.Context) (*models.Dataset, error)
	Push(ctx context.Context, mutation models.Mutation) error
}

// SyncOptions tunes SyncService.
type SyncOptions struct {
	Policy     models.SyncPolicy
	Timeout    time.Duration
	Workers    int
	Retries    int
	RetryDelay time.Duration
}

// SyncService pushes mutations to the backend and reports what happened to each.
//
// Under the retry policy mutations are ordered per lane (see mutationLane): while a lane has a
// push in flight or changes waiting for retry, later changes on it queue behind them, so the
// remote store never receives an older value after a newer one.
type SyncService struct {
	backend SyncBackend
	opts    SyncOptions
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger

	mu sync.Mutex
	// lanes holds the mutations waiting on each busy lane. A present key marks the lane busy.
	lanes map[string][]models.Mutation
}

// NewSyncService builds the service. A nil backend disables syncing.
func NewSyncService(backend SyncBackend, opts SyncOptions, metrics *MetricsService, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch opts.Policy {
	case models.SyncPolicyRetry, models.SyncPolicySurface, models.SyncPolicyBestEffort:
	default:
		opts.Policy = models.SyncPolicyRetry
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	s := &SyncService{backend: backend, opts: opts, metrics: metrics, logger: logger, lanes: map[string][]models.Mutation{}}
	if backend != nil && opts.Policy == models.SyncPolicyRetry {
		s.queue = jobs.NewQueue("sync", s.handleJob, jobs.QueueConfig{
			Workers:    opts.Workers,
			MaxRetries: opts.Retries,
			RetryDelay: opts.RetryDelay,
			OnGiveUp:   s.giveUp,
			Logger:     logger,
		})
	}
	return s
}

// Policy returns the active failure policy.
func (s *SyncService) Policy() models.SyncPolicy {
	return s.opts.Policy
}

// Enabled reports whether a backend is configured.
func (s *SyncService) Enabled() bool {
	return s != nil && s.backend != nil
}

// Start launches the retry workers when the retry policy is active.
func (s *SyncService) Start(ctx context.Context) {
	if s.queue != nil {
		s.queue.Start(ctx)
	}
}

// Stop halts the retry workers. Mutations still queued are dropped and logged by the queue.
func (s *SyncService) Stop() {
	if s.queue != nil {
		s.queue.Stop()
	}
}

// Load reads the full dataset from the backend.
func (s *SyncService) Load(ctx context.Context) (*models.Dataset, error) {
	if !s.Enabled() {
		return nil, errSyncDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.backend.LoadInitialData(ctx)
}

// Push mirrors mutation to the backend. The returned error is only set under the surface policy
// when the push did not succeed; the local change is kept either way.
func (s *SyncService) Push(ctx context.Context, mutation models.Mutation) (models.SyncResult, error) {
	if !s.Enabled() {
		result := models.SyncResult{Action: mutation.Action, Status: models.SyncStatusDisabled}
		s.metrics.RecordSync(result)
		return result, nil
	}
	if s.queue != nil {
		return s.pushInLane(context.WithoutCancel(ctx), mutation), nil
	}

	result := s.push(context.WithoutCancel(ctx), mutation)
	s.metrics.RecordSync(result)
	if !result.Failed() {
		return result, nil
	}
	logFields := []zap.Field{zap.String("action", string(mutation.Action)), zap.String("status", string(result.Status)), zap.String("error", result.Error)}
	if s.opts.Policy == models.SyncPolicySurface {
		s.logger.Error("sync push failed", logFields...)
		return result, appErrors.Clone(appErrors.ErrSyncFailed, "saved locally but the remote store did not accept the change: "+result.Error)
	}
	s.logger.Warn("sync push failed, ignored", logFields...)
	return result, nil
}

func (s *SyncService) pushInLane(ctx context.Context, mutation models.Mutation) models.SyncResult {
	lane := mutationLane(mutation)
	s.mu.Lock()
	if waiting, busy := s.lanes[lane]; busy {
		s.lanes[lane] = append(waiting, mutation)
		s.mu.Unlock()
		s.metrics.AddQueued(1)
		result := models.SyncResult{Action: mutation.Action, Status: models.SyncStatusQueued}
		s.metrics.RecordSync(result)
		s.logger.Info("sync push waiting behind earlier changes", zap.String("action", string(mutation.Action)), zap.String("lane", lane))
		return result
	}
	s.lanes[lane] = nil
	s.mu.Unlock()

	result := s.push(ctx, mutation)
	s.metrics.RecordSync(result)

	s.mu.Lock()
	if !result.Failed() {
		drain := len(s.lanes[lane]) > 0
		if !drain {
			delete(s.lanes, lane)
		}
		s.mu.Unlock()
		if drain {
			s.enqueueLane(lane)
		}
		return result
	}
	s.lanes[lane] = append([]models.Mutation{mutation}, s.lanes[lane]...)
	s.mu.Unlock()
	s.metrics.AddQueued(1)

	logFields := []zap.Field{zap.String("action", string(mutation.Action)), zap.String("lane", lane), zap.String("status", string(result.Status)), zap.String("error", result.Error)}
	if !s.enqueueLane(lane) {
		return result
	}
	s.logger.Warn("sync push failed, queued for retry", logFields...)
	result.Status = models.SyncStatusQueued
	return result
}

// Flush waits for queued retries to settle.
func (s *SyncService) Flush(ctx context.Context) error {
	if s.queue == nil {
		return nil
	}
	return s.queue.Wait(ctx)
}

func (s *SyncService) push(ctx context.Context, mutation models.Mutation) models.SyncResult {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	err := s.backend.Push(ctx, mutation)
	result := models.SyncResult{Action: mutation.Action, Status: models.SyncStatusOK, Duration: time.Since(start)}
	if err != nil {
		result.Status = models.SyncStatusFailed
		if repository.IsTimeout(err) {
			result.Status = models.SyncStatusTimeout
		}
		result.Error = err.Error()
	}
	return result
}

// enqueueLane schedules a job draining lane. When the queue refuses it the lane's waiting
// mutations are dropped and counted as failed.
func (s *SyncService) enqueueLane(lane string) bool {
	err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: syncJobType, Payload: lane})
	if err == nil {
		return true
	}
	dropped := s.dropLane(lane, err)
	s.logger.Error("sync retry enqueue failed", zap.String("lane", lane), zap.Int("dropped", dropped), zap.Error(err))
	return false
}

// handleJob pushes a lane's waiting mutations in order. A failure leaves the head in place and
// the queue retries the job.
func (s *SyncService) handleJob(ctx context.Context, job jobs.Job) error {
	lane, ok := job.Payload.(string)
	if !ok {
		s.logger.Error("sync job carries no lane", zap.String("job_id", job.ID))
		return nil
	}
	for {
		s.mu.Lock()
		waiting := s.lanes[lane]
		if len(waiting) == 0 {
			delete(s.lanes, lane)
			s.mu.Unlock()
			return nil
		}
		mutation := waiting[0]
		s.mu.Unlock()

		result := s.push(ctx, mutation)
		if result.Failed() {
			return errors.New(result.Error)
		}
		s.mu.Lock()
		s.lanes[lane] = s.lanes[lane][1:]
		s.mu.Unlock()
		s.metrics.AddQueued(-1)
		s.metrics.RecordSync(result)
		s.logger.Info("sync retry succeeded", zap.String("action", string(mutation.Action)), zap.String("lane", lane), zap.Int("attempt", job.Attempt+1))
	}
}

// giveUp abandons the whole lane: pushing its later mutations without the failed one would
// reorder changes on the remote store.
func (s *SyncService) giveUp(job jobs.Job, err error) {
	lane, ok := job.Payload.(string)
	if !ok {
		return
	}
	dropped := s.dropLane(lane, err)
	s.logger.Error("sync retries exhausted, lane dropped", zap.String("lane", lane), zap.Int("dropped", dropped), zap.Error(err))
}

func (s *SyncService) dropLane(lane string, err error) int {
	s.mu.Lock()
	waiting := s.lanes[lane]
	delete(s.lanes, lane)
	s.mu.Unlock()
	for _, mutation := range waiting {
		s.metrics.AddQueued(-1)
		s.metrics.RecordSync(models.SyncResult{Action: mutation.Action, Status: models.SyncStatusFailed, Error: err.Error()})
	}
	return len(waiting)
}

// mutationLane names the ordering lane of a mutation. Grades, resets and roster changes share one
// lane because a class reset or a student deletion overlaps individual score writes.
func mutationLane(mutation models.Mutation) string {
	switch payload := mutation.Payload.(type) {
	case models.HistoryPayload:
		return "history:" + payload.Session.ID
	case models.TeacherPayload:
		return "teacher:" + payload.Teacher.ID
	case models.ChapterConfigPayload:
		return "chapters:" + payload.Subject
	case models.SettingsPayload:
		return "settings"
	case models.DeletePayload:
		switch mutation.Action {
		case models.MutationDeleteHistory:
			return "history:" + payload.ID
		case models.MutationDeleteTeacher:
			return "teacher:" + payload.ID
		}
	}
	return "roster"
}
