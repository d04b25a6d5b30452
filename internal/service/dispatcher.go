package service

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/state"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

const recapCachePattern = "recap:*"

// Dispatcher is the single write path: it applies an action to the store, drops cached recaps
// and mirrors the resulting mutation through the sync service.
type Dispatcher struct {
	store   *state.Store
	sync    *SyncService
	cache   *CacheService
	metrics *MetricsService

	// epoch keeps generations of different processes apart in a shared cache.
	epoch      string
	generation atomic.Uint64
}

// NewDispatcher wires the write path. sync, cache and metrics may be nil.
func NewDispatcher(store *state.Store, sync *SyncService, cache *CacheService, metrics *MetricsService) *Dispatcher {
	return &Dispatcher{store: store, sync: sync, cache: cache, metrics: metrics, epoch: uuid.NewString()[:8]}
}

// Generation identifies the current state version. It changes after every applied write, so a
// value read before a snapshot never names data older than that snapshot.
func (d *Dispatcher) Generation() string {
	return d.epoch + "." + strconv.FormatUint(d.generation.Load(), 10)
}

// Snapshot returns a read-only copy of the current state.
func (d *Dispatcher) Snapshot() state.State {
	return d.store.Snapshot()
}

// Replace swaps the whole dataset, used after the initial load.
func (d *Dispatcher) Replace(ctx context.Context, dataset models.Dataset) {
	d.store.Replace(dataset)
	d.generation.Add(1)
	d.cache.Invalidate(ctx, recapCachePattern)
	d.publishSize()
}

// Dispatch applies action. Reducer failures come back as typed API errors; sync errors only
// surface under the surface policy.
func (d *Dispatcher) Dispatch(ctx context.Context, action state.Action) (models.SyncResult, error) {
	mutation, err := d.store.Dispatch(action)
	if err != nil {
		return models.SyncResult{}, translateStateError(err)
	}
	d.generation.Add(1)
	d.cache.Invalidate(ctx, recapCachePattern)
	d.publishSize()

	if d.sync == nil {
		return models.SyncResult{Action: mutation.Action, Status: models.SyncStatusDisabled}, nil
	}
	return d.sync.Push(ctx, mutation)
}

func (d *Dispatcher) publishSize() {
	if d.metrics == nil {
		return
	}
	d.metrics.SetStoreSize(d.store.Counts())
}

func translateStateError(err error) error {
	switch {
	case errors.Is(err, state.ErrNotFound):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, err.Error())
	case errors.Is(err, state.ErrSlotLocked):
		return appErrors.Wrap(err, appErrors.ErrSlotLocked.Code, appErrors.ErrSlotLocked.Status, err.Error())
	case errors.Is(err, state.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrDuplicate.Code, appErrors.ErrDuplicate.Status, err.Error())
	case errors.Is(err, state.ErrInvalid):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply change")
	}
}
