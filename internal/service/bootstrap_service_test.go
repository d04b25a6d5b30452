package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/state"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

func newBootstrap(backend SyncBackend) (*BootstrapService, *Dispatcher) {
	syncSvc := NewSyncService(backend, SyncOptions{Policy: models.SyncPolicySurface}, nil, nil)
	d := NewDispatcher(state.NewStore(models.Dataset{}), syncSvc, nil, nil)
	return NewBootstrapService(syncSvc, d, nil), d
}

func TestBootstrapLoadsFromBackend(t *testing.T) {
	ds := gradebookFixture()
	svc, d := newBootstrap(&fakeBackend{dataset: &ds})

	status, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DataSourceRemote, status.Source)
	assert.Empty(t, status.Error)
	assert.False(t, status.LoadedAt.IsZero())
	assert.Len(t, d.Snapshot().Students, 3)
	assert.Equal(t, status, svc.Status())
}

func TestBootstrapFallsBackToSample(t *testing.T) {
	svc, d := newBootstrap(&fakeBackend{loadErr: errors.New("connection refused")})
	svc.sample = func() (models.Dataset, error) {
		ds := gradebookFixture()
		ds.Students = ds.Students[:1]
		return ds, nil
	}

	status, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DataSourceSample, status.Source)
	assert.Equal(t, "connection refused", status.Error)
	assert.Len(t, d.Snapshot().Students, 1)
}

func TestBootstrapWithoutBackendUsesSample(t *testing.T) {
	svc, d := newBootstrap(nil)

	status, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DataSourceSample, status.Source)
	assert.NotEmpty(t, d.Snapshot().Students)
}

func TestBootstrapFailedReloadKeepsData(t *testing.T) {
	ds := gradebookFixture()
	backend := &fakeBackend{dataset: &ds}
	svc, d := newBootstrap(backend)

	first, err := svc.Load(context.Background())
	require.NoError(t, err)

	backend.loadErr = errors.New("timeout")
	status, err := svc.Load(context.Background())
	requireCode(t, err, appErrors.ErrSyncFailed.Code)
	assert.Equal(t, first, status)
	assert.Len(t, d.Snapshot().Students, 3)
}

func TestBootstrapViewScopesByViewer(t *testing.T) {
	ds := gradebookFixture()
	svc, d := newBootstrap(&fakeBackend{dataset: &ds})
	_, err := svc.Load(context.Background())
	require.NoError(t, err)

	admin := svc.View(adminViewer())
	assert.Len(t, admin.Students, 3)
	require.Len(t, admin.Teachers, 1)
	assert.Empty(t, admin.Teachers[0].Password)
	assert.Equal(t, models.SyncPolicySurface, admin.SyncPolicy)

	teacher := svc.View(teacherFixtureViewer())
	assert.ElementsMatch(t, []string{"s1", "s2"}, studentIDs(teacher.Students))
	assert.Len(t, teacher.History, 2)
	assert.Empty(t, teacher.Teachers)

	student := svc.View(studentFixtureViewer(t, d, "s3"))
	assert.Equal(t, []string{"s3"}, studentIDs(student.Students))
	assert.Empty(t, student.History)
}
