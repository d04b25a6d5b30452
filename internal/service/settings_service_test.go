package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

func TestSettingsServiceSave(t *testing.T) {
	d := newTestDispatcher(t)
	svc := NewSettingsService(d, nil, nil)

	settings, _, err := svc.Save(context.Background(), adminViewer(), SettingsRequest{
		SchoolName:        " SMP 2 ",
		ChapterVisibility: models.ChapterVisibility{models.Chapter5: false},
	})
	require.NoError(t, err)
	assert.Equal(t, "SMP 2", settings.SchoolName)
	assert.Equal(t, "Math", settings.DefaultSubject)
	assert.Len(t, settings.ChapterVisibility, len(models.ChapterKeys))
	assert.False(t, settings.ChapterVisibility.Visible(models.Chapter5))
	assert.True(t, settings.ChapterVisibility.Visible(models.Chapter1))
	assert.Equal(t, "SMP 2", svc.Get(context.Background()).SchoolName)

	_, _, err = svc.Save(context.Background(), adminViewer(), SettingsRequest{ChapterVisibility: models.ChapterVisibility{"ch7": true}})
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, _, err = svc.Save(context.Background(), teacherFixtureViewer(), SettingsRequest{SchoolName: "x"})
	requireCode(t, err, appErrors.ErrForbidden.Code)
}

func TestSettingsServiceChapterConfig(t *testing.T) {
	d := newTestDispatcher(t)
	svc := NewSettingsService(d, nil, nil)
	ctx := context.Background()

	cfg := svc.ChapterConfig(ctx, "")
	assert.Equal(t, "Math", cfg.Subject)
	assert.False(t, cfg.Override)
	assert.True(t, cfg.Visibility.Visible(models.Chapter4))

	saved, result, err := svc.SaveChapterConfig(ctx, adminViewer(), "Science", ChapterConfigRequest{
		Visibility: models.ChapterVisibility{models.Chapter4: false, models.Chapter5: false},
	})
	require.NoError(t, err)
	assert.Equal(t, models.MutationSaveChapterConfig, result.Action)
	assert.True(t, saved.Override)
	assert.False(t, saved.Visibility.Visible(models.Chapter4))
	assert.True(t, saved.Visibility.Visible(models.Chapter3))

	assert.True(t, svc.ChapterConfig(ctx, "Math").Visibility.Visible(models.Chapter4))

	_, _, err = svc.SaveChapterConfig(ctx, adminViewer(), "Science", ChapterConfigRequest{})
	requireCode(t, err, appErrors.ErrValidation.Code)
}
