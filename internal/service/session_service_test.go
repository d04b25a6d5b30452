package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

func TestSessionServiceOpenUnlocksSlot(t *testing.T) {
	d := newTestDispatcher(t)
	svc := NewSessionService(d, nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 10, 2, 8, 0, 0, 0, time.UTC) }
	slot := models.ChapterSlot(models.Chapter1, models.FieldF2)

	session, result, err := svc.Open(context.Background(), teacherFixtureViewer(), OpenSessionRequest{
		ClassName: "7A", Semester: models.SemesterOdd, Slot: slot, Description: " quiz ",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MutationSaveHistory, result.Action)
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "Math", session.Subject)
	assert.Equal(t, "2024-10-02", session.Date)
	assert.Equal(t, "quiz", session.Description)
	assert.Equal(t, "t1", session.CreatedBy)
	assert.True(t, d.Snapshot().SlotOpen("7A", "Math", models.SemesterOdd, slot))

	grades := NewGradeService(d, nil, nil)
	_, _, err = grades.SaveScore(context.Background(), teacherFixtureViewer(), SaveScoreRequest{
		StudentID: "s1", Semester: models.SemesterOdd, Slot: slot, Value: "75",
	})
	require.NoError(t, err)
}

func TestSessionServiceOpenRejections(t *testing.T) {
	d := newTestDispatcher(t)
	svc := NewSessionService(d, nil, nil)
	ctx := context.Background()

	_, _, err := svc.Open(ctx, teacherFixtureViewer(), OpenSessionRequest{
		ClassName: "7A", Semester: models.SemesterOdd, Slot: models.Slot{Kind: models.SlotKTS},
	})
	requireCode(t, err, appErrors.ErrDuplicate.Code)

	_, _, err = svc.Open(ctx, adminViewer(), OpenSessionRequest{
		ClassName: "7A", Subject: "math", Semester: models.SemesterOdd, Slot: models.ChapterSlot(models.Chapter1, models.FieldF1),
	})
	requireCode(t, err, appErrors.ErrDuplicate.Code)

	_, _, err = svc.Open(ctx, teacherFixtureViewer(), OpenSessionRequest{
		ClassName: "7B", Semester: models.SemesterOdd, Slot: models.Slot{Kind: models.SlotSAS},
	})
	requireCode(t, err, appErrors.ErrForbidden.Code)

	_, _, err = svc.Open(ctx, adminViewer(), OpenSessionRequest{
		ClassName: "7A", Semester: models.SemesterOdd, Slot: models.Slot{Kind: models.SlotSAS}, Date: "02/10/2024",
	})
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, _, err = svc.Open(ctx, adminViewer(), OpenSessionRequest{
		ClassName: "7A", Semester: models.SemesterOdd, Slot: models.Slot{Kind: models.SlotSAS, Chapter: models.Chapter1},
	})
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, _, err = svc.Open(ctx, studentFixtureViewer(t, d, "s1"), OpenSessionRequest{
		ClassName: "7A", Semester: models.SemesterOdd, Slot: models.Slot{Kind: models.SlotSAS},
	})
	requireCode(t, err, appErrors.ErrForbidden.Code)
}

func TestSessionServiceListNewestFirst(t *testing.T) {
	d := newTestDispatcher(t)
	svc := NewSessionService(d, nil, nil)

	sessions, err := svc.List(context.Background(), adminViewer(), models.SessionFilter{ClassName: "7A"})
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "h2", sessions[0].ID)
	assert.Equal(t, "h1", sessions[1].ID)

	sessions, err = svc.List(context.Background(), adminViewer(), models.SessionFilter{Chapter: models.Chapter1})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "h1", sessions[0].ID)

	_, err = svc.List(context.Background(), teacherFixtureViewer(), models.SessionFilter{ClassName: "7B"})
	requireCode(t, err, appErrors.ErrForbidden.Code)
}

func TestSessionServiceDeleteLocksSlotKeepsScores(t *testing.T) {
	d := newTestDispatcher(t)
	svc := NewSessionService(d, nil, nil)

	_, err := svc.Delete(context.Background(), adminViewer(), "missing")
	requireCode(t, err, appErrors.ErrNotFound.Code)

	_, err = svc.Delete(context.Background(), adminViewer(), "h2")
	require.NoError(t, err)

	snap := d.Snapshot()
	assert.False(t, snap.SlotOpen("7A", "Math", models.SemesterOdd, models.Slot{Kind: models.SlotKTS}))
	student, _ := snap.Student("s1")
	require.NotNil(t, student.Grades.Odd.KTS)
	assert.Equal(t, 90.0, *student.Grades.Odd.KTS)
}

func TestSessionServiceAvailableSlots(t *testing.T) {
	d := newTestDispatcher(t)
	svc := NewSessionService(d, nil, nil)

	slots, err := svc.AvailableSlots(context.Background(), teacherFixtureViewer(), SlotQuery{ClassName: "7A", Semester: models.SemesterOdd})
	require.NoError(t, err)
	assert.Len(t, slots, len(models.AllSlots())-2)
	assert.Equal(t, models.ChapterSlot(models.Chapter1, models.FieldF2), slots[0])
	assert.NotContains(t, slots, models.Slot{Kind: models.SlotKTS})
	assert.Contains(t, slots, models.Slot{Kind: models.SlotSAS})

	slots, err = svc.AvailableSlots(context.Background(), adminViewer(), SlotQuery{ClassName: "7A", Semester: models.SemesterEven})
	require.NoError(t, err)
	assert.Len(t, slots, len(models.AllSlots()))

	_, err = svc.AvailableSlots(context.Background(), adminViewer(), SlotQuery{Semester: models.SemesterOdd})
	requireCode(t, err, appErrors.ErrValidation.Code)
}
