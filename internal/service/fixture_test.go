package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/state"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

type fakeBackend struct {
	mu      sync.Mutex
	pushed  []models.Mutation
	pushErr error
	// failPushes rejects that many pushes before accepting any.
	failPushes int
	dataset *models.Dataset
	loadErr error
}

func (f *fakeBackend) LoadInitialData(ctx context.Context) (*models.Dataset, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.dataset, nil
}

func (f *fakeBackend) Push(ctx context.Context, mutation models.Mutation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	if f.failPushes > 0 {
		f.failPushes--
		return errors.New("remote store unavailable")
	}
	f.pushed = append(f.pushed, mutation)
	return nil
}

func (f *fakeBackend) Pushed() []models.Mutation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Mutation(nil), f.pushed...)
}

func gradebookFixture() models.Dataset {
	ana := models.NewStudent("s1", "1", "R1", "Ana", "7A", "F")
	ana.Grades.Odd.Ch1.F1 = models.Score(80)
	ana.Grades.Odd.KTS = models.Score(90)
	budi := models.NewStudent("s2", "2", "R2", "Budi", "7A", "M")
	budi.Grades.Odd.Ch1.F1 = models.Score(0)
	budi.Grades.Odd.KTS = models.Score(60)
	cici := models.NewStudent("s3", "1", "R3", "Cici", "7B", "F")

	return models.Dataset{
		Students: []models.Student{budi, ana, cici},
		Teachers: []models.Teacher{
			{ID: "t1", Name: "Sari", Username: "sari", Password: "secret", Classes: []string{"7A"}, Subjects: []string{"Math"}},
		},
		History: []models.AssessmentSession{
			{ID: "h1", ClassName: "7A", Subject: "Math", Semester: models.SemesterOdd, Slot: models.ChapterSlot(models.Chapter1, models.FieldF1), Date: "2024-08-01"},
			{ID: "h2", ClassName: "7A", Subject: "Math", Semester: models.SemesterOdd, Slot: models.Slot{Kind: models.SlotKTS}, Date: "2024-09-15"},
		},
		Settings: models.Settings{SchoolName: "SMP 1", AcademicYear: "2024/2025", DefaultSubject: "Math"},
	}
}

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	return NewDispatcher(state.NewStore(gradebookFixture()), nil, nil, nil)
}

func adminViewer() models.Viewer {
	return models.NewViewer(models.ViewerAdmin, "admin", "Admin")
}

func teacherFixtureViewer() models.Viewer {
	return teacherViewer(gradebookFixture().Teachers[0])
}

func studentFixtureViewer(t *testing.T, d *Dispatcher, id string) models.Viewer {
	t.Helper()
	student, ok := d.Snapshot().Student(id)
	require.True(t, ok)
	return studentViewer(student)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected typed error, got %v", err)
	require.Equal(t, code, appErr.Code)
}
