package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func fixture() models.Dataset {
	return models.Dataset{
		Students: []models.Student{
			models.NewStudent("s1", "1", "R1", "Ana", "7A", "F"),
			models.NewStudent("s2", "2", "R2", "Budi", "7A", "M"),
			models.NewStudent("s3", "1", "R3", "Cici", "7B", "F"),
		},
		Teachers: []models.Teacher{{ID: "t1", Name: "Teacher", Username: "teacher", Password: "secret", Classes: []string{"7A"}}},
		History: []models.AssessmentSession{
			{ID: "h1", ClassName: "7A", Subject: "Math", Semester: models.SemesterOdd, Slot: models.ChapterSlot(models.Chapter1, models.FieldF1)},
			{ID: "h2", ClassName: "7A", Subject: "Math", Semester: models.SemesterOdd, Slot: models.Slot{Kind: models.SlotKTS}},
		},
		Settings: models.Settings{SchoolName: "SMP", DefaultSubject: "Math"},
	}
}

func TestStoreSaveGradeRequiresOpenSlot(t *testing.T) {
	store := NewStore(fixture())

	mutation, err := store.Dispatch(SaveGrade{StudentID: "s1", Subject: "Math", Semester: models.SemesterOdd, Slot: models.ChapterSlot(models.Chapter1, models.FieldF1), Value: models.Score(85)})
	require.NoError(t, err)
	assert.Equal(t, models.MutationSaveGrade, mutation.Action)

	student, ok := store.Snapshot().Student("s1")
	require.True(t, ok)
	require.NotNil(t, student.Grades.Odd.Ch1.F1)
	assert.Equal(t, 85.0, *student.Grades.Odd.Ch1.F1)

	_, err = store.Dispatch(SaveGrade{StudentID: "s1", Subject: "Math", Semester: models.SemesterOdd, Slot: models.ChapterSlot(models.Chapter1, models.FieldF2), Value: models.Score(85)})
	assert.ErrorIs(t, err, ErrSlotLocked)

	_, err = store.Dispatch(SaveGrade{StudentID: "s3", Subject: "Math", Semester: models.SemesterOdd, Slot: models.ChapterSlot(models.Chapter1, models.FieldF1), Value: models.Score(85)})
	assert.ErrorIs(t, err, ErrSlotLocked)
}

func TestStoreDeleteHistoryKeepsScore(t *testing.T) {
	store := NewStore(fixture())
	_, err := store.Dispatch(SaveGrade{StudentID: "s1", Semester: models.SemesterOdd, Slot: models.Slot{Kind: models.SlotKTS}, Value: models.Score(0)})
	require.NoError(t, err)

	_, err = store.Dispatch(DeleteHistory{ID: "h2"})
	require.NoError(t, err)

	snapshot := store.Snapshot()
	student, _ := snapshot.Student("s1")
	require.NotNil(t, student.Grades.Odd.KTS)
	assert.Equal(t, 0.0, *student.Grades.Odd.KTS)
	assert.False(t, snapshot.SlotOpen("7A", "Math", models.SemesterOdd, models.Slot{Kind: models.SlotKTS}))

	_, err = store.Dispatch(SaveGrade{StudentID: "s1", Semester: models.SemesterOdd, Slot: models.Slot{Kind: models.SlotKTS}, Value: models.Score(50)})
	assert.ErrorIs(t, err, ErrSlotLocked)
}

func TestStoreOtherSubjectCreatesFullRecord(t *testing.T) {
	ds := fixture()
	ds.History = append(ds.History, models.AssessmentSession{ID: "h3", ClassName: "7A", Subject: "Science", Semester: models.SemesterEven, Slot: models.ChapterSlot(models.Chapter3, models.FieldSum)})
	store := NewStore(ds)

	_, err := store.Dispatch(SaveGrade{StudentID: "s2", Subject: "Science", Semester: models.SemesterEven, Slot: models.ChapterSlot(models.Chapter3, models.FieldSum), Value: models.Score(72)})
	require.NoError(t, err)

	student, _ := store.Snapshot().Student("s2")
	science, ok := student.Subjects["Science"]
	require.True(t, ok)
	assert.Equal(t, 72.0, *science.Even.Ch3.Sum)
	assert.Equal(t, models.NewSemesterData(), science.Odd)
	assert.Nil(t, student.Grades.Even.Ch3.Sum)
}

func TestStoreFailedActionLeavesStateUntouched(t *testing.T) {
	store := NewStore(fixture())
	before := store.Snapshot()

	_, err := store.Dispatch(ImportStudents{Students: []models.Student{
		{ID: "n1", Name: "New", ClassName: "7C", RegNumber: "R9"},
		{ID: "n2", Name: "Dup", ClassName: "7C", RegNumber: "R1"},
	}})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, len(before.Students), len(store.Snapshot().Students))
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := NewStore(fixture())
	snapshot := store.Snapshot()
	snapshot.Students[0].Name = "Changed"
	snapshot.Students[0].Subjects["Art"] = models.NewSubjectGrades()

	fresh, _ := store.Snapshot().Student("s1")
	assert.Equal(t, "Ana", fresh.Name)
	assert.NotContains(t, fresh.Subjects, "Art")
}

func TestStoreResetClassGrades(t *testing.T) {
	store := NewStore(fixture())
	_, err := store.Dispatch(SaveGrade{StudentID: "s1", Semester: models.SemesterOdd, Slot: models.ChapterSlot(models.Chapter1, models.FieldF1), Value: models.Score(90)})
	require.NoError(t, err)

	mutation, err := store.Dispatch(ResetClassGrades{ClassName: "7A", Subject: "Math", Semester: models.SemesterOdd})
	require.NoError(t, err)
	assert.Equal(t, models.ResetClassGradesPayload{ClassName: "7A", Subject: "Math", Semester: models.SemesterOdd}, mutation.Payload)

	student, _ := store.Snapshot().Student("s1")
	assert.Nil(t, student.Grades.Odd.Ch1.F1)
}

func TestStoreChapterConfigFallsBackToGlobal(t *testing.T) {
	ds := fixture()
	ds.Settings.ChapterVisibility = models.ChapterVisibility{models.Chapter5: false}
	store := NewStore(ds)

	visibility := store.Snapshot().Visibility("Science")
	assert.Len(t, visibility, 5)
	assert.False(t, visibility[models.Chapter5])
	assert.True(t, visibility[models.Chapter1])

	_, err := store.Dispatch(SaveChapterConfig{Subject: "Science", Visibility: models.ChapterVisibility{models.Chapter2: false}})
	require.NoError(t, err)

	visibility = store.Snapshot().Visibility("Science")
	assert.Len(t, visibility, 5)
	assert.False(t, visibility[models.Chapter2])
	assert.False(t, visibility[models.Chapter5])
	assert.True(t, store.Snapshot().Visibility("Math")[models.Chapter2])
}

func TestStoreSaveTeacherKeepsPassword(t *testing.T) {
	store := NewStore(fixture())
	_, err := store.Dispatch(SaveTeacher{Teacher: models.Teacher{ID: "t1", Name: "Renamed", Username: "teacher"}})
	require.NoError(t, err)

	teacher, ok := store.Snapshot().Teacher("t1")
	require.True(t, ok)
	assert.Equal(t, "Renamed", teacher.Name)
	assert.Equal(t, "secret", teacher.Password)

	_, err = store.Dispatch(SaveTeacher{Teacher: models.Teacher{ID: "t2", Name: "Other", Username: "TEACHER", Password: "x"}})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestStoreSaveHistoryAllowsRepeatedSlot(t *testing.T) {
	store := NewStore(fixture())

	_, err := store.Dispatch(SaveHistory{Session: models.AssessmentSession{ID: "h3", ClassName: "7A", Subject: "Math", Semester: models.SemesterOdd, Slot: models.ChapterSlot(models.Chapter1, models.FieldF1)}})
	require.NoError(t, err)

	_, err = store.Dispatch(SaveHistory{Session: models.AssessmentSession{ID: "h1", ClassName: "7A", Subject: "Math", Semester: models.SemesterOdd, Slot: models.ChapterSlot(models.Chapter1, models.FieldF1), Description: "renamed"}})
	require.NoError(t, err)
	assert.Len(t, store.Snapshot().History, 3)

	_, err = store.Dispatch(DeleteHistory{ID: "h1"})
	require.NoError(t, err)
	assert.True(t, store.Snapshot().SlotOpen("7A", "Math", models.SemesterOdd, models.ChapterSlot(models.Chapter1, models.FieldF1)))
}

func TestStoreSubjectSpellingFollowsExistingRecords(t *testing.T) {
	ds := fixture()
	ds.ChapterConfigs = models.ChapterConfigs{"Science": {models.Chapter3: false}}
	store := NewStore(ds)
	snap := store.Snapshot()

	assert.Equal(t, "Math", snap.SubjectName(" math "))
	assert.Equal(t, "Science", snap.SubjectName("SCIENCE"))
	assert.Equal(t, "Art", snap.SubjectName("Art"))
	assert.False(t, snap.Visibility("science")[models.Chapter3])

	_, err := store.Dispatch(SaveGrade{StudentID: "s1", Subject: "math", Semester: models.SemesterOdd, Slot: models.ChapterSlot(models.Chapter1, models.FieldF1), Value: models.Score(70)})
	require.NoError(t, err)

	mutation, err := store.Dispatch(SaveHistory{Session: models.AssessmentSession{ID: "h3", ClassName: "7A", Subject: "MATH", Semester: models.SemesterOdd, Slot: models.ChapterSlot(models.Chapter2, models.FieldF1)}})
	require.NoError(t, err)
	payload, ok := mutation.Payload.(models.HistoryPayload)
	require.True(t, ok)
	assert.Equal(t, "Math", payload.Session.Subject)
	assert.True(t, store.Snapshot().SlotOpen("7A", "Math", models.SemesterOdd, models.ChapterSlot(models.Chapter2, models.FieldF1)))
}
