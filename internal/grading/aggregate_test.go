package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
)

func TestChapterAverage(t *testing.T) {
	avg, ok := ChapterAverage(models.ChapterGrades{F1: models.Score(80), F2: models.Score(60)}, NewFieldSet(models.FieldF1, models.FieldF2))
	require.True(t, ok)
	assert.Equal(t, 70.0, avg)

	avg, ok = ChapterAverage(models.ChapterGrades{F1: models.Score(80)}, NewFieldSet(models.FieldF1, models.FieldF2))
	require.True(t, ok)
	assert.Equal(t, 40.0, avg)
}

func TestChapterAverageNoActiveFields(t *testing.T) {
	_, ok := ChapterAverage(models.ChapterGrades{F1: models.Score(80)}, FieldSet{})
	assert.False(t, ok)

	_, ok = ChapterAverage(models.ChapterGrades{F1: models.Score(80)}, nil)
	assert.False(t, ok)
}

func TestChapterAverageIgnoresInactiveValues(t *testing.T) {
	grades := models.ChapterGrades{F1: models.Score(90), F2: models.Score(10), Sum: models.Score(70)}
	avg, ok := ChapterAverage(grades, NewFieldSet(models.FieldF1, models.FieldSum))
	require.True(t, ok)
	assert.Equal(t, 80.0, avg)
}

func TestChapterAverageRoundsHalfAwayFromZero(t *testing.T) {
	grades := models.ChapterGrades{F1: models.Score(70), F2: models.Score(70.5)}
	avg, ok := ChapterAverage(grades, NewFieldSet(models.FieldF1, models.FieldF2))
	require.True(t, ok)
	assert.Equal(t, 70.3, avg)

	grades = models.ChapterGrades{F1: models.Score(100), F2: models.Score(100), F3: models.Score(0)}
	avg, ok = ChapterAverage(grades, NewFieldSet(models.FieldF1, models.FieldF2, models.FieldF3))
	require.True(t, ok)
	assert.Equal(t, 66.7, avg)
}

func TestChapterAverageStaysInRange(t *testing.T) {
	values := []float64{0, 0.05, 33.3, 49.95, 69.99, 70, 99.95, 100}
	for _, a := range values {
		for _, b := range values {
			grades := models.ChapterGrades{F1: models.Score(a), F3: models.Score(b), Sum: models.Score(b)}
			for _, active := range []FieldSet{
				NewFieldSet(models.FieldF1),
				NewFieldSet(models.FieldF1, models.FieldF2),
				NewFieldSet(models.FieldKeys...),
			} {
				avg, ok := ChapterAverage(grades, active)
				require.True(t, ok)
				assert.GreaterOrEqual(t, avg, 0.0)
				assert.LessOrEqual(t, avg, 100.0)
			}
		}
	}
}

func allActive() map[models.ChapterKey]FieldSet {
	out := map[models.ChapterKey]FieldSet{}
	for _, chapter := range models.ChapterKeys {
		out[chapter] = NewFieldSet(models.FieldF1, models.FieldSum)
	}
	return out
}

func hiddenChapters() models.ChapterVisibility {
	v := models.ChapterVisibility{}
	for _, chapter := range models.ChapterKeys {
		v[chapter] = false
	}
	return v
}

func TestFinalGradeAlwaysCountsExams(t *testing.T) {
	sem := models.NewSemesterData()
	sem.Ch1 = models.ChapterGrades{F1: models.Score(90), Sum: models.Score(70)}
	sem.KTS = models.Score(60)

	active := map[models.ChapterKey]FieldSet{models.Chapter1: NewFieldSet(models.FieldF1, models.FieldSum)}
	final, ok := FinalGrade(sem, active, models.DefaultChapterVisibility())
	require.True(t, ok)
	// (80 + 60 + 0) / 3
	assert.Equal(t, 46.7, final)
}

func TestFinalGradeZeroVisibleChapters(t *testing.T) {
	sem := models.NewSemesterData()
	sem.Ch1.F1 = models.Score(100)
	sem.KTS = models.Score(0)
	sem.SAS = models.Score(0)

	final, ok := FinalGrade(sem, allActive(), hiddenChapters())
	require.True(t, ok)
	assert.Equal(t, 0.0, final)
}

func TestFinalGradeHidingChapterRemovesIt(t *testing.T) {
	sem := models.NewSemesterData()
	sem.Ch1 = models.ChapterGrades{F1: models.Score(100), Sum: models.Score(100)}
	sem.Ch2 = models.ChapterGrades{F1: models.Score(40), Sum: models.Score(60)}
	sem.KTS = models.Score(80)
	sem.SAS = models.Score(70)
	active := map[models.ChapterKey]FieldSet{
		models.Chapter1: NewFieldSet(models.FieldF1, models.FieldSum),
		models.Chapter2: NewFieldSet(models.FieldF1, models.FieldSum),
	}

	visible := models.DefaultChapterVisibility()
	withChapter, ok := FinalGrade(sem, active, visible)
	require.True(t, ok)
	// (100 + 50 + 80 + 70) / 4
	assert.Equal(t, 75.0, withChapter)

	visible[models.Chapter2] = false
	withoutChapter, ok := FinalGrade(sem, active, visible)
	require.True(t, ok)
	// (100 + 80 + 70) / 3
	assert.Equal(t, 83.3, withoutChapter)
}

func TestFinalGradeSkipsChaptersWithoutActiveFields(t *testing.T) {
	sem := models.NewSemesterData()
	sem.Ch1.F1 = models.Score(90)
	sem.KTS = models.Score(90)
	sem.SAS = models.Score(90)

	final, ok := FinalGrade(sem, map[models.ChapterKey]FieldSet{}, models.DefaultChapterVisibility())
	require.True(t, ok)
	assert.Equal(t, 90.0, final)
}

func TestFinalGradeEmptySemester(t *testing.T) {
	for _, visibility := range []models.ChapterVisibility{models.DefaultChapterVisibility(), hiddenChapters(), nil} {
		final, ok := FinalGrade(models.NewSemesterData(), allActive(), visibility)
		require.True(t, ok)
		assert.Equal(t, 0.0, final)
	}
}

func TestFinalGradeDoesNotMutateInput(t *testing.T) {
	sem := models.NewSemesterData()
	sem.Ch1.F1 = models.Score(50)
	active := allActive()

	_, _ = FinalGrade(sem, active, models.DefaultChapterVisibility())
	assert.Nil(t, sem.KTS)
	assert.Nil(t, sem.SAS)
	assert.Nil(t, sem.Ch1.Sum)
	assert.Len(t, active, len(models.ChapterKeys))
}
