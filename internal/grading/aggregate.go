package grading

import (
	"math"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ChapterAverage averages the active slots of a chapter. Unset active slots count as zero and
// the denominator is the number of active slots. The second result is false when no slot is active.
func ChapterAverage(grades models.ChapterGrades, active FieldSet) (float64, bool) {
	if len(active) == 0 {
		return 0, false
	}
	total := 0.0
	count := 0
	for _, field := range models.FieldKeys {
		if !active.Has(field) {
			continue
		}
		count++
		if v := grades.Get(field); v != nil {
			total += *v
		}
	}
	if count == 0 {
		return 0, false
	}
	return Round1(total / float64(count)), true
}

// FinalGrade averages the visible chapters that have an average together with the mid-term
// and end-of-term scores. Both exams always count, as zero when unset.
func FinalGrade(sem models.SemesterData, active map[models.ChapterKey]FieldSet, visibility models.ChapterVisibility) (float64, bool) {
	total := 0.0
	count := 0
	for _, chapter := range models.ChapterKeys {
		if !visibility.Visible(chapter) {
			continue
		}
		avg, ok := ChapterAverage(sem.ChapterAt(chapter), active[chapter])
		if !ok {
			continue
		}
		total += avg
		count++
	}
	total += valueOrZero(sem.KTS)
	count++
	total += valueOrZero(sem.SAS)
	count++
	if count == 0 {
		return 0, false
	}
	return Round1(total / float64(count)), true
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
