package grading

import "github.com/noah-isme/gradebook-api/internal/models"

// FieldSet is the set of chapter slots in play for a cohort.
type FieldSet map[models.FieldKey]struct{}

// NewFieldSet builds a set from keys.
func NewFieldSet(keys ...models.FieldKey) FieldSet {
	set := make(FieldSet, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s FieldSet) Has(key models.FieldKey) bool {
	_, ok := s[key]
	return ok
}

// Keys returns members in display order.
func (s FieldSet) Keys() []models.FieldKey {
	keys := make([]models.FieldKey, 0, len(s))
	for _, key := range models.FieldKeys {
		if s.Has(key) {
			keys = append(keys, key)
		}
	}
	return keys
}

// ResolveActiveFields returns the slots of chapter that at least one student in cohort has filled
// for the subject and semester.
func ResolveActiveFields(cohort []models.Student, subject, defaultSubject string, semester models.SemesterKey, chapter models.ChapterKey) FieldSet {
	active := FieldSet{}
	for _, student := range cohort {
		grades := student.Semester(subject, defaultSubject, semester).ChapterAt(chapter)
		for _, field := range models.FieldKeys {
			if grades.Get(field) != nil {
				active[field] = struct{}{}
			}
		}
		if len(active) == len(models.FieldKeys) {
			break
		}
	}
	return active
}

// ResolveActiveFieldsFromSessions returns the chapter slots opened by a session for the class,
// subject and semester. Used where the question is whether a slot was ever assessed.
func ResolveActiveFieldsFromSessions(history []models.AssessmentSession, className, subject string, semester models.SemesterKey, chapter models.ChapterKey) FieldSet {
	active := FieldSet{}
	for _, session := range history {
		if session.Kind != models.SlotChapter || session.Chapter != chapter {
			continue
		}
		if session.ClassName != className || !models.SameSubject(session.Subject, subject) || session.Semester != semester {
			continue
		}
		if session.Field.Valid() {
			active[session.Field] = struct{}{}
		}
	}
	return active
}

// ActiveFieldsByChapter resolves data-driven active fields for every chapter.
func ActiveFieldsByChapter(cohort []models.Student, subject, defaultSubject string, semester models.SemesterKey) map[models.ChapterKey]FieldSet {
	out := make(map[models.ChapterKey]FieldSet, len(models.ChapterKeys))
	for _, chapter := range models.ChapterKeys {
		out[chapter] = ResolveActiveFields(cohort, subject, defaultSubject, semester, chapter)
	}
	return out
}

// SessionFieldsByChapter resolves session-driven active fields for every chapter.
func SessionFieldsByChapter(history []models.AssessmentSession, className, subject string, semester models.SemesterKey) map[models.ChapterKey]FieldSet {
	out := make(map[models.ChapterKey]FieldSet, len(models.ChapterKeys))
	for _, chapter := range models.ChapterKeys {
		out[chapter] = ResolveActiveFieldsFromSessions(history, className, subject, semester, chapter)
	}
	return out
}
