package models

import (
	"fmt"
	"strings"
	"time"
)

// SlotKind distinguishes chapter slots from the two standalone exams.
type SlotKind string

const (
	SlotChapter SlotKind = "chapter"
	SlotKTS     SlotKind = "kts"
	SlotSAS     SlotKind = "sas"
)

// Slot addresses a single score cell inside a semester record.
type Slot struct {
	Kind    SlotKind   `json:"kind" validate:"required,oneof=chapter kts sas"`
	Chapter ChapterKey `json:"chapter,omitempty"`
	Field   FieldKey   `json:"field,omitempty"`
}

// ChapterSlot builds a chapter slot.
func ChapterSlot(chapter ChapterKey, field FieldKey) Slot {
	return Slot{Kind: SlotChapter, Chapter: chapter, Field: field}
}

// Validate checks that chapter slots name a chapter and field and exam slots do not.
func (s Slot) Validate() error {
	switch s.Kind {
	case SlotChapter:
		if !s.Chapter.Valid() {
			return fmt.Errorf("unknown chapter %q", s.Chapter)
		}
		if !s.Field.Valid() {
			return fmt.Errorf("unknown field %q", s.Field)
		}
	case SlotKTS, SlotSAS:
		if s.Chapter != "" || s.Field != "" {
			return fmt.Errorf("%s slot takes no chapter or field", s.Kind)
		}
	default:
		return fmt.Errorf("unknown slot kind %q", s.Kind)
	}
	return nil
}

// String renders the slot as ch1.f1, kts or sas.
func (s Slot) String() string {
	if s.Kind == SlotChapter {
		return fmt.Sprintf("%s.%s", s.Chapter, s.Field)
	}
	return string(s.Kind)
}

// Get reads the slot from a semester record.
func (s Slot) Get(sem SemesterData) *float64 {
	switch s.Kind {
	case SlotKTS:
		return sem.KTS
	case SlotSAS:
		return sem.SAS
	default:
		return sem.ChapterAt(s.Chapter).Get(s.Field)
	}
}

// Set writes the slot into a semester record.
func (s Slot) Set(sem *SemesterData, value *float64) {
	switch s.Kind {
	case SlotKTS:
		sem.KTS = copyScore(value)
	case SlotSAS:
		sem.SAS = copyScore(value)
	default:
		if ch := sem.Chapter(s.Chapter); ch != nil {
			ch.Set(s.Field, value)
		}
	}
}

// AllSlots enumerates every slot of a semester: 30 chapter slots then kts and sas.
func AllSlots() []Slot {
	slots := make([]Slot, 0, len(ChapterKeys)*len(FieldKeys)+2)
	for _, chapter := range ChapterKeys {
		for _, field := range FieldKeys {
			slots = append(slots, ChapterSlot(chapter, field))
		}
	}
	return append(slots, Slot{Kind: SlotKTS}, Slot{Kind: SlotSAS})
}

// AssessmentSession is a history entry that opens a slot for a class, subject and semester.
type AssessmentSession struct {
	ID          string      `db:"id" json:"id"`
	ClassName   string      `db:"class_name" json:"class_name"`
	Subject     string      `db:"subject" json:"subject"`
	Semester    SemesterKey `db:"semester" json:"semester"`
	Slot        `db:"-"`
	Date        string    `db:"date" json:"date"`
	Description string    `db:"description" json:"description"`
	CreatedBy   string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Opens reports whether the session unlocks slot for the given scope.
func (s AssessmentSession) Opens(className, subject string, semester SemesterKey, slot Slot) bool {
	return s.ClassName == className && SameSubject(s.Subject, subject) && s.Semester == semester && s.Slot == slot
}

// SameSubject compares subject names ignoring case and surrounding spaces.
func SameSubject(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// SessionFilter narrows history listings.
type SessionFilter struct {
	ClassName string
	Subject   string
	Semester  SemesterKey
	Chapter   ChapterKey
}

// Matches reports whether the session satisfies every non-empty filter field.
func (f SessionFilter) Matches(s AssessmentSession) bool {
	if f.ClassName != "" && f.ClassName != s.ClassName {
		return false
	}
	if f.Subject != "" && !SameSubject(f.Subject, s.Subject) {
		return false
	}
	if f.Semester != "" && f.Semester != s.Semester {
		return false
	}
	if f.Chapter != "" && f.Chapter != s.Chapter {
		return false
	}
	return true
}
