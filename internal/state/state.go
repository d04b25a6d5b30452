// Package state holds the in-memory application state. Reads return copies and every write
// goes through Store.Dispatch so callers never depend on how the state is kept.
package state

import (
	"errors"
	"strings"
	"sync"

	"github.com/noah-isme/gradebook-api/internal/models"
)

var (
	// ErrNotFound is returned when an action references a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrSlotLocked is returned when a score is written to a slot no session has opened.
	ErrSlotLocked = errors.New("slot is not open for input")
	// ErrDuplicate is returned when a record collides with an existing one.
	ErrDuplicate = errors.New("record already exists")
	// ErrInvalid is returned for actions that fail validation against the state.
	ErrInvalid = errors.New("invalid action")
)

// State is the application data set.
type State struct {
	Students       []models.Student
	Teachers       []models.Teacher
	History        []models.AssessmentSession
	Settings       models.Settings
	ChapterConfigs models.ChapterConfigs
}

// FromDataset builds a state from a remote data set without sharing memory with it.
func FromDataset(ds models.Dataset) State {
	settings := ds.Settings
	if settings.DefaultSubject == "" {
		settings.DefaultSubject = models.DefaultSettings().DefaultSubject
	}
	settings.ChapterVisibility = settings.ChapterVisibility.Normalize(models.DefaultChapterVisibility())

	s := State{
		Students:       make([]models.Student, 0, len(ds.Students)),
		Teachers:       make([]models.Teacher, 0, len(ds.Teachers)),
		History:        append([]models.AssessmentSession{}, ds.History...),
		Settings:       settings,
		ChapterConfigs: make(models.ChapterConfigs, len(ds.ChapterConfigs)),
	}
	for _, student := range ds.Students {
		s.Students = append(s.Students, student.Clone())
	}
	for _, teacher := range ds.Teachers {
		s.Teachers = append(s.Teachers, cloneTeacher(teacher))
	}
	for subject, visibility := range ds.ChapterConfigs {
		s.ChapterConfigs[subject] = visibility.Normalize(settings.ChapterVisibility)
	}
	return s
}

// Dataset converts the state back into a data set.
func (s State) Dataset() models.Dataset {
	c := s.clone()
	return models.Dataset{
		Students:       c.Students,
		Teachers:       c.Teachers,
		History:        c.History,
		Settings:       c.Settings,
		ChapterConfigs: c.ChapterConfigs,
	}
}

// Visibility resolves the chapter visibility of a subject.
func (s State) Visibility(subject string) models.ChapterVisibility {
	return s.Settings.VisibilityFor(s.ChapterConfigs, s.subjectName(subject))
}

// SubjectName maps an empty subject to the default subject.
func (s State) SubjectName(subject string) string {
	return s.subjectName(subject)
}

// subjectName maps subject onto the spelling already in use: the default subject, a chapter
// config, a session or a student record. Unknown subjects are kept as given.
func (s State) subjectName(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == "" || strings.EqualFold(subject, s.Settings.DefaultSubject) {
		return s.Settings.DefaultSubject
	}
	for name := range s.ChapterConfigs {
		if strings.EqualFold(name, subject) {
			return name
		}
	}
	for _, session := range s.History {
		if strings.EqualFold(session.Subject, subject) {
			return session.Subject
		}
	}
	for _, student := range s.Students {
		for name := range student.Subjects {
			if strings.EqualFold(name, subject) {
				return name
			}
		}
	}
	return subject
}

// Cohort returns copies of the students of a class.
func (s State) Cohort(className string) []models.Student {
	out := make([]models.Student, 0)
	for _, student := range s.Students {
		if student.ClassName == className {
			out = append(out, student.Clone())
		}
	}
	return out
}

// Student returns a copy of a student by ID.
func (s State) Student(id string) (models.Student, bool) {
	if i := s.studentIndex(id); i >= 0 {
		return s.Students[i].Clone(), true
	}
	return models.Student{}, false
}

// Teacher returns a copy of a teacher by ID.
func (s State) Teacher(id string) (models.Teacher, bool) {
	if i := s.teacherIndex(id); i >= 0 {
		return cloneTeacher(s.Teachers[i]), true
	}
	return models.Teacher{}, false
}

// SlotOpen reports whether any session opens the slot for the scope.
func (s State) SlotOpen(className, subject string, semester models.SemesterKey, slot models.Slot) bool {
	subject = s.subjectName(subject)
	for _, session := range s.History {
		if session.Opens(className, subject, semester, slot) {
			return true
		}
	}
	return false
}

func (s State) studentIndex(id string) int {
	for i := range s.Students {
		if s.Students[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) teacherIndex(id string) int {
	for i := range s.Teachers {
		if s.Teachers[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) sessionIndex(id string) int {
	for i := range s.History {
		if s.History[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) clone() State {
	return FromDataset(models.Dataset{
		Students:       s.Students,
		Teachers:       s.Teachers,
		History:        s.History,
		Settings:       s.Settings,
		ChapterConfigs: s.ChapterConfigs,
	})
}

func cloneTeacher(t models.Teacher) models.Teacher {
	t.Classes = append([]string(nil), t.Classes...)
	t.Subjects = append([]string(nil), t.Subjects...)
	return t
}

// Store guards the state. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore returns a store seeded with the data set.
func NewStore(ds models.Dataset) *Store {
	return &Store{state: FromDataset(ds)}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Replace swaps the whole state, used after the initial load.
func (s *Store) Replace(ds models.Dataset) {
	next := FromDataset(ds)
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

// Dispatch applies the action atomically and returns the mutation to push to the remote store.
// The state is left untouched when the action fails.
func (s *Store) Dispatch(action Action) (models.Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.clone()
	mutation, err := action.Apply(&next)
	if err != nil {
		return models.Mutation{}, err
	}
	s.state = next
	return mutation, nil
}

// Counts returns the number of students, teachers and sessions held.
func (s *Store) Counts() (students, teachers, sessions int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Students), len(s.state.Teachers), len(s.state.History)
}
