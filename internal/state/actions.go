package state

import (
	"fmt"
	"strings"

	"github.com/noah-isme/gradebook-api/internal/models"
)

// Action is a reducer step. Apply mutates the state it is given and returns the mutation that
// mirrors the change on the remote store.
type Action interface {
	Apply(s *State) (models.Mutation, error)
}

// SaveGrade writes one score. The slot must be opened by an assessment session.
type SaveGrade struct {
	StudentID string
	Subject   string
	Semester  models.SemesterKey
	Slot      models.Slot
	Value     *float64
}

// Apply implements Action.
func (a SaveGrade) Apply(s *State) (models.Mutation, error) {
	if !a.Semester.Valid() {
		return models.Mutation{}, fmt.Errorf("%w: unknown semester %q", ErrInvalid, a.Semester)
	}
	if err := a.Slot.Validate(); err != nil {
		return models.Mutation{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	i := s.studentIndex(a.StudentID)
	if i < 0 {
		return models.Mutation{}, fmt.Errorf("%w: student %s", ErrNotFound, a.StudentID)
	}
	subject := s.subjectName(a.Subject)
	student := &s.Students[i]
	if !s.SlotOpen(student.ClassName, subject, a.Semester, a.Slot) {
		return models.Mutation{}, fmt.Errorf("%w: %s %s %s", ErrSlotLocked, subject, a.Semester, a.Slot)
	}
	student.SetScore(subject, s.Settings.DefaultSubject, a.Semester, a.Slot, a.Value)
	return models.Mutation{
		Action: models.MutationSaveGrade,
		Payload: models.SaveGradePayload{
			StudentID: a.StudentID,
			Subject:   subject,
			Semester:  a.Semester,
			Slot:      a.Slot,
			Value:     a.Value,
		},
	}, nil
}

// SaveHistory records or updates an assessment session. A slot can be opened once per
// class, subject and semester.
type SaveHistory struct {
	Session models.AssessmentSession
}

// Apply implements Action.
func (a SaveHistory) Apply(s *State) (models.Mutation, error) {
	session := a.Session
	if session.ID == "" || strings.TrimSpace(session.ClassName) == "" {
		return models.Mutation{}, fmt.Errorf("%w: session id and class required", ErrInvalid)
	}
	if !session.Semester.Valid() {
		return models.Mutation{}, fmt.Errorf("%w: unknown semester %q", ErrInvalid, session.Semester)
	}
	if err := session.Slot.Validate(); err != nil {
		return models.Mutation{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	session.Subject = s.subjectName(session.Subject)
	if i := s.sessionIndex(session.ID); i >= 0 {
		s.History[i] = session
	} else {
		s.History = append(s.History, session)
	}
	return models.Mutation{Action: models.MutationSaveHistory, Payload: models.HistoryPayload{Session: session}}, nil
}

// DeleteHistory removes a session. Scores already written stay in place and become read-only.
type DeleteHistory struct {
	ID string
}

// Apply implements Action.
func (a DeleteHistory) Apply(s *State) (models.Mutation, error) {
	i := s.sessionIndex(a.ID)
	if i < 0 {
		return models.Mutation{}, fmt.Errorf("%w: session %s", ErrNotFound, a.ID)
	}
	s.History = append(s.History[:i], s.History[i+1:]...)
	return models.Mutation{Action: models.MutationDeleteHistory, Payload: models.DeletePayload{ID: a.ID}}, nil
}

// AddStudent inserts a new student with empty grades.
type AddStudent struct {
	Student models.Student
}

// Apply implements Action.
func (a AddStudent) Apply(s *State) (models.Mutation, error) {
	student, err := s.prepareNewStudent(a.Student)
	if err != nil {
		return models.Mutation{}, err
	}
	s.Students = append(s.Students, student)
	return models.Mutation{Action: models.MutationAddStudent, Payload: models.StudentPayload{Student: student.Clone()}}, nil
}

// UpdateStudent replaces a student's identity fields. Grades are kept.
type UpdateStudent struct {
	Student models.Student
}

// Apply implements Action.
func (a UpdateStudent) Apply(s *State) (models.Mutation, error) {
	i := s.studentIndex(a.Student.ID)
	if i < 0 {
		return models.Mutation{}, fmt.Errorf("%w: student %s", ErrNotFound, a.Student.ID)
	}
	if err := validateIdentity(a.Student); err != nil {
		return models.Mutation{}, err
	}
	if s.regNumberTaken(a.Student.RegNumber, a.Student.ID) {
		return models.Mutation{}, fmt.Errorf("%w: registration number %s", ErrDuplicate, a.Student.RegNumber)
	}
	current := &s.Students[i]
	current.RollNumber = a.Student.RollNumber
	current.RegNumber = a.Student.RegNumber
	current.Name = a.Student.Name
	current.ClassName = a.Student.ClassName
	current.Gender = a.Student.Gender
	return models.Mutation{Action: models.MutationUpdateStudent, Payload: models.StudentPayload{Student: current.Clone()}}, nil
}

// ImportStudents appends a batch of new students. The batch is rejected as a whole when any
// student is invalid.
type ImportStudents struct {
	Students []models.Student
}

// Apply implements Action.
func (a ImportStudents) Apply(s *State) (models.Mutation, error) {
	added := make([]models.Student, 0, len(a.Students))
	for _, candidate := range a.Students {
		student, err := s.prepareNewStudent(candidate)
		if err != nil {
			return models.Mutation{}, err
		}
		s.Students = append(s.Students, student)
		added = append(added, student.Clone())
	}
	return models.Mutation{Action: models.MutationImportStudents, Payload: models.ImportStudentsPayload{Students: added}}, nil
}

// DeleteStudent removes a student and its grades.
type DeleteStudent struct {
	ID string
}

// Apply implements Action.
func (a DeleteStudent) Apply(s *State) (models.Mutation, error) {
	i := s.studentIndex(a.ID)
	if i < 0 {
		return models.Mutation{}, fmt.Errorf("%w: student %s", ErrNotFound, a.ID)
	}
	s.Students = append(s.Students[:i], s.Students[i+1:]...)
	return models.Mutation{Action: models.MutationDeleteStudent, Payload: models.DeletePayload{ID: a.ID}}, nil
}

// SaveChapterConfig stores a subject's chapter visibility.
type SaveChapterConfig struct {
	Subject    string
	Visibility models.ChapterVisibility
}

// Apply implements Action.
func (a SaveChapterConfig) Apply(s *State) (models.Mutation, error) {
	subject := s.subjectName(strings.TrimSpace(a.Subject))
	if subject == "" {
		return models.Mutation{}, fmt.Errorf("%w: subject required", ErrInvalid)
	}
	visibility := a.Visibility.Normalize(s.Settings.ChapterVisibility)
	s.ChapterConfigs[subject] = visibility
	return models.Mutation{
		Action:  models.MutationSaveChapterConfig,
		Payload: models.ChapterConfigPayload{Subject: subject, Visibility: visibility},
	}, nil
}

// SaveSettings replaces school settings.
type SaveSettings struct {
	Settings models.Settings
}

// Apply implements Action.
func (a SaveSettings) Apply(s *State) (models.Mutation, error) {
	settings := a.Settings
	if strings.TrimSpace(settings.DefaultSubject) == "" {
		settings.DefaultSubject = s.Settings.DefaultSubject
	}
	settings.ChapterVisibility = settings.ChapterVisibility.Normalize(s.Settings.ChapterVisibility)
	s.Settings = settings
	return models.Mutation{Action: models.MutationSaveSettings, Payload: models.SettingsPayload{Settings: settings}}, nil
}

// ResetClassGrades clears one subject and semester for every student of a class.
type ResetClassGrades struct {
	ClassName string
	Subject   string
	Semester  models.SemesterKey
}

// Apply implements Action.
func (a ResetClassGrades) Apply(s *State) (models.Mutation, error) {
	if strings.TrimSpace(a.ClassName) == "" {
		return models.Mutation{}, fmt.Errorf("%w: class required", ErrInvalid)
	}
	if !a.Semester.Valid() {
		return models.Mutation{}, fmt.Errorf("%w: unknown semester %q", ErrInvalid, a.Semester)
	}
	subject := s.subjectName(a.Subject)
	for i := range s.Students {
		if s.Students[i].ClassName == a.ClassName {
			s.Students[i].ResetSemester(subject, s.Settings.DefaultSubject, a.Semester)
		}
	}
	return models.Mutation{
		Action:  models.MutationResetClassGrades,
		Payload: models.ResetClassGradesPayload{ClassName: a.ClassName, Subject: subject, Semester: a.Semester},
	}, nil
}

// SaveTeacher creates or updates a teacher. An empty password on update keeps the old one.
type SaveTeacher struct {
	Teacher models.Teacher
}

// Apply implements Action.
func (a SaveTeacher) Apply(s *State) (models.Mutation, error) {
	teacher := cloneTeacher(a.Teacher)
	if teacher.ID == "" || strings.TrimSpace(teacher.Username) == "" || strings.TrimSpace(teacher.Name) == "" {
		return models.Mutation{}, fmt.Errorf("%w: teacher id, name and username required", ErrInvalid)
	}
	for _, other := range s.Teachers {
		if other.ID != teacher.ID && strings.EqualFold(other.Username, teacher.Username) {
			return models.Mutation{}, fmt.Errorf("%w: username %s", ErrDuplicate, teacher.Username)
		}
	}
	if i := s.teacherIndex(teacher.ID); i >= 0 {
		if teacher.Password == "" {
			teacher.Password = s.Teachers[i].Password
		}
		s.Teachers[i] = teacher
	} else {
		if teacher.Password == "" {
			return models.Mutation{}, fmt.Errorf("%w: password required", ErrInvalid)
		}
		s.Teachers = append(s.Teachers, teacher)
	}
	return models.Mutation{Action: models.MutationSaveTeacher, Payload: models.TeacherPayload{Teacher: cloneTeacher(teacher)}}, nil
}

// DeleteTeacher removes a teacher.
type DeleteTeacher struct {
	ID string
}

// Apply implements Action.
func (a DeleteTeacher) Apply(s *State) (models.Mutation, error) {
	i := s.teacherIndex(a.ID)
	if i < 0 {
		return models.Mutation{}, fmt.Errorf("%w: teacher %s", ErrNotFound, a.ID)
	}
	s.Teachers = append(s.Teachers[:i], s.Teachers[i+1:]...)
	return models.Mutation{Action: models.MutationDeleteTeacher, Payload: models.DeletePayload{ID: a.ID}}, nil
}

func (s *State) prepareNewStudent(candidate models.Student) (models.Student, error) {
	if candidate.ID == "" {
		return models.Student{}, fmt.Errorf("%w: student id required", ErrInvalid)
	}
	if err := validateIdentity(candidate); err != nil {
		return models.Student{}, err
	}
	if s.studentIndex(candidate.ID) >= 0 {
		return models.Student{}, fmt.Errorf("%w: student %s", ErrDuplicate, candidate.ID)
	}
	if s.regNumberTaken(candidate.RegNumber, candidate.ID) {
		return models.Student{}, fmt.Errorf("%w: registration number %s", ErrDuplicate, candidate.RegNumber)
	}
	return models.NewStudent(candidate.ID, candidate.RollNumber, candidate.RegNumber, candidate.Name, candidate.ClassName, candidate.Gender), nil
}

func (s *State) regNumberTaken(regNumber, excludeID string) bool {
	if regNumber == "" {
		return false
	}
	for _, student := range s.Students {
		if student.ID != excludeID && strings.EqualFold(student.RegNumber, regNumber) {
			return true
		}
	}
	return false
}

func validateIdentity(student models.Student) error {
	if strings.TrimSpace(student.Name) == "" || strings.TrimSpace(student.ClassName) == "" {
		return fmt.Errorf("%w: student name and class required", ErrInvalid)
	}
	return nil
}
