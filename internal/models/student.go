package models

import "strings"

// Student is a learner with their grade records. Grades holds the default subject; Subjects
// holds every other subject keyed by name.
type Student struct {
	ID         string                   `json:"id"`
	RollNumber string                   `json:"roll_number"`
	RegNumber  string                   `json:"reg_number"`
	Name       string                   `json:"name"`
	ClassName  string                   `json:"class_name"`
	Gender     string                   `json:"gender"`
	Grades     SubjectGrades            `json:"grades"`
	Subjects   map[string]SubjectGrades `json:"subjects,omitempty"`
}

// NewStudent returns a student with empty grade records.
func NewStudent(id, rollNumber, regNumber, name, className, gender string) Student {
	return Student{
		ID:         id,
		RollNumber: rollNumber,
		RegNumber:  regNumber,
		Name:       name,
		ClassName:  className,
		Gender:     gender,
		Grades:     NewSubjectGrades(),
		Subjects:   map[string]SubjectGrades{},
	}
}

// Normalize fills maps left nil by decoding.
func (s *Student) Normalize() {
	if s.Subjects == nil {
		s.Subjects = map[string]SubjectGrades{}
	}
}

// Clone returns a deep copy safe to mutate.
func (s Student) Clone() Student {
	clone := s
	clone.Subjects = make(map[string]SubjectGrades, len(s.Subjects))
	for name, grades := range s.Subjects {
		clone.Subjects[name] = grades
	}
	return clone
}

// SubjectGrades returns the semester pair for subject. The default subject reads Grades;
// unknown subjects yield an empty pair.
func (s Student) SubjectGrades(subject, defaultSubject string) SubjectGrades {
	if isDefaultSubject(subject, defaultSubject) {
		return s.Grades
	}
	if grades, ok := s.Subjects[subject]; ok {
		return grades
	}
	return NewSubjectGrades()
}

// Semester returns the semester record for subject.
func (s Student) Semester(subject, defaultSubject string, semester SemesterKey) SemesterData {
	grades := s.SubjectGrades(subject, defaultSubject)
	if sem := grades.Semester(semester); sem != nil {
		return *sem
	}
	return NewSemesterData()
}

// SetScore writes value into slot, creating the subject entry on first write.
func (s *Student) SetScore(subject, defaultSubject string, semester SemesterKey, slot Slot, value *float64) {
	s.updateSubject(subject, defaultSubject, func(grades *SubjectGrades) {
		if sem := grades.Semester(semester); sem != nil {
			slot.Set(sem, value)
		}
	})
}

// ResetSemester clears every slot of the given subject and semester.
func (s *Student) ResetSemester(subject, defaultSubject string, semester SemesterKey) {
	s.updateSubject(subject, defaultSubject, func(grades *SubjectGrades) {
		if sem := grades.Semester(semester); sem != nil {
			*sem = NewSemesterData()
		}
	})
}

func (s *Student) updateSubject(subject, defaultSubject string, fn func(*SubjectGrades)) {
	if isDefaultSubject(subject, defaultSubject) {
		fn(&s.Grades)
		return
	}
	s.Normalize()
	grades, ok := s.Subjects[subject]
	if !ok {
		grades = NewSubjectGrades()
	}
	fn(&grades)
	s.Subjects[subject] = grades
}

func isDefaultSubject(subject, defaultSubject string) bool {
	return subject == "" || strings.EqualFold(subject, defaultSubject)
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassName string
	Classes   []string
	Page      int
	PageSize  int
}

// Matches reports whether the student satisfies the filter.
func (f StudentFilter) Matches(s Student) bool {
	if f.ClassName != "" && f.ClassName != s.ClassName {
		return false
	}
	if len(f.Classes) > 0 {
		found := false
		for _, className := range f.Classes {
			if className == s.ClassName {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(s.Name), needle) &&
			!strings.Contains(strings.ToLower(s.RegNumber), needle) &&
			!strings.Contains(strings.ToLower(s.RollNumber), needle) {
			return false
		}
	}
	return true
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
