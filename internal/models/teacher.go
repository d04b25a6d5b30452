package models

import "strings"

// Teacher is a staff account allowed to enter grades for its classes and subjects.
type Teacher struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Password string   `json:"password,omitempty"`
	Classes  []string `json:"classes"`
	Subjects []string `json:"subjects"`
}

// Public returns a copy without the password.
func (t Teacher) Public() Teacher {
	t.Password = ""
	t.Classes = append([]string(nil), t.Classes...)
	t.Subjects = append([]string(nil), t.Subjects...)
	return t
}

// Teaches reports whether the teacher is assigned to the class.
func (t Teacher) Teaches(className string) bool {
	return containsFold(t.Classes, className)
}

// TeachesSubject reports whether the teacher is assigned to the subject.
func (t Teacher) TeachesSubject(subject string) bool {
	return containsFold(t.Subjects, subject)
}

func containsFold(values []string, needle string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(needle)) {
			return true
		}
	}
	return false
}
