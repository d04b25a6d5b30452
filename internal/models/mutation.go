package models

import (
	"encoding/json"
	"fmt"
)

// MutationName is the action name understood by the remote store.
type MutationName string

const (
	MutationSaveGrade         MutationName = "saveGrade"
	MutationSaveHistory       MutationName = "saveHistory"
	MutationDeleteHistory     MutationName = "deleteHistory"
	MutationAddStudent        MutationName = "addStudent"
	MutationUpdateStudent     MutationName = "updateStudent"
	MutationImportStudents    MutationName = "importStudents"
	MutationDeleteStudent     MutationName = "deleteStudent"
	MutationSaveChapterConfig MutationName = "saveChapterConfig"
	MutationSaveSettings      MutationName = "saveSettings"
	MutationResetClassGrades  MutationName = "resetClassGrades"
	MutationSaveTeacher       MutationName = "saveTeacher"
	MutationDeleteTeacher     MutationName = "deleteTeacher"
)

// Mutation is one change pushed to the remote store.
type Mutation struct {
	Action  MutationName
	Payload interface{}
}

// MarshalJSON flattens the payload next to the action name: {"action": ..., ...payload}.
func (m Mutation) MarshalJSON() ([]byte, error) {
	body := map[string]json.RawMessage{}
	if m.Payload != nil {
		raw, err := json.Marshal(m.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", m.Action, err)
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, fmt.Errorf("flatten %s payload: %w", m.Action, err)
		}
	}
	action, err := json.Marshal(m.Action)
	if err != nil {
		return nil, err
	}
	body["action"] = action
	return json.Marshal(body)
}

// SaveGradePayload writes one score cell.
type SaveGradePayload struct {
	StudentID string      `json:"studentId"`
	Subject   string      `json:"subject"`
	Semester  SemesterKey `json:"semester"`
	Slot
	Value *float64 `json:"value"`
}

// HistoryPayload carries an assessment session.
type HistoryPayload struct {
	Session AssessmentSession `json:"session"`
}

// StudentPayload carries a single student.
type StudentPayload struct {
	Student Student `json:"student"`
}

// ImportStudentsPayload carries a batch of new students.
type ImportStudentsPayload struct {
	Students []Student `json:"students"`
}

// DeletePayload identifies a record to delete.
type DeletePayload struct {
	ID string `json:"id"`
}

// ChapterConfigPayload stores a subject's chapter visibility.
type ChapterConfigPayload struct {
	Subject    string            `json:"subject"`
	Visibility ChapterVisibility `json:"visibility"`
}

// SettingsPayload stores school settings.
type SettingsPayload struct {
	Settings Settings `json:"settings"`
}

// ResetClassGradesPayload clears one semester of one subject for a whole class.
type ResetClassGradesPayload struct {
	ClassName string      `json:"className"`
	Subject   string      `json:"subject"`
	Semester  SemesterKey `json:"semester"`
}

// TeacherPayload carries a teacher account.
type TeacherPayload struct {
	Teacher Teacher `json:"teacher"`
}
