package models

import "time"

// Classification flags a score for remediation monitoring.
type Classification string

const (
	ClassificationNone        Classification = "none"
	ClassificationOutstanding Classification = "outstanding"
	ClassificationRemedial    Classification = "remedial"
)

// RecapScope selects one class, subject and semester.
type RecapScope struct {
	ClassName string      `form:"class" json:"class_name" validate:"required"`
	Subject   string      `form:"subject" json:"subject"`
	Semester  SemesterKey `form:"semester" json:"semester" validate:"required,oneof=odd even"`
}

// ChapterResult is one chapter of a recap row.
type ChapterResult struct {
	Chapter ChapterKey    `json:"chapter"`
	Visible bool          `json:"visible"`
	Grades  ChapterGrades `json:"grades"`
	Average *float64      `json:"average"`
}

// RecapRow is a student's computed semester summary.
type RecapRow struct {
	StudentID  string          `json:"student_id"`
	RollNumber string          `json:"roll_number"`
	RegNumber  string          `json:"reg_number"`
	Name       string          `json:"name"`
	ClassName  string          `json:"class_name"`
	Chapters   []ChapterResult `json:"chapters"`
	KTS        *float64        `json:"kts"`
	SAS        *float64        `json:"sas"`
	Final      *float64        `json:"final"`
	// Classification applies to the final grade.
	Classification Classification `json:"classification"`
}

// ClassRecap aggregates a class for one subject and semester.
type ClassRecap struct {
	RecapScope
	ActiveFields map[ChapterKey][]FieldKey `json:"active_fields"`
	Visibility   ChapterVisibility         `json:"visibility"`
	Rows         []RecapRow                `json:"rows"`
	GeneratedAt  time.Time                 `json:"generated_at"`
}

// MonitoredStudent is a student listed under a monitoring bucket.
type MonitoredStudent struct {
	StudentID  string  `json:"student_id"`
	RollNumber string  `json:"roll_number"`
	Name       string  `json:"name"`
	Score      float64 `json:"score"`
}

// MonitoringEntry lists students needing follow-up for one session.
type MonitoringEntry struct {
	Session     AssessmentSession  `json:"session"`
	Outstanding []MonitoredStudent `json:"outstanding"`
	Remedial    []MonitoredStudent `json:"remedial"`
}

// MonitoringReport groups monitoring entries for a scope.
type MonitoringReport struct {
	RecapScope
	Entries []MonitoringEntry `json:"entries"`
}

// StudentDashboard is a student's own view of one subject and semester.
type StudentDashboard struct {
	Student      RecapRow                  `json:"student"`
	Subject      string                    `json:"subject"`
	Semester     SemesterKey               `json:"semester"`
	ActiveFields map[ChapterKey][]FieldKey `json:"active_fields"`
	Subjects     []string                  `json:"subjects"`
}
