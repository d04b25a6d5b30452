package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/gradebook-api/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// ErrUnknownMutation is returned for actions the repository cannot apply.
var ErrUnknownMutation = errors.New("unknown mutation")

type studentRow struct {
	ID         string `db:"id"`
	RollNumber string `db:"roll_number"`
	RegNumber  string `db:"reg_number"`
	Name       string `db:"name"`
	ClassName  string `db:"class_name"`
	Gender     string `db:"gender"`
	Grades     []byte `db:"grades"`
	Subjects   []byte `db:"subjects"`
}

func (r studentRow) toModel() (models.Student, error) {
	s := models.NewStudent(r.ID, r.RollNumber, r.RegNumber, r.Name, r.ClassName, r.Gender)
	if len(r.Grades) > 0 {
		if err := json.Unmarshal(r.Grades, &s.Grades); err != nil {
			return s, fmt.Errorf("decode grades of %s: %w", r.ID, err)
		}
	}
	if len(r.Subjects) > 0 {
		if err := json.Unmarshal(r.Subjects, &s.Subjects); err != nil {
			return s, fmt.Errorf("decode subjects of %s: %w", r.ID, err)
		}
	}
	s.Normalize()
	return s, nil
}

type teacherRow struct {
	ID       string         `db:"id"`
	Name     string         `db:"name"`
	Username string         `db:"username"`
	Password string         `db:"password"`
	Classes  pq.StringArray `db:"classes"`
	Subjects pq.StringArray `db:"subjects"`
}

type sessionRow struct {
	ID          string    `db:"id"`
	ClassName   string    `db:"class_name"`
	Subject     string    `db:"subject"`
	Semester    string    `db:"semester"`
	Kind        string    `db:"kind"`
	Chapter     string    `db:"chapter"`
	Field       string    `db:"field"`
	Date        string    `db:"date"`
	Description string    `db:"description"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

type settingsRow struct {
	SchoolName        string `db:"school_name"`
	AcademicYear      string `db:"academic_year"`
	DefaultSubject    string `db:"default_subject"`
	ChapterVisibility []byte `db:"chapter_visibility"`
}

type chapterConfigRow struct {
	Subject    string `db:"subject"`
	Visibility []byte `db:"visibility"`
}

// PostgresRepository keeps the grade book in PostgreSQL. It speaks the same load/push contract
// as the spreadsheet endpoint so either can back the service.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates missing tables.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// LoadInitialData reads every table into a dataset.
func (r *PostgresRepository) LoadInitialData(ctx context.Context) (*models.Dataset, error) {
	dataset := &models.Dataset{}

	var students []studentRow
	if err := r.db.SelectContext(ctx, &students, `SELECT id, roll_number, reg_number, name, class_name, gender, grades, subjects FROM students ORDER BY class_name, roll_number, name`); err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	for _, row := range students {
		student, err := row.toModel()
		if err != nil {
			return nil, err
		}
		dataset.Students = append(dataset.Students, student)
	}

	var teachers []teacherRow
	if err := r.db.SelectContext(ctx, &teachers, `SELECT id, name, username, password, classes, subjects FROM teachers ORDER BY name`); err != nil {
		return nil, fmt.Errorf("load teachers: %w", err)
	}
	for _, row := range teachers {
		dataset.Teachers = append(dataset.Teachers, models.Teacher{
			ID:       row.ID,
			Name:     row.Name,
			Username: row.Username,
			Password: row.Password,
			Classes:  []string(row.Classes),
			Subjects: []string(row.Subjects),
		})
	}

	var sessions []sessionRow
	if err := r.db.SelectContext(ctx, &sessions, `SELECT id, class_name, subject, semester, kind, chapter, field, date, description, created_by, created_at FROM assessment_sessions ORDER BY created_at`); err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}
	for _, row := range sessions {
		dataset.History = append(dataset.History, models.AssessmentSession{
			ID:        row.ID,
			ClassName: row.ClassName,
			Subject:   row.Subject,
			Semester:  models.SemesterKey(row.Semester),
			Slot: models.Slot{
				Kind:    models.SlotKind(row.Kind),
				Chapter: models.ChapterKey(row.Chapter),
				Field:   models.FieldKey(row.Field),
			},
			Date:        row.Date,
			Description: row.Description,
			CreatedBy:   row.CreatedBy,
			CreatedAt:   row.CreatedAt,
		})
	}

	var settings settingsRow
	err := r.db.GetContext(ctx, &settings, `SELECT school_name, academic_year, default_subject, chapter_visibility FROM settings WHERE id = 1`)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		dataset.Settings = models.DefaultSettings()
	case err != nil:
		return nil, fmt.Errorf("load settings: %w", err)
	default:
		dataset.Settings = models.Settings{
			SchoolName:     settings.SchoolName,
			AcademicYear:   settings.AcademicYear,
			DefaultSubject: settings.DefaultSubject,
		}
		if err := decodeVisibility(settings.ChapterVisibility, &dataset.Settings.ChapterVisibility); err != nil {
			return nil, fmt.Errorf("decode settings visibility: %w", err)
		}
	}

	var configs []chapterConfigRow
	if err := r.db.SelectContext(ctx, &configs, `SELECT subject, visibility FROM chapter_configs`); err != nil {
		return nil, fmt.Errorf("load chapter configs: %w", err)
	}
	dataset.ChapterConfigs = models.ChapterConfigs{}
	for _, row := range configs {
		var visibility models.ChapterVisibility
		if err := decodeVisibility(row.Visibility, &visibility); err != nil {
			return nil, fmt.Errorf("decode visibility of %s: %w", row.Subject, err)
		}
		dataset.ChapterConfigs[row.Subject] = visibility
	}

	dataset.Normalize()
	return dataset, nil
}

// Push applies one mutation.
func (r *PostgresRepository) Push(ctx context.Context, mutation models.Mutation) error {
	var err error
	switch p := mutation.Payload.(type) {
	case models.SaveGradePayload:
		err = r.saveGrade(ctx, p)
	case models.HistoryPayload:
		err = r.saveSession(ctx, p.Session)
	case models.StudentPayload:
		if mutation.Action == models.MutationUpdateStudent {
			err = r.updateStudent(ctx, p.Student)
		} else {
			err = r.insertStudents(ctx, []models.Student{p.Student})
		}
	case models.ImportStudentsPayload:
		err = r.insertStudents(ctx, p.Students)
	case models.DeletePayload:
		err = r.delete(ctx, mutation.Action, p.ID)
	case models.ChapterConfigPayload:
		err = r.saveChapterConfig(ctx, p)
	case models.SettingsPayload:
		err = r.saveSettings(ctx, p.Settings)
	case models.ResetClassGradesPayload:
		err = r.resetClassGrades(ctx, p)
	case models.TeacherPayload:
		err = r.saveTeacher(ctx, p.Teacher)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownMutation, mutation.Action)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", mutation.Action, err)
	}
	return nil
}

func (r *PostgresRepository) saveGrade(ctx context.Context, p models.SaveGradePayload) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		defaultSubject, err := defaultSubjectTx(ctx, tx)
		if err != nil {
			return err
		}
		var row studentRow
		if err := tx.GetContext(ctx, &row, `SELECT id, roll_number, reg_number, name, class_name, gender, grades, subjects FROM students WHERE id = $1 FOR UPDATE`, p.StudentID); err != nil {
			return fmt.Errorf("lock student: %w", err)
		}
		student, err := row.toModel()
		if err != nil {
			return err
		}
		student.SetScore(p.Subject, defaultSubject, p.Semester, p.Slot, p.Value)
		return updateGradesTx(ctx, tx, student)
	})
}

func (r *PostgresRepository) resetClassGrades(ctx context.Context, p models.ResetClassGradesPayload) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		defaultSubject, err := defaultSubjectTx(ctx, tx)
		if err != nil {
			return err
		}
		var rows []studentRow
		if err := tx.SelectContext(ctx, &rows, `SELECT id, roll_number, reg_number, name, class_name, gender, grades, subjects FROM students WHERE class_name = $1 FOR UPDATE`, p.ClassName); err != nil {
			return fmt.Errorf("lock class: %w", err)
		}
		for _, row := range rows {
			student, err := row.toModel()
			if err != nil {
				return err
			}
			student.ResetSemester(p.Subject, defaultSubject, p.Semester)
			if err := updateGradesTx(ctx, tx, student); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepository) saveSession(ctx context.Context, s models.AssessmentSession) error {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO assessment_sessions (id, class_name, subject, semester, kind, chapter, field, date, description, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        ON CONFLICT (id) DO UPDATE SET class_name = EXCLUDED.class_name, subject = EXCLUDED.subject, semester = EXCLUDED.semester,
        kind = EXCLUDED.kind, chapter = EXCLUDED.chapter, field = EXCLUDED.field, date = EXCLUDED.date, description = EXCLUDED.description`,
		s.ID, s.ClassName, s.Subject, string(s.Semester), string(s.Kind), string(s.Chapter), string(s.Field), s.Date, s.Description, s.CreatedBy, createdAt)
	return err
}

func (r *PostgresRepository) insertStudents(ctx context.Context, students []models.Student) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, s := range students {
			grades, subjects, err := encodeGrades(s)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO students (id, roll_number, reg_number, name, class_name, gender, grades, subjects)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				s.ID, s.RollNumber, s.RegNumber, s.Name, s.ClassName, s.Gender, grades, subjects); err != nil {
				return fmt.Errorf("insert student %s: %w", s.ID, err)
			}
		}
		return nil
	})
}

func (r *PostgresRepository) updateStudent(ctx context.Context, s models.Student) error {
	res, err := r.db.ExecContext(ctx, `UPDATE students SET roll_number = $2, reg_number = $3, name = $4, class_name = $5, gender = $6, updated_at = NOW() WHERE id = $1`,
		s.ID, s.RollNumber, s.RegNumber, s.Name, s.ClassName, s.Gender)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *PostgresRepository) saveTeacher(ctx context.Context, t models.Teacher) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO teachers (id, name, username, password, classes, subjects)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, username = EXCLUDED.username, password = EXCLUDED.password,
        classes = EXCLUDED.classes, subjects = EXCLUDED.subjects, updated_at = NOW()`,
		t.ID, t.Name, t.Username, t.Password, pq.StringArray(t.Classes), pq.StringArray(t.Subjects))
	return err
}

func (r *PostgresRepository) saveSettings(ctx context.Context, s models.Settings) error {
	visibility, err := json.Marshal(s.ChapterVisibility)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO settings (id, school_name, academic_year, default_subject, chapter_visibility)
        VALUES (1, $1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE SET school_name = EXCLUDED.school_name, academic_year = EXCLUDED.academic_year,
        default_subject = EXCLUDED.default_subject, chapter_visibility = EXCLUDED.chapter_visibility`,
		s.SchoolName, s.AcademicYear, s.DefaultSubject, visibility)
	return err
}

func (r *PostgresRepository) saveChapterConfig(ctx context.Context, p models.ChapterConfigPayload) error {
	visibility, err := json.Marshal(p.Visibility)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO chapter_configs (subject, visibility) VALUES ($1, $2)
        ON CONFLICT (subject) DO UPDATE SET visibility = EXCLUDED.visibility`, p.Subject, visibility)
	return err
}

func (r *PostgresRepository) delete(ctx context.Context, action models.MutationName, id string) error {
	var query string
	switch action {
	case models.MutationDeleteStudent:
		query = `DELETE FROM students WHERE id = $1`
	case models.MutationDeleteTeacher:
		query = `DELETE FROM teachers WHERE id = $1`
	case models.MutationDeleteHistory:
		query = `DELETE FROM assessment_sessions WHERE id = $1`
	default:
		return fmt.Errorf("%w: %s", ErrUnknownMutation, action)
	}
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *PostgresRepository) withTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func defaultSubjectTx(ctx context.Context, tx *sqlx.Tx) (string, error) {
	var subject string
	err := tx.GetContext(ctx, &subject, `SELECT default_subject FROM settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings().DefaultSubject, nil
	}
	if err != nil {
		return "", fmt.Errorf("load default subject: %w", err)
	}
	return subject, nil
}

func updateGradesTx(ctx context.Context, tx *sqlx.Tx, s models.Student) error {
	grades, subjects, err := encodeGrades(s)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE students SET grades = $2, subjects = $3, updated_at = NOW() WHERE id = $1`, s.ID, grades, subjects); err != nil {
		return fmt.Errorf("update grades of %s: %w", s.ID, err)
	}
	return nil
}

func encodeGrades(s models.Student) ([]byte, []byte, error) {
	grades, err := json.Marshal(s.Grades)
	if err != nil {
		return nil, nil, fmt.Errorf("encode grades: %w", err)
	}
	if s.Subjects == nil {
		s.Subjects = map[string]models.SubjectGrades{}
	}
	subjects, err := json.Marshal(s.Subjects)
	if err != nil {
		return nil, nil, fmt.Errorf("encode subjects: %w", err)
	}
	return grades, subjects, nil
}

func decodeVisibility(raw []byte, dest *models.ChapterVisibility) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dest)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
