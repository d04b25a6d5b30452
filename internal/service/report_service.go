package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/export"
	"github.com/noah-isme/gradebook-api/pkg/storage"
)

type classRecapper interface {
	ClassRecap(ctx context.Context, viewer models.Viewer, scope models.RecapScope) (*models.ClassRecap, error)
}

type reportStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type settingsReader interface {
	Get(ctx context.Context) models.Settings
}

// ReportServiceConfig governs download links and cleanup.
type ReportServiceConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ReportService renders class recaps to files and hands out signed download links.
type ReportService struct {
	recaps    classRecapper
	settings  settingsReader
	storage   reportStorage
	signer    *storage.SignedURLSigner
	renderers map[models.ReportFormat]export.Renderer
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ReportServiceConfig
}

// NewReportService constructs the report service with csv, xlsx and pdf renderers.
func NewReportService(recaps classRecapper, settings settingsReader, store reportStorage, signer *storage.SignedURLSigner, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	return &ReportService{
		recaps:   recaps,
		settings: settings,
		storage:  store,
		signer:   signer,
		renderers: map[models.ReportFormat]export.Renderer{
			models.ReportFormatCSV:  export.NewCSVExporter(),
			models.ReportFormatXLSX: export.NewXLSXExporter(),
			models.ReportFormatPDF:  export.NewPDFExporter(),
		},
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate renders the recap of req's scope and stores it.
func (s *ReportService) Generate(ctx context.Context, viewer models.Viewer, req models.ReportRequest) (*models.ReportResult, error) {
	req.Format = models.ReportFormat(strings.ToLower(string(req.Format)))
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid report request")
	}
	renderer, ok := s.renderers[req.Format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported format "+string(req.Format))
	}
	recap, err := s.recaps.ClassRecap(ctx, viewer, req.RecapScope)
	if err != nil {
		return nil, err
	}

	table := RecapTable(*recap, s.settings.Get(ctx))
	payload, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	id := uuid.NewString()
	name := path.Join(time.Now().UTC().Format("20060102"), id, reportFilename(recap.RecapScope, renderer.Extension()))
	stored, err := s.storage.Save(name, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(id, stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}

	s.logger.Info("report generated",
		zap.String("report_id", id),
		zap.String("format", string(req.Format)),
		zap.String("class", recap.ClassName),
		zap.Int("rows", len(recap.Rows)),
	)
	return &models.ReportResult{
		ID:        id,
		Format:    req.Format,
		URL:       strings.TrimRight(s.cfg.APIPrefix, "/") + "/reports/download/" + token,
		ExpiresAt: expiresAt,
	}, nil
}

// ResolveDownload verifies token and opens the file it points to.
func (s *ReportService) ResolveDownload(ctx context.Context, token string) (*ReportDownload, error) {
	link, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.storage.Open(link.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open report file")
	}
	ext := strings.TrimPrefix(path.Ext(link.Path), ".")
	contentType := "application/octet-stream"
	if renderer, ok := s.renderers[models.ReportFormat(ext)]; ok {
		contentType = renderer.ContentType()
	}
	return &ReportDownload{
		File:        file,
		Filename:    path.Base(link.Path),
		ContentType: contentType,
		ExpiresAt:   link.ExpiresAt,
	}, nil
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Cleanup removes files older than the link lifetime and returns how many were removed.
func (s *ReportService) Cleanup() int {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Warn("report cleanup failed", zap.Error(err))
		return 0
	}
	if len(deleted) > 0 {
		s.logger.Info("expired reports removed", zap.Int("count", len(deleted)))
	}
	return len(deleted)
}

var fieldLabels = map[models.FieldKey]string{
	models.FieldF1:  "F1",
	models.FieldF2:  "F2",
	models.FieldF3:  "F3",
	models.FieldF4:  "F4",
	models.FieldF5:  "F5",
	models.FieldSum: "Sum",
}

var nonWord = regexp.MustCompile(`[^A-Za-z0-9]+`)

// RecapTable lays out a class recap as an export table. Hidden chapters are left out.
func RecapTable(recap models.ClassRecap, settings models.Settings) export.Table {
	table := export.Table{
		Title: fmt.Sprintf("Grade Recap %s - %s", recap.Subject, recap.ClassName),
		Subtitle: strings.TrimSpace(fmt.Sprintf("%s %s Semester %s",
			settings.SchoolName, settings.AcademicYear, semesterLabel(recap.Semester))),
	}
	table.Groups = append(table.Groups, export.ColumnGroup{Columns: []export.Column{
		{Key: "no", Label: "No", Width: 8},
		{Key: "roll", Label: "Roll", Width: 10},
		{Key: "reg", Label: "Reg No", Width: 18},
		{Key: "name", Label: "Name", Width: 45, AlignLeft: true},
	}})

	visible := make([]models.ChapterKey, 0, len(models.ChapterKeys))
	for _, chapter := range models.ChapterKeys {
		if !recap.Visibility.Visible(chapter) {
			continue
		}
		visible = append(visible, chapter)
		group := export.ColumnGroup{Label: chapterLabel(chapter)}
		for _, field := range models.FieldKeys {
			group.Columns = append(group.Columns, export.Column{Key: string(chapter) + "." + string(field), Label: fieldLabels[field]})
		}
		group.Columns = append(group.Columns, export.Column{Key: string(chapter) + ".avg", Label: "Avg"})
		table.Groups = append(table.Groups, group)
	}
	table.Groups = append(table.Groups, export.ColumnGroup{Columns: []export.Column{
		{Key: "kts", Label: "KTS", Width: 12},
		{Key: "sas", Label: "SAS", Width: 12},
		{Key: "final", Label: "Final", Width: 14},
	}})

	for i, row := range recap.Rows {
		record := map[string]string{
			"no":    strconv.Itoa(i + 1),
			"roll":  row.RollNumber,
			"reg":   row.RegNumber,
			"name":  row.Name,
			"kts":   formatScore(row.KTS),
			"sas":   formatScore(row.SAS),
			"final": formatScore(row.Final),
		}
		for _, result := range row.Chapters {
			if !containsChapter(visible, result.Chapter) {
				continue
			}
			for _, field := range models.FieldKeys {
				record[string(result.Chapter)+"."+string(field)] = formatScore(result.Grades.Get(field))
			}
			record[string(result.Chapter)+".avg"] = formatScore(result.Average)
		}
		table.Rows = append(table.Rows, record)
	}
	return table
}

// reportFilename builds a download name such as recap-7a-math-odd.pdf.
func reportFilename(scope models.RecapScope, ext string) string {
	base := strings.Join([]string{"recap", scope.ClassName, scope.Subject, string(scope.Semester)}, "-")
	base = strings.Trim(nonWord.ReplaceAllString(base, "-"), "-")
	return strings.ToLower(base) + "." + ext
}

func chapterLabel(chapter models.ChapterKey) string {
	return "Ch" + strings.TrimPrefix(string(chapter), "ch")
}

func semesterLabel(semester models.SemesterKey) string {
	if semester == models.SemesterEven {
		return "Even"
	}
	return "Odd"
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func containsChapter(chapters []models.ChapterKey, key models.ChapterKey) bool {
	for _, c := range chapters {
		if c == key {
			return true
		}
	}
	return false
}
