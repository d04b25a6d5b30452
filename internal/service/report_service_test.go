package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
	"github.com/noah-isme/gradebook-api/pkg/storage"
)

type reportFixture struct {
	svc    *ReportService
	signer *storage.SignedURLSigner
	root   string
}

func newReportFixture(t *testing.T) reportFixture {
	t.Helper()
	d := newTestDispatcher(t)
	root := t.TempDir()
	store, err := storage.NewLocalStorage(root)
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("report-secret", time.Hour)
	svc := NewReportService(
		NewRecapService(d, nil, nil, nil),
		NewSettingsService(d, nil, nil),
		store, signer, nil, nil,
		ReportServiceConfig{APIPrefix: "/api/v1/", ResultTTL: time.Hour},
	)
	return reportFixture{svc: svc, signer: signer, root: root}
}

func tokenFromURL(t *testing.T, url string) string {
	t.Helper()
	const prefix = "/api/v1/reports/download/"
	require.True(t, strings.HasPrefix(url, prefix), url)
	return strings.TrimPrefix(url, prefix)
}

func TestReportServiceGenerateCSV(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	result, err := f.svc.Generate(ctx, teacherFixtureViewer(), models.ReportRequest{RecapScope: scope7A, Format: "CSV"})
	require.NoError(t, err)
	assert.Equal(t, models.ReportFormatCSV, result.Format)
	assert.NotEmpty(t, result.ID)

	download, err := f.svc.ResolveDownload(ctx, tokenFromURL(t, result.URL))
	require.NoError(t, err)
	defer download.File.Close()
	assert.Equal(t, "recap-7a-math-odd.csv", download.Filename)
	assert.Equal(t, "text/csv", download.ContentType)

	data, err := io.ReadAll(download.File)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, []string{"No", "Roll", "Reg No", "Name", "Ch1 F1"}, header[:5])
	assert.Equal(t, []string{"KTS", "SAS", "Final"}, header[len(header)-3:])

	ana := records[1]
	assert.Equal(t, "Ana", ana[3])
	assert.Equal(t, "80", ana[4])
	assert.Equal(t, []string{"90", "", "56.7"}, ana[len(ana)-3:])
	assert.Equal(t, "Budi", records[2][3])
}

func TestReportServiceGenerateBinaryFormats(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	for format, magic := range map[models.ReportFormat]string{
		models.ReportFormatPDF:  "%PDF",
		models.ReportFormatXLSX: "PK",
	} {
		result, err := f.svc.Generate(ctx, adminViewer(), models.ReportRequest{RecapScope: scope7A, Format: format})
		require.NoError(t, err, format)

		download, err := f.svc.ResolveDownload(ctx, tokenFromURL(t, result.URL))
		require.NoError(t, err, format)
		data, err := io.ReadAll(download.File)
		download.File.Close()
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte(magic)), format)
		assert.Equal(t, "recap-7a-math-odd."+string(format), download.Filename)
	}
}

func TestReportServiceGenerateRejects(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	_, err := f.svc.Generate(ctx, adminViewer(), models.ReportRequest{RecapScope: scope7A, Format: "docx"})
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, err = f.svc.Generate(ctx, teacherFixtureViewer(), models.ReportRequest{
		RecapScope: models.RecapScope{ClassName: "7B", Subject: "Math", Semester: models.SemesterOdd},
		Format:     models.ReportFormatCSV,
	})
	requireCode(t, err, appErrors.ErrForbidden.Code)
}

func TestReportServiceDownloadAndCleanup(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResolveDownload(ctx, "garbage")
	requireCode(t, err, appErrors.ErrForbidden.Code)

	result, err := f.svc.Generate(ctx, adminViewer(), models.ReportRequest{RecapScope: scope7A, Format: models.ReportFormatCSV})
	require.NoError(t, err)
	token := tokenFromURL(t, result.URL)

	link, err := f.signer.Parse(token)
	require.NoError(t, err)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(f.root, filepath.FromSlash(link.Path)), old, old))

	assert.Equal(t, 1, f.svc.Cleanup())
	assert.Equal(t, 0, f.svc.Cleanup())

	_, err = f.svc.ResolveDownload(ctx, token)
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestRecapTableSkipsHiddenChapters(t *testing.T) {
	recap := models.ClassRecap{
		RecapScope: models.RecapScope{ClassName: "7A", Subject: "Math", Semester: models.SemesterOdd},
		Visibility: models.ChapterVisibility{models.Chapter1: false, models.Chapter2: true},
		Rows: []models.RecapRow{{
			Name: "Ana",
			Chapters: []models.ChapterResult{
				{Chapter: models.Chapter1, Grades: models.ChapterGrades{F1: models.Score(70)}},
				{Chapter: models.Chapter2, Grades: models.ChapterGrades{F1: models.Score(90)}, Average: models.Score(90)},
			},
			Final: models.Score(90),
		}},
	}
	table := RecapTable(recap, models.Settings{SchoolName: "SMP 1", AcademicYear: "2024/2025"})

	assert.Equal(t, "Grade Recap Math - 7A", table.Title)
	assert.Equal(t, "SMP 1 2024/2025 Semester Odd", table.Subtitle)
	headers := table.FlatHeaders()
	assert.NotContains(t, headers, "Ch1 F1")
	assert.Contains(t, headers, "Ch2 Avg")

	row := table.Rows[0]
	assert.Equal(t, "1", row["no"])
	assert.Equal(t, "90", row["ch2.avg"])
	_, hidden := row["ch1.f1"]
	assert.False(t, hidden)
}

func TestReportFilename(t *testing.T) {
	scope := models.RecapScope{ClassName: "VII / B", Subject: "Bahasa Indonesia", Semester: models.SemesterEven}
	assert.Equal(t, "recap-vii-b-bahasa-indonesia-even.xlsx", reportFilename(scope, "xlsx"))
}
