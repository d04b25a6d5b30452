package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/internal/state"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

// MaxImportSize bounds uploaded roster files.
const MaxImportSize = 5 << 20

const headerScanRows = 10

type rosterColumn string

const (
	colName   rosterColumn = "name"
	colClass  rosterColumn = "class"
	colRoll   rosterColumn = "roll"
	colReg    rosterColumn = "reg"
	colGender rosterColumn = "gender"
)

// columnAliases maps normalised header captions to roster columns. Indonesian captions come
// from the school spreadsheets the roster usually originates from.
var columnAliases = map[string]rosterColumn{
	"name": colName, "nama": colName, "nama siswa": colName, "nama lengkap": colName, "student": colName, "student name": colName, "full name": colName,
	"class": colClass, "kelas": colClass, "class name": colClass, "rombel": colClass,
	"no": colRoll, "no absen": colRoll, "absen": colRoll, "nomor": colRoll, "roll": colRoll, "roll number": colRoll, "roll no": colRoll,
	"nis": colReg, "nisn": colReg, "no induk": colReg, "reg": colReg, "reg number": colReg, "registration": colReg, "registration number": colReg,
	"gender": colGender, "jk": colGender, "l/p": colGender, "jenis kelamin": colGender, "sex": colGender,
}

// ImportRequest describes an uploaded roster.
type ImportRequest struct {
	Filename string
	Data     []byte
	// ClassName fills rows that have no class column.
	ClassName string
}

// ImportService turns spreadsheet rosters into students.
type ImportService struct {
	store  studentDispatcher
	logger *zap.Logger
}

// NewImportService constructs the import service.
func NewImportService(store studentDispatcher, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{store: store, logger: logger}
}

// Import parses the file, skips rows without a name or class and rows whose registration
// number already exists, and adds the rest in one batch.
func (s *ImportService) Import(ctx context.Context, viewer models.Viewer, req ImportRequest) (*models.ImportResult, models.SyncResult, error) {
	if err := requireCapability(viewer, models.CapManageStudents); err != nil {
		return nil, models.SyncResult{}, err
	}
	if len(req.Data) == 0 {
		return nil, models.SyncResult{}, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	if len(req.Data) > MaxImportSize {
		return nil, models.SyncResult{}, appErrors.Clone(appErrors.ErrValidation, "file exceeds 5 MB")
	}

	records, err := readRoster(req.Filename, req.Data)
	if err != nil {
		return nil, models.SyncResult{}, err
	}

	students, result := s.buildStudents(records, strings.TrimSpace(req.ClassName))
	if len(students) == 0 {
		return result, models.SyncResult{}, nil
	}

	sync, err := s.store.Dispatch(ctx, state.ImportStudents{Students: students})
	if err != nil {
		return nil, sync, err
	}
	result.Imported = len(students)
	s.logger.Info("roster imported", zap.String("file", req.Filename), zap.Int("imported", result.Imported), zap.Int("skipped", result.Skipped))
	return result, sync, nil
}

func (s *ImportService) buildStudents(records [][]string, defaultClass string) ([]models.Student, *models.ImportResult) {
	result := &models.ImportResult{}
	headerRow, columns := locateHeader(records)
	if headerRow < 0 {
		result.Errors = append(result.Errors, "no header row with a name column found")
		result.Skipped = len(records)
		return nil, result
	}

	taken := map[string]struct{}{}
	for _, existing := range s.store.Snapshot().Students {
		if existing.RegNumber != "" {
			taken[strings.ToLower(existing.RegNumber)] = struct{}{}
		}
	}

	var students []models.Student
	for i := headerRow + 1; i < len(records); i++ {
		row := records[i]
		if isBlankRow(row) {
			continue
		}
		get := func(col rosterColumn) string {
			idx, ok := columns[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		name, className := get(colName), get(colClass)
		if className == "" {
			className = defaultClass
		}
		if name == "" || className == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: name and class required", i+1))
			continue
		}
		reg := get(colReg)
		if reg != "" {
			key := strings.ToLower(reg)
			if _, dup := taken[key]; dup {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: registration number %s already exists", i+1, reg))
				continue
			}
			taken[key] = struct{}{}
		}
		students = append(students, models.NewStudent(uuid.NewString(), get(colRoll), reg, name, className, normalizeGender(get(colGender))))
	}
	return students, result
}

func readRoster(filename string, data []byte) ([][]string, error) {
	mime := mimetype.Detect(data)
	lower := strings.ToLower(filename)
	switch {
	case mime.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet") || (mime.Is("application/zip") && strings.HasSuffix(lower, ".xlsx")):
		return readXLSX(data)
	case mime.Is("text/csv") || mime.Is("text/plain") || strings.HasSuffix(lower, ".csv"):
		return readCSV(data)
	default:
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "expected .xlsx or .csv, got "+mime.String())
	}
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, validationError(err, "unreadable spreadsheet")
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, validationError(err, "unreadable spreadsheet")
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comma = sniffDelimiter(data)

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, validationError(err, "unreadable csv")
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// sniffDelimiter picks ';' when the first line has more semicolons than commas, which is what
// spreadsheet tools emit in comma-decimal locales.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func locateHeader(records [][]string) (int, map[rosterColumn]int) {
	for i := 0; i < len(records) && i < headerScanRows; i++ {
		columns := map[rosterColumn]int{}
		for idx, caption := range records[i] {
			if col, ok := columnAliases[normalizeCaption(caption)]; ok {
				if _, seen := columns[col]; !seen {
					columns[col] = idx
				}
			}
		}
		if _, ok := columns[colName]; ok {
			return i, columns
		}
	}
	return -1, nil
}

func normalizeCaption(caption string) string {
	caption = strings.ToLower(strings.TrimSpace(caption))
	caption = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(caption)
	return strings.Join(strings.Fields(caption), " ")
}

func normalizeGender(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "M", "L", "MALE", "LAKI-LAKI", "LAKI LAKI":
		return "M"
	case "F", "P", "FEMALE", "PEREMPUAN":
		return "F"
	default:
		return ""
	}
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
