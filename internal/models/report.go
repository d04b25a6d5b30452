package models

import "time"

// ReportFormat enumerates export formats.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// ReportRequest asks for a rendered class recap.
type ReportRequest struct {
	RecapScope
	Format ReportFormat `json:"format" validate:"required,oneof=csv pdf xlsx"`
}

// ReportResult points to a rendered export.
type ReportResult struct {
	ID        string       `json:"id"`
	Format    ReportFormat `json:"format"`
	URL       string       `json:"url"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// ImportResult summarises a roster import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
