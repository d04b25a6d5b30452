package export

import (
	"errors"
	"strings"
)

// Column is a leaf cell of a table header.
type Column struct {
	Key   string
	Label string
	// Width in millimetres for PDF output. Zero shares the remaining width.
	Width     float64
	AlignLeft bool
}

// ColumnGroup spans one or more columns under a shared caption. An empty Label means the
// columns stand alone and their labels fill both header rows.
type ColumnGroup struct {
	Label   string
	Columns []Column
}

// Table is the format independent content of an export.
type Table struct {
	Title    string
	Subtitle string
	Groups   []ColumnGroup
	Rows     []map[string]string
}

var errNoColumns = errors.New("table requires at least one column")

// Columns flattens the groups in display order.
func (t Table) Columns() []Column {
	var cols []Column
	for _, g := range t.Groups {
		cols = append(cols, g.Columns...)
	}
	return cols
}

// FlatHeaders joins group and column captions, e.g. "Ch1 F1", for single row formats.
func (t Table) FlatHeaders() []string {
	var headers []string
	for _, g := range t.Groups {
		for _, c := range g.Columns {
			if g.Label == "" || strings.EqualFold(g.Label, c.Label) {
				headers = append(headers, c.Label)
				continue
			}
			headers = append(headers, g.Label+" "+c.Label)
		}
	}
	return headers
}

// Record returns row values in column order.
func (t Table) Record(row map[string]string) []string {
	cols := t.Columns()
	record := make([]string, len(cols))
	for i, c := range cols {
		record[i] = row[c.Key]
	}
	return record
}

func (t Table) validate() error {
	if len(t.Columns()) == 0 {
		return errNoColumns
	}
	return nil
}
