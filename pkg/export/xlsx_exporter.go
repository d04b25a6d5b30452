package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Recap"

// XLSXExporter writes a workbook whose first two rows mirror the PDF grouped header.
type XLSXExporter struct{}

// NewXLSXExporter constructs an XLSX exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ContentType implements Renderer.
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Renderer.
func (e *XLSXExporter) Extension() string { return "xlsx" }

// Render builds the workbook in memory.
func (e *XLSXExporter) Render(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	col := 1
	for _, g := range table.Groups {
		first := col
		for _, c := range g.Columns {
			top, _ := excelize.CoordinatesToCellName(col, 1)
			bottom, _ := excelize.CoordinatesToCellName(col, 2)
			if g.Label == "" {
				if err := f.SetCellValue(xlsxSheet, top, c.Label); err != nil {
					return nil, err
				}
				if err := f.MergeCell(xlsxSheet, top, bottom); err != nil {
					return nil, err
				}
			} else if err := f.SetCellValue(xlsxSheet, bottom, c.Label); err != nil {
				return nil, err
			}
			col++
		}
		if g.Label != "" {
			start, _ := excelize.CoordinatesToCellName(first, 1)
			end, _ := excelize.CoordinatesToCellName(col-1, 1)
			if err := f.SetCellValue(xlsxSheet, start, g.Label); err != nil {
				return nil, err
			}
			if start != end {
				if err := f.MergeCell(xlsxSheet, start, end); err != nil {
					return nil, err
				}
			}
		}
	}

	for r, row := range table.Rows {
		for c, value := range table.Record(row) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+3)
			if err := f.SetCellValue(xlsxSheet, cell, value); err != nil {
				return nil, fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
