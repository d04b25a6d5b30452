package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin     = 8.0
	pdfRowHeight  = 6.0
	pdfHeadHeight = 6.0
)

// PDFExporter renders landscape A4 tables with a two row grouped header.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ContentType implements Renderer.
func (e *PDFExporter) ContentType() string { return "application/pdf" }

// Extension implements Renderer.
func (e *PDFExporter) Extension() string { return "pdf" }

// Render lays the table out on as many pages as needed, repeating the header on each.
func (e *PDFExporter) Render(table Table) ([]byte, error) {
	if err := table.validate(); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	widths := columnWidths(table.Columns(), pageW-2*pdfMargin)

	header := func() {
		pdf.SetFont("Arial", "B", 8)
		pdf.SetFillColor(230, 230, 230)
		x, y := pdf.GetX(), pdf.GetY()
		idx := 0
		for _, g := range table.Groups {
			span := 0.0
			for range g.Columns {
				span += widths[idx]
				idx++
			}
			if g.Label == "" {
				// Ungrouped columns are drawn once, two rows tall.
				for i, c := range g.Columns {
					w := widths[idx-len(g.Columns)+i]
					pdf.SetXY(x, y)
					pdf.CellFormat(w, 2*pdfHeadHeight, tr(c.Label), "1", 0, "C", true, 0, "")
					x += w
				}
				continue
			}
			pdf.SetXY(x, y)
			pdf.CellFormat(span, pdfHeadHeight, tr(g.Label), "1", 0, "C", true, 0, "")
			cx := x
			for i, c := range g.Columns {
				w := widths[idx-len(g.Columns)+i]
				pdf.SetXY(cx, y+pdfHeadHeight)
				pdf.CellFormat(w, pdfHeadHeight, tr(c.Label), "1", 0, "C", true, 0, "")
				cx += w
			}
			x += span
		}
		pdf.SetXY(pdfMargin, y+2*pdfHeadHeight)
		pdf.SetFont("Arial", "", 8)
	}

	pdf.AddPage()
	if table.Title != "" {
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(0, 8, tr(table.Title), "", 1, "C", false, 0, "")
	}
	if table.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(table.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(2)
	header()

	cols := table.Columns()
	for _, row := range table.Rows {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			header()
		}
		for i, c := range cols {
			align := "C"
			if c.AlignLeft {
				align = "L"
			}
			pdf.CellFormat(widths[i], pdfRowHeight, tr(row[c.Key]), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths honours fixed widths and splits what is left evenly over the rest.
func columnWidths(cols []Column, total float64) []float64 {
	widths := make([]float64, len(cols))
	fixed, flexible := 0.0, 0
	for i, c := range cols {
		if c.Width > 0 {
			widths[i] = c.Width
			fixed += c.Width
			continue
		}
		flexible++
	}
	if flexible == 0 {
		return widths
	}
	share := (total - fixed) / float64(flexible)
	if share < 5 {
		share = 5
	}
	for i := range widths {
		if widths[i] == 0 {
			widths[i] = share
		}
	}
	return widths
}
