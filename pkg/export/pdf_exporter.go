package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// A4 portrait with 10mm side margins leaves 190mm of usable width for
// the table; columns share it evenly.
const (
	pageWidth    = 190.0
	titleHeight  = 10.0
	headerHeight = 8.0
	rowHeight    = 7.0
)

// PDFExporter renders a Dataset as a single-table PDF document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render draws the title (when given) and the table, one bordered cell
// per dataset value. Rows flow onto additional pages automatically.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("dataset has no columns")
	}

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(10, 15, 10)
	doc.AddPage()

	if title != "" {
		doc.SetFont("Arial", "B", 14)
		doc.CellFormat(0, titleHeight, strings.ToUpper(title), "", 1, "C", false, 0, "")
		doc.Ln(5)
	}

	colWidth := pageWidth / float64(len(data.Headers))

	doc.SetFont("Arial", "B", 10)
	for _, header := range data.Headers {
		doc.CellFormat(colWidth, headerHeight, header, "1", 0, "C", false, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, cell := range data.record(row) {
			doc.CellFormat(colWidth, rowHeight, cell, "1", 0, "", false, 0, "")
		}
		doc.Ln(-1)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
