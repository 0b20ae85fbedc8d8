package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is an ordered table. Headers fixes the column order; each
// row maps a header name to its cell text, and a missing cell renders
// empty so sparse rows (an unmarked student, a totals line) stay
// aligned.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// record flattens one row into the header order.
func (d Dataset) record(row map[string]string) []string {
	cells := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		cells[i] = row[header]
	}
	return cells
}

// CSVExporter renders a Dataset as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the header line followed by every row.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("dataset has no columns")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("encode csv header: %w", err)
	}
	for _, row := range data.Rows {
		if err := w.Write(data.record(row)); err != nil {
			return nil, fmt.Errorf("encode csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
