package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/edupoint-id/edupoint-api/internal/models"
	appErrors "github.com/edupoint-id/edupoint-api/pkg/errors"
	"github.com/edupoint-id/edupoint-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	ExportCSV ExportFormat = "csv"
	ExportPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus response metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders attendance sheets and invoice statements.
type ExportService struct {
	attendance *AttendanceService
	roster     rosterLoader
	invoices   invoiceRepository
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
}

// NewExportService wires the export service.
func NewExportService(attendance *AttendanceService, roster rosterLoader, invoices invoiceRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		attendance: attendance,
		roster:     roster,
		invoices:   invoices,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
	}
}

// AttendanceSheet exports one classroom session as CSV or PDF. Students
// without a saved entry appear with an empty status so the sheet always
// covers the full roster.
func (s *ExportService) AttendanceSheet(ctx context.Context, classroomID, date string, format ExportFormat) (*ExportResult, error) {
	record, err := s.attendance.LoadSession(ctx, classroomID, date)
	if err != nil {
		return nil, err
	}
	roster, err := s.roster.Roster(ctx, classroomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom roster")
	}

	data := export.Dataset{Headers: []string{"Student ID", "Student Name", "Status", "Notes", "Recorded At"}}
	for _, member := range roster {
		row := map[string]string{
			"Student ID":   member.StudentID,
			"Student Name": member.StudentName,
		}
		if record != nil {
			if entry, ok := record.Entries[member.StudentID]; ok {
				row["Status"] = string(entry.Status)
				if entry.Notes != nil {
					row["Notes"] = *entry.Notes
				}
				row["Recorded At"] = entry.RecordedAt.Format(time.RFC3339)
			}
		}
		data.Rows = append(data.Rows, row)
	}

	title := fmt.Sprintf("attendance %s %s", classroomID, date)
	return s.render(data, title, fmt.Sprintf("attendance-%s-%s", classroomID, date), format)
}

// InvoiceStatement exports a student's invoices with totals.
func (s *ExportService) InvoiceStatement(ctx context.Context, studentID string, format ExportFormat) (*ExportResult, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	invoices, _, err := s.invoices.List(ctx, models.InvoiceFilter{StudentID: studentID, Page: 1, PageSize: 500})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices")
	}

	data := export.Dataset{Headers: []string{"Invoice", "Description", "Amount", "Paid", "Status", "Due Date"}}
	var totalBilled, totalPaid int64
	for _, inv := range invoices {
		totalBilled += inv.Amount
		totalPaid += inv.Paid
		data.Rows = append(data.Rows, map[string]string{
			"Invoice":     inv.ID,
			"Description": inv.Description,
			"Amount":      strconv.FormatInt(inv.Amount, 10),
			"Paid":        strconv.FormatInt(inv.Paid, 10),
			"Status":      string(inv.Status),
			"Due Date":    inv.DueDate.Format("2006-01-02"),
		})
	}
	data.Rows = append(data.Rows, map[string]string{
		"Invoice":     "TOTAL",
		"Amount":      strconv.FormatInt(totalBilled, 10),
		"Paid":        strconv.FormatInt(totalPaid, 10),
		"Description": fmt.Sprintf("outstanding %d", totalBilled-totalPaid),
	})

	title := fmt.Sprintf("invoice statement %s", studentID)
	return s.render(data, title, fmt.Sprintf("invoices-%s", studentID), format)
}

func (s *ExportService) render(data export.Dataset, title, baseName string, format ExportFormat) (*ExportResult, error) {
	switch format {
	case ExportCSV, "":
		payload, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{FileName: baseName + ".csv", ContentType: "text/csv", Data: payload}, nil
	case ExportPDF:
		payload, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{FileName: baseName + ".pdf", ContentType: "application/pdf", Data: payload}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}
