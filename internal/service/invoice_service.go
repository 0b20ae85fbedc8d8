package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupoint-id/edupoint-api/internal/models"
	"github.com/edupoint-id/edupoint-api/pkg/config"
	appErrors "github.com/edupoint-id/edupoint-api/pkg/errors"
)

type invoiceRepository interface {
	List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, int, error)
	FindByID(ctx context.Context, id string) (*models.Invoice, error)
	Create(ctx context.Context, invoice *models.Invoice) error
	AddPayment(ctx context.Context, invoice *models.Invoice, payment *models.Payment) error
	ListPayments(ctx context.Context, invoiceID string) ([]models.Payment, error)
	Outstanding(ctx context.Context, studentID string) (*models.OutstandingSummary, error)
}

// CreateInvoiceRequest describes payload for billing a student.
type CreateInvoiceRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	Description string `json:"description" validate:"required"`
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	DueDate     string `json:"due_date"`
}

// RecordPaymentRequest describes payload for settling an invoice.
type RecordPaymentRequest struct {
	Amount    int64   `json:"amount" validate:"required,gt=0"`
	Method    string  `json:"method" validate:"required"`
	Reference *string `json:"reference"`
}

// InvoiceService coordinates tuition billing.
type InvoiceService struct {
	repo      invoiceRepository
	cfg       config.FinanceConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInvoiceService instantiates InvoiceService.
func NewInvoiceService(repo invoiceRepository, cfg config.FinanceConfig, validate *validator.Validate, logger *zap.Logger) *InvoiceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{repo: repo, cfg: cfg, validator: validate, logger: logger}
}

// List returns invoices with pagination metadata.
func (s *InvoiceService) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, *models.Pagination, error) {
	invoices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invoices")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return invoices, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one invoice.
func (s *InvoiceService) Get(ctx context.Context, id string) (*models.Invoice, error) {
	invoice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "invoice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invoice")
	}
	return invoice, nil
}

// Create bills a student. An empty due date falls back to the
// configured payment-due window.
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*models.Invoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invoice payload")
	}

	dueDate := time.Now().UTC().AddDate(0, 0, s.cfg.PaymentDueDays)
	if req.DueDate != "" {
		parsed, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid due date format, expected YYYY-MM-DD")
		}
		dueDate = parsed
	}

	invoice := models.Invoice{
		StudentID:   req.StudentID,
		Description: req.Description,
		Amount:      req.Amount,
		Currency:    s.cfg.Currency,
		Status:      models.InvoiceUnpaid,
		DueDate:     dueDate,
	}
	if err := s.repo.Create(ctx, &invoice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create invoice")
	}
	return &invoice, nil
}

// RecordPayment settles part or all of an invoice. Payments can never
// exceed the invoice total.
func (s *InvoiceService) RecordPayment(ctx context.Context, invoiceID string, req RecordPaymentRequest) (*models.Invoice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	invoice, err := s.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == models.InvoicePaid {
		return nil, appErrors.Clone(appErrors.ErrConflict, "invoice is already fully paid")
	}
	if invoice.Paid+req.Amount > invoice.Amount {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payment exceeds outstanding invoice amount")
	}

	invoice.Paid += req.Amount
	if invoice.Paid == invoice.Amount {
		invoice.Status = models.InvoicePaid
	} else {
		invoice.Status = models.InvoicePartial
	}

	payment := models.Payment{
		InvoiceID: invoice.ID,
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
	}
	if err := s.repo.AddPayment(ctx, invoice, &payment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}
	return invoice, nil
}

// Payments lists settlements for an invoice.
func (s *InvoiceService) Payments(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	if _, err := s.Get(ctx, invoiceID); err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPayments(ctx, invoiceID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list payments")
	}
	return payments, nil
}

// Outstanding summarises a student's unpaid balance.
func (s *InvoiceService) Outstanding(ctx context.Context, studentID string) (*models.OutstandingSummary, error) {
	summary, err := s.repo.Outstanding(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise outstanding balance")
	}
	return summary, nil
}
