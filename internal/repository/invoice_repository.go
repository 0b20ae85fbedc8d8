package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupoint-id/edupoint-api/internal/models"
)

const invoiceColumns = "id, student_id, description, amount, paid, currency, status, due_date, created_at, updated_at"

// InvoiceRepository provides persistence for tuition invoices.
type InvoiceRepository struct {
	db *sqlx.DB
}

// NewInvoiceRepository creates a new invoice repository.
func NewInvoiceRepository(db *sqlx.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// List returns invoices with optional filtering and pagination.
func (r *InvoiceRepository) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, int, error) {
	base := "FROM invoices WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DueFrom != nil {
		conditions = append(conditions, fmt.Sprintf("due_date >= $%d", len(args)+1))
		args = append(args, *filter.DueFrom)
	}
	if filter.DueTo != nil {
		conditions = append(conditions, fmt.Sprintf("due_date <= $%d", len(args)+1))
		args = append(args, *filter.DueTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY due_date ASC LIMIT %d OFFSET %d", invoiceColumns, base, size, offset)
	var invoices []models.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count invoices: %w", err)
	}

	return invoices, total, nil
}

// FindByID loads an invoice by id.
func (r *InvoiceRepository) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	query := fmt.Sprintf("SELECT %s FROM invoices WHERE id = $1", invoiceColumns)
	var invoice models.Invoice
	if err := r.db.GetContext(ctx, &invoice, query, id); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Create stores a new invoice.
func (r *InvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now

	const query = `INSERT INTO invoices (id, student_id, description, amount, paid, currency, status, due_date, created_at, updated_at) VALUES (:id, :student_id, :description, :amount, :paid, :currency, :status, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, invoice); err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// AddPayment records a payment and moves the invoice balance within
// one transaction.
func (r *InvoiceRepository) AddPayment(ctx context.Context, invoice *models.Invoice, payment *models.Payment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add payment: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if payment.CreatedAt.IsZero() {
		payment.CreatedAt = now
	}
	if payment.PaidAt.IsZero() {
		payment.PaidAt = now
	}

	const paymentQuery = `INSERT INTO payments (id, invoice_id, amount, method, reference, paid_at, created_at) VALUES (:id, :invoice_id, :amount, :method, :reference, :paid_at, :created_at)`
	if _, err := tx.NamedExecContext(ctx, paymentQuery, payment); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}

	invoice.UpdatedAt = now
	const invoiceQuery = `UPDATE invoices SET paid = :paid, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, invoiceQuery, invoice); err != nil {
		return fmt.Errorf("update invoice balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add payment: %w", err)
	}
	committed = true
	return nil
}

// ListPayments returns payments for an invoice, newest first.
func (r *InvoiceRepository) ListPayments(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	const query = `SELECT id, invoice_id, amount, method, reference, paid_at, created_at FROM payments WHERE invoice_id = $1 ORDER BY paid_at DESC`
	var payments []models.Payment
	if err := r.db.SelectContext(ctx, &payments, query, invoiceID); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// Outstanding totals a student's billed and paid amounts.
func (r *InvoiceRepository) Outstanding(ctx context.Context, studentID string) (*models.OutstandingSummary, error) {
	const query = `SELECT COUNT(*) AS invoices, COALESCE(SUM(amount), 0) AS total_billed, COALESCE(SUM(paid), 0) AS total_paid FROM invoices WHERE student_id = $1`
	var row struct {
		Invoices    int   `db:"invoices"`
		TotalBilled int64 `db:"total_billed"`
		TotalPaid   int64 `db:"total_paid"`
	}
	if err := r.db.GetContext(ctx, &row, query, studentID); err != nil {
		return nil, fmt.Errorf("sum outstanding: %w", err)
	}
	return &models.OutstandingSummary{
		StudentID:   studentID,
		Invoices:    row.Invoices,
		TotalBilled: row.TotalBilled,
		TotalPaid:   row.TotalPaid,
		Outstanding: row.TotalBilled - row.TotalPaid,
	}, nil
}
