package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edupoint-id/edupoint-api/internal/models"
	"github.com/edupoint-id/edupoint-api/pkg/config"
)

type mockInvoiceRepo struct {
	invoices map[string]models.Invoice
	payments []models.Payment
}

func (m *mockInvoiceRepo) List(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, int, error) {
	var out []models.Invoice
	for _, inv := range m.invoices {
		if filter.StudentID != "" && inv.StudentID != filter.StudentID {
			continue
		}
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (m *mockInvoiceRepo) FindByID(ctx context.Context, id string) (*models.Invoice, error) {
	if inv, ok := m.invoices[id]; ok {
		return &inv, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockInvoiceRepo) Create(ctx context.Context, invoice *models.Invoice) error {
	if m.invoices == nil {
		m.invoices = make(map[string]models.Invoice)
	}
	if invoice.ID == "" {
		invoice.ID = "generated"
	}
	m.invoices[invoice.ID] = *invoice
	return nil
}

func (m *mockInvoiceRepo) AddPayment(ctx context.Context, invoice *models.Invoice, payment *models.Payment) error {
	m.invoices[invoice.ID] = *invoice
	m.payments = append(m.payments, *payment)
	return nil
}

func (m *mockInvoiceRepo) ListPayments(ctx context.Context, invoiceID string) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range m.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockInvoiceRepo) Outstanding(ctx context.Context, studentID string) (*models.OutstandingSummary, error) {
	summary := &models.OutstandingSummary{StudentID: studentID}
	for _, inv := range m.invoices {
		if inv.StudentID != studentID {
			continue
		}
		summary.Invoices++
		summary.TotalBilled += inv.Amount
		summary.TotalPaid += inv.Paid
	}
	summary.Outstanding = summary.TotalBilled - summary.TotalPaid
	return summary, nil
}

func newInvoiceFixture(repo *mockInvoiceRepo) *InvoiceService {
	return NewInvoiceService(repo, config.FinanceConfig{PaymentDueDays: 14, Currency: "IDR"}, validator.New(), zap.NewNop())
}

func TestInvoiceServiceCreateDefaults(t *testing.T) {
	repo := &mockInvoiceRepo{}
	svc := newInvoiceFixture(repo)

	invoice, err := svc.Create(context.Background(), CreateInvoiceRequest{
		StudentID:   "s1",
		Description: "Tuition March",
		Amount:      500000,
	})
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceUnpaid, invoice.Status)
	assert.Equal(t, "IDR", invoice.Currency)
	expected := time.Now().UTC().AddDate(0, 0, 14)
	assert.WithinDuration(t, expected, invoice.DueDate, time.Minute)
}

func TestInvoiceServicePartialThenFullPayment(t *testing.T) {
	repo := &mockInvoiceRepo{invoices: map[string]models.Invoice{
		"inv-1": {ID: "inv-1", StudentID: "s1", Amount: 500000, Status: models.InvoiceUnpaid},
	}}
	svc := newInvoiceFixture(repo)

	invoice, err := svc.RecordPayment(context.Background(), "inv-1", RecordPaymentRequest{Amount: 200000, Method: "cash"})
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePartial, invoice.Status)
	assert.Equal(t, int64(200000), invoice.Paid)

	invoice, err = svc.RecordPayment(context.Background(), "inv-1", RecordPaymentRequest{Amount: 300000, Method: "transfer"})
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, invoice.Status)
	assert.Len(t, repo.payments, 2)
}

func TestInvoiceServiceRejectsOverpayment(t *testing.T) {
	repo := &mockInvoiceRepo{invoices: map[string]models.Invoice{
		"inv-1": {ID: "inv-1", StudentID: "s1", Amount: 500000, Paid: 400000, Status: models.InvoicePartial},
	}}
	svc := newInvoiceFixture(repo)

	_, err := svc.RecordPayment(context.Background(), "inv-1", RecordPaymentRequest{Amount: 200000, Method: "cash"})
	require.Error(t, err)
	assert.Empty(t, repo.payments)
}

func TestInvoiceServiceRejectsPaymentOnPaidInvoice(t *testing.T) {
	repo := &mockInvoiceRepo{invoices: map[string]models.Invoice{
		"inv-1": {ID: "inv-1", StudentID: "s1", Amount: 500000, Paid: 500000, Status: models.InvoicePaid},
	}}
	svc := newInvoiceFixture(repo)

	_, err := svc.RecordPayment(context.Background(), "inv-1", RecordPaymentRequest{Amount: 1, Method: "cash"})
	require.Error(t, err)
}

func TestInvoiceServiceOutstanding(t *testing.T) {
	repo := &mockInvoiceRepo{invoices: map[string]models.Invoice{
		"inv-1": {ID: "inv-1", StudentID: "s1", Amount: 500000, Paid: 200000},
		"inv-2": {ID: "inv-2", StudentID: "s1", Amount: 300000},
	}}
	svc := newInvoiceFixture(repo)

	summary, err := svc.Outstanding(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Invoices)
	assert.Equal(t, int64(600000), summary.Outstanding)
}
