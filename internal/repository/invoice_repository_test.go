package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupoint-id/edupoint-api/internal/models"
)

func newInvoiceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestInvoiceRepositoryAddPayment(t *testing.T) {
	db, mock, cleanup := newInvoiceMock(t)
	defer cleanup()
	repo := NewInvoiceRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO payments").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE invoices SET").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	invoice := models.Invoice{ID: "inv-1", StudentID: "s1", Amount: 500000, Paid: 500000, Status: models.InvoicePaid}
	payment := models.Payment{InvoiceID: "inv-1", Amount: 500000, Method: "transfer"}
	err := repo.AddPayment(context.Background(), &invoice, &payment)
	require.NoError(t, err)
	assert.NotEmpty(t, payment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepositoryOutstanding(t *testing.T) {
	db, mock, cleanup := newInvoiceMock(t)
	defer cleanup()
	repo := NewInvoiceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS invoices, COALESCE(SUM(amount), 0) AS total_billed, COALESCE(SUM(paid), 0) AS total_paid FROM invoices WHERE student_id = $1")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"invoices", "total_billed", "total_paid"}).AddRow(2, 1000000, 400000))

	summary, err := repo.Outstanding(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Invoices)
	assert.Equal(t, int64(600000), summary.Outstanding)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvoiceRepositoryListPayments(t *testing.T) {
	db, mock, cleanup := newInvoiceMock(t)
	defer cleanup()
	repo := NewInvoiceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, invoice_id, amount, method, reference, paid_at, created_at FROM payments WHERE invoice_id = $1 ORDER BY paid_at DESC")).
		WithArgs("inv-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "invoice_id", "amount", "method", "reference", "paid_at", "created_at"}).
			AddRow("p1", "inv-1", 250000, "cash", nil, time.Now(), time.Now()))

	payments, err := repo.ListPayments(context.Background(), "inv-1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(250000), payments[0].Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
