package models

import "time"

// InvoiceStatus tracks how much of an invoice has been settled.
type InvoiceStatus string

const (
	InvoiceUnpaid  InvoiceStatus = "unpaid"
	InvoicePartial InvoiceStatus = "partial"
	InvoicePaid    InvoiceStatus = "paid"
)

// Invoice is a tuition charge against a student.
type Invoice struct {
	ID          string        `db:"id" json:"id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	Description string        `db:"description" json:"description"`
	Amount      int64         `db:"amount" json:"amount"`
	Paid        int64         `db:"paid" json:"paid"`
	Currency    string        `db:"currency" json:"currency"`
	Status      InvoiceStatus `db:"status" json:"status"`
	DueDate     time.Time     `db:"due_date" json:"due_date"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// Payment records a settlement against an invoice.
type Payment struct {
	ID        string    `db:"id" json:"id"`
	InvoiceID string    `db:"invoice_id" json:"invoice_id"`
	Amount    int64     `db:"amount" json:"amount"`
	Method    string    `db:"method" json:"method"`
	Reference *string   `db:"reference" json:"reference,omitempty"`
	PaidAt    time.Time `db:"paid_at" json:"paid_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// InvoiceFilter scopes invoice listings.
type InvoiceFilter struct {
	StudentID string
	Status    *InvoiceStatus
	DueFrom   *time.Time
	DueTo     *time.Time
	Page      int
	PageSize  int
}

// OutstandingSummary totals a student's unpaid balance.
type OutstandingSummary struct {
	StudentID   string `json:"student_id"`
	Invoices    int    `json:"invoices"`
	TotalBilled int64  `json:"total_billed"`
	TotalPaid   int64  `json:"total_paid"`
	Outstanding int64  `json:"outstanding"`
}
