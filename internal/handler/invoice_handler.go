package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edupoint-id/edupoint-api/internal/models"
	"github.com/edupoint-id/edupoint-api/internal/service"
	appErrors "github.com/edupoint-id/edupoint-api/pkg/errors"
	"github.com/edupoint-id/edupoint-api/pkg/response"
)

// InvoiceHandler exposes tuition billing endpoints.
type InvoiceHandler struct {
	invoices *service.InvoiceService
}

// NewInvoiceHandler constructs InvoiceHandler.
func NewInvoiceHandler(invoices *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// List returns invoices filtered by student, status, and due window.
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter models.InvoiceFilter
	filter.StudentID = c.Query("studentId")
	if raw := c.Query("status"); raw != "" {
		status := models.InvoiceStatus(raw)
		filter.Status = &status
	}
	if raw := c.Query("dueFrom"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DueFrom = &t
		}
	}
	if raw := c.Query("dueTo"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			filter.DueTo = &t
		}
	}
	filter.Page, filter.PageSize = parsePageQuery(c)

	invoices, pagination, err := h.invoices.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoices, pagination)
}

// Get returns one invoice.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, err := h.invoices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

// Create bills a student.
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	invoice, err := h.invoices.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invoice)
}

// RecordPayment settles part or all of an invoice.
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	invoice, err := h.invoices.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invoice, nil)
}

// Payments lists an invoice's settlements.
func (h *InvoiceHandler) Payments(c *gin.Context) {
	payments, err := h.invoices.Payments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// Outstanding totals a student's unpaid balance.
func (h *InvoiceHandler) Outstanding(c *gin.Context) {
	summary, err := h.invoices.Outstanding(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
