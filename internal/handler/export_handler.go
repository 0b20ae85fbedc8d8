package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/edupoint-id/edupoint-api/internal/service"
	appErrors "github.com/edupoint-id/edupoint-api/pkg/errors"
	"github.com/edupoint-id/edupoint-api/pkg/response"
)

// ExportHandler streams attendance sheets and invoice statements.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// AttendanceSheet exports one classroom session as CSV or PDF.
func (h *ExportHandler) AttendanceSheet(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.exports.AttendanceSheet(c.Request.Context(), c.Param("id"), date, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeAttachment(c, result)
}

// InvoiceStatement exports a student's invoices as CSV or PDF.
func (h *ExportHandler) InvoiceStatement(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.exports.InvoiceStatement(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	writeAttachment(c, result)
}

func writeAttachment(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.FileName))
	c.Data(200, result.ContentType, result.Data)
}
