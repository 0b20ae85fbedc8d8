package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edupoint-id/edupoint-api/internal/models"
	"github.com/edupoint-id/edupoint-api/internal/service"
	appErrors "github.com/edupoint-id/edupoint-api/pkg/errors"
	"github.com/edupoint-id/edupoint-api/pkg/response"
)

// AttendanceHandler exposes the attendance session endpoints: load,
// stage, discard, commit, quick mark, and the summary overview.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	metrics    *service.MetricsService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService, metrics *service.MetricsService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, metrics: metrics}
}

// StageRequest stages one student's status for a session.
type StageRequest struct {
	ScheduleID string                  `json:"schedule_id"`
	Date       string                  `json:"date" binding:"required"`
	StudentID  string                  `json:"student_id" binding:"required"`
	Status     models.AttendanceStatus `json:"status" binding:"required"`
	Notes      *string                 `json:"notes"`
}

// QuickMarkRequest marks the whole roster present for a session date.
type QuickMarkRequest struct {
	Date string `json:"date" binding:"required"`
}

// Load returns the stored session record for a classroom and date.
// A session that has never been saved returns an empty record.
func (h *AttendanceHandler) Load(c *gin.Context) {
	classroomID := c.Param("id")
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}

	record, err := h.attendance.LoadSession(c.Request.Context(), classroomID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	pending := h.attendance.Pending(classroomID, date)
	response.JSON(c, http.StatusOK, gin.H{"record": record, "pending": pending}, nil)
}

// Overview returns the session record with its roster summary.
func (h *AttendanceHandler) Overview(c *gin.Context) {
	classroomID := c.Param("id")
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}

	record, summary, err := h.attendance.Overview(c.Request.Context(), classroomID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"record": record, "summary": summary}, nil)
}

// Stage stages a single status change in memory. Nothing is persisted
// until Commit.
func (h *AttendanceHandler) Stage(c *gin.Context) {
	var req StageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	classroomID := c.Param("id")
	if err := h.attendance.StageChange(classroomID, req.ScheduleID, req.Date, req.StudentID, req.Status, req.Notes); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"pending": h.attendance.Pending(classroomID, req.Date)}, nil)
}

// Discard drops all staged edits for a session.
func (h *AttendanceHandler) Discard(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	h.attendance.Discard(c.Param("id"), date)
	response.NoContent(c)
}

// Commit persists the staged edits for a session.
func (h *AttendanceHandler) Commit(c *gin.Context) {
	var req QuickMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	record, err := h.attendance.Commit(c.Request.Context(), c.Param("id"), req.Date)
	if h.metrics != nil {
		h.metrics.RecordAttendanceCommit(err)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// QuickMark marks every roster student present and saves immediately.
func (h *AttendanceHandler) QuickMark(c *gin.Context) {
	var req QuickMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	record, err := h.attendance.QuickMarkAllPresent(c.Request.Context(), c.Param("id"), req.Date, nil)
	if h.metrics != nil {
		h.metrics.RecordAttendanceCommit(err)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
