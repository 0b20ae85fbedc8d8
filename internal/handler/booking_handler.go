package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edupoint-id/edupoint-api/internal/models"
	"github.com/edupoint-id/edupoint-api/internal/service"
	appErrors "github.com/edupoint-id/edupoint-api/pkg/errors"
	"github.com/edupoint-id/edupoint-api/pkg/response"
)

// BookingHandler exposes room booking and conflict check endpoints.
type BookingHandler struct {
	bookings *service.BookingService
	metrics  *service.MetricsService
}

// NewBookingHandler constructs BookingHandler.
func NewBookingHandler(bookings *service.BookingService, metrics *service.MetricsService) *BookingHandler {
	return &BookingHandler{bookings: bookings, metrics: metrics}
}

// List returns bookings filtered by campus, room, classroom, day, or date.
func (h *BookingHandler) List(c *gin.Context) {
	var filter models.BookingFilter
	filter.CampusID = c.Query("campusId")
	filter.RoomID = c.Query("roomId")
	filter.ClassroomID = c.Query("classroomId")
	if raw := c.Query("dayOfWeek"); raw != "" {
		if day, err := strconv.Atoi(raw); err == nil && day >= 0 && day <= 6 {
			filter.DayOfWeek = &day
		}
	}
	if raw := c.Query("date"); raw != "" {
		if date, err := time.Parse("2006-01-02", raw); err == nil {
			filter.Date = &date
		}
	}
	filter.Page, filter.PageSize = parsePageQuery(c)

	bookings, pagination, err := h.bookings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, pagination)
}

// Get returns one booking.
func (h *BookingHandler) Get(c *gin.Context) {
	booking, err := h.bookings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// CheckConflict reports whether a proposed slot collides with an
// existing booking. A detected conflict still returns 200; the result
// carries the verdict.
func (h *BookingHandler) CheckConflict(c *gin.Context) {
	var req service.CheckConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.bookings.CheckConflict(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordConflictCheck(result.HasConflict)
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create books a room slot. A conflicting slot is rejected.
func (h *BookingHandler) Create(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	booking, err := h.bookings.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// Update modifies a booking, re-running the conflict check against
// every booking except itself.
func (h *BookingHandler) Update(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	booking, err := h.bookings.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Delete removes a booking.
func (h *BookingHandler) Delete(c *gin.Context) {
	if err := h.bookings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
