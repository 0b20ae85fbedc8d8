package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edupoint-id/edupoint-api/internal/models"
	"github.com/edupoint-id/edupoint-api/pkg/config"
	appErrors "github.com/edupoint-id/edupoint-api/pkg/errors"
)

type bookingRepository interface {
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	ListRecurring(ctx context.Context, campusID string, dayOfWeek int) ([]models.Booking, error)
	ListDated(ctx context.Context, campusID string, date time.Time) ([]models.Booking, error)
	ListDatedByWeekday(ctx context.Context, campusID string, dayOfWeek int) ([]models.Booking, error)
	Create(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, booking *models.Booking) error
	Delete(ctx context.Context, id string) error
}

type roomLookup interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

// CheckConflictRequest describes a proposed room/time slot. Exactly one
// of DayOfWeek (recurring weekly, 0 = Monday) or Date (one-off,
// YYYY-MM-DD) must be set.
type CheckConflictRequest struct {
	CampusID         string `json:"campus_id" validate:"required"`
	RoomID           string `json:"room_id" validate:"required"`
	DayOfWeek        *int   `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time" validate:"required"`
	EndTime          string `json:"end_time" validate:"required"`
	ExcludeBookingID string `json:"exclude_booking_id"`
}

// CreateBookingRequest describes payload for creating a booking.
type CreateBookingRequest struct {
	CampusID    string `json:"campus_id" validate:"required"`
	RoomID      string `json:"room_id" validate:"required"`
	ClassroomID string `json:"classroom_id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	DayOfWeek   *int   `json:"day_of_week" validate:"omitempty,min=0,max=6"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time" validate:"required"`
	EndTime     string `json:"end_time" validate:"required"`
}

// BookingService coordinates booking CRUD and room conflict detection.
type BookingService struct {
	repo      bookingRepository
	rooms     roomLookup
	cfg       config.ScheduleConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBookingService instantiates BookingService.
func NewBookingService(repo bookingRepository, rooms roomLookup, cfg config.ScheduleConfig, validate *validator.Validate, logger *zap.Logger) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{repo: repo, rooms: rooms, cfg: cfg, validator: validate, logger: logger}
}

// roomLabel resolves a room id to its human-readable code for conflict
// messages. Falls back to the raw id when the room cannot be loaded.
func (s *BookingService) roomLabel(ctx context.Context, roomID string) string {
	if s.rooms == nil {
		return roomID
	}
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil || room == nil {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("failed to resolve room for conflict message", zap.String("room_id", roomID), zap.Error(err))
		}
		return roomID
	}
	if room.Code != "" {
		return room.Code
	}
	if room.Name != "" {
		return room.Name
	}
	return roomID
}

// List returns bookings with pagination metadata.
func (s *BookingService) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, *models.Pagination, error) {
	bookings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return bookings, pagination, nil
}

// Get returns one booking by id.
func (s *BookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	return booking, nil
}

// CheckConflict determines whether the proposed slot overlaps an
// existing booking for the same room, campus, and recurrence key. A
// lookup failure blocks the check rather than silently passing.
func (s *BookingService) CheckConflict(ctx context.Context, req CheckConflictRequest) (*models.ConflictResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}

	slot, err := s.parseSlot(req.DayOfWeek, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	candidates, err := s.loadCandidates(ctx, req.CampusID, slot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings for conflict check")
	}

	for _, candidate := range candidates {
		if candidate.ID == req.ExcludeBookingID {
			continue
		}
		if candidate.RoomID != req.RoomID {
			continue
		}
		existingStart, err := models.MinuteOfDay(candidate.StartTime)
		if err != nil {
			s.logger.Warn("booking has malformed start time", zap.String("booking_id", candidate.ID), zap.Error(err))
			continue
		}
		existingEnd, err := models.MinuteOfDay(candidate.EndTime)
		if err != nil {
			s.logger.Warn("booking has malformed end time", zap.String("booking_id", candidate.ID), zap.Error(err))
			continue
		}
		if models.WindowsOverlap(slot.startMin, slot.endMin, existingStart, existingEnd) {
			conflicting := candidate
			return &models.ConflictResult{
				HasConflict: true,
				Conflicting: &conflicting,
				Message:     fmt.Sprintf("room %s is already booked %s", s.roomLabel(ctx, req.RoomID), conflicting.TimeWindow()),
			}, nil
		}
	}

	return &models.ConflictResult{HasConflict: false}, nil
}

// Create inserts a new booking after conflict detection.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	slot, err := s.parseSlot(req.DayOfWeek, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNoConflict(ctx, req.CampusID, req.RoomID, req.DayOfWeek, req.Date, req.StartTime, req.EndTime, ""); err != nil {
		return nil, err
	}

	booking := models.Booking{
		CampusID:    req.CampusID,
		RoomID:      req.RoomID,
		ClassroomID: req.ClassroomID,
		Title:       req.Title,
		DayOfWeek:   req.DayOfWeek,
		Date:        slot.date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}

	if err := s.repo.Create(ctx, &booking); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}
	return &booking, nil
}

// Update modifies an existing booking, checking conflicts against
// everything except the booking itself.
func (s *BookingService) Update(ctx context.Context, id string, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	slot, err := s.parseSlot(req.DayOfWeek, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNoConflict(ctx, req.CampusID, req.RoomID, req.DayOfWeek, req.Date, req.StartTime, req.EndTime, existing.ID); err != nil {
		return nil, err
	}

	updated := models.Booking{
		ID:          existing.ID,
		CampusID:    req.CampusID,
		RoomID:      req.RoomID,
		ClassroomID: req.ClassroomID,
		Title:       req.Title,
		DayOfWeek:   req.DayOfWeek,
		Date:        slot.date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		CreatedAt:   existing.CreatedAt,
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update booking")
	}
	return &updated, nil
}

// Delete removes a booking.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete booking")
	}
	return nil
}

func (s *BookingService) ensureNoConflict(ctx context.Context, campusID, roomID string, dayOfWeek *int, date, startTime, endTime, excludeID string) error {
	result, err := s.CheckConflict(ctx, CheckConflictRequest{
		CampusID:         campusID,
		RoomID:           roomID,
		DayOfWeek:        dayOfWeek,
		Date:             date,
		StartTime:        startTime,
		EndTime:          endTime,
		ExcludeBookingID: excludeID,
	})
	if err != nil {
		return err
	}
	if result.HasConflict {
		return appErrors.Clone(appErrors.ErrConflict, result.Message)
	}
	return nil
}

type bookingSlot struct {
	dayOfWeek *int
	date      *time.Time
	startMin  int
	endMin    int
}

func (s *BookingService) parseSlot(dayOfWeek *int, date, startTime, endTime string) (*bookingSlot, error) {
	if (dayOfWeek == nil) == (date == "") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of day_of_week or date must be set")
	}

	slot := &bookingSlot{dayOfWeek: dayOfWeek}

	if date != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
		}
		slot.date = &parsed
	}

	startMin, err := models.MinuteOfDay(startTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	endMin, err := models.MinuteOfDay(endTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if startMin >= endMin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}
	slot.startMin = startMin
	slot.endMin = endMin
	return slot, nil
}

// loadCandidates fetches bookings that share the slot's recurrence key.
// Recurring and dated bookings live in separate match spaces unless
// cross-type checking is enabled, in which case a dated slot is also
// compared against recurring bookings on the same weekday and vice
// versa.
func (s *BookingService) loadCandidates(ctx context.Context, campusID string, slot *bookingSlot) ([]models.Booking, error) {
	if slot.dayOfWeek != nil {
		candidates, err := s.repo.ListRecurring(ctx, campusID, *slot.dayOfWeek)
		if err != nil {
			return nil, err
		}
		if !s.cfg.CrossTypeConflicts {
			return candidates, nil
		}
		// A recurring slot repeats on every date with this weekday, so
		// dated bookings falling on that weekday are candidates too.
		dated, err := s.repo.ListDatedByWeekday(ctx, campusID, *slot.dayOfWeek)
		if err != nil {
			return nil, err
		}
		return append(candidates, dated...), nil
	}

	candidates, err := s.repo.ListDated(ctx, campusID, *slot.date)
	if err != nil {
		return nil, err
	}
	if s.cfg.CrossTypeConflicts {
		weekday := mondayBasedWeekday(*slot.date)
		recurring, err := s.repo.ListRecurring(ctx, campusID, weekday)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, recurring...)
	}
	return candidates, nil
}

// mondayBasedWeekday converts time.Weekday (Sunday = 0) to the
// Monday-based 0-6 convention bookings use.
func mondayBasedWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
