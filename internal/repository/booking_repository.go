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

const bookingColumns = "id, campus_id, room_id, classroom_id, title, day_of_week, date, start_time, end_time, created_at, updated_at"

// BookingRepository provides persistence for room bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// List returns bookings with optional filtering and pagination.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	base := "FROM bookings WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CampusID != "" {
		conditions = append(conditions, fmt.Sprintf("campus_id = $%d", len(args)+1))
		args = append(args, filter.CampusID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.DayOfWeek != nil {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, *filter.DayOfWeek)
	}
	if filter.Date != nil {
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)+1))
		args = append(args, *filter.Date)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_of_week NULLS LAST, date NULLS LAST, start_time ASC LIMIT %d OFFSET %d", bookingColumns, base, size, offset)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	return bookings, total, nil
}

// FindByID loads a booking by id.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE id = $1", bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// ListRecurring returns recurring bookings for a campus on a weekday.
func (r *BookingRepository) ListRecurring(ctx context.Context, campusID string, dayOfWeek int) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE campus_id = $1 AND day_of_week = $2", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, campusID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list recurring bookings: %w", err)
	}
	return bookings, nil
}

// ListDated returns one-off bookings for a campus on a calendar date.
func (r *BookingRepository) ListDated(ctx context.Context, campusID string, date time.Time) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE campus_id = $1 AND date = $2", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, campusID, date); err != nil {
		return nil, fmt.Errorf("list dated bookings: %w", err)
	}
	return bookings, nil
}

// ListDatedByWeekday returns one-off bookings for a campus whose date
// falls on the given Monday-based weekday (0 = Monday).
func (r *BookingRepository) ListDatedByWeekday(ctx context.Context, campusID string, dayOfWeek int) ([]models.Booking, error) {
	query := fmt.Sprintf("SELECT %s FROM bookings WHERE campus_id = $1 AND date IS NOT NULL AND EXTRACT(ISODOW FROM date) - 1 = $2", bookingColumns)
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, campusID, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list dated bookings by weekday: %w", err)
	}
	return bookings, nil
}

// Create stores a new booking record.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	const query = `INSERT INTO bookings (id, campus_id, room_id, classroom_id, title, day_of_week, date, start_time, end_time, created_at, updated_at) VALUES (:id, :campus_id, :room_id, :classroom_id, :title, :day_of_week, :date, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// Update modifies a booking record.
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bookings SET campus_id = :campus_id, room_id = :room_id, classroom_id = :classroom_id, title = :title, day_of_week = :day_of_week, date = :date, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("update booking: %w", err)
	}
	return nil
}

// Delete removes a booking by id.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	return nil
}
