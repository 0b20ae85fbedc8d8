package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edupoint-id/edupoint-api/internal/models"
	"github.com/edupoint-id/edupoint-api/pkg/config"
)

type mockBookingRepo struct {
	bookings map[string]models.Booking
	listErr  error
	created  []models.Booking
}

func (m *mockBookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	all := make([]models.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		all = append(all, b)
	}
	return all, len(all), nil
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	if b, ok := m.bookings[id]; ok {
		return &b, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockBookingRepo) ListRecurring(ctx context.Context, campusID string, dayOfWeek int) ([]models.Booking, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Booking
	for _, b := range m.bookings {
		if b.CampusID == campusID && b.DayOfWeek != nil && *b.DayOfWeek == dayOfWeek {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ListDated(ctx context.Context, campusID string, date time.Time) ([]models.Booking, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Booking
	for _, b := range m.bookings {
		if b.CampusID == campusID && b.Date != nil && b.Date.Equal(date) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) ListDatedByWeekday(ctx context.Context, campusID string, dayOfWeek int) ([]models.Booking, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.Booking
	for _, b := range m.bookings {
		if b.CampusID == campusID && b.Date != nil && (int(b.Date.Weekday())+6)%7 == dayOfWeek {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if m.bookings == nil {
		m.bookings = make(map[string]models.Booking)
	}
	if booking.ID == "" {
		booking.ID = "generated"
	}
	m.bookings[booking.ID] = *booking
	m.created = append(m.created, *booking)
	return nil
}

func (m *mockBookingRepo) Update(ctx context.Context, booking *models.Booking) error {
	m.bookings[booking.ID] = *booking
	return nil
}

func (m *mockBookingRepo) Delete(ctx context.Context, id string) error {
	delete(m.bookings, id)
	return nil
}

func intPtr(v int) *int { return &v }

func recurringBooking(id, room string, day int, start, end string) models.Booking {
	return models.Booking{
		ID:          id,
		CampusID:    "campus-1",
		RoomID:      room,
		ClassroomID: "class-1",
		Title:       "Math",
		DayOfWeek:   intPtr(day),
		StartTime:   start,
		EndTime:     end,
	}
}

type mockRoomLookup struct {
	rooms map[string]*models.Room
	err   error
}

func (m *mockRoomLookup) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if m.err != nil {
		return nil, m.err
	}
	if room, ok := m.rooms[id]; ok {
		return room, nil
	}
	return nil, sql.ErrNoRows
}

func datedBooking(id, room string, date time.Time, start, end string) models.Booking {
	return models.Booking{
		ID:          id,
		CampusID:    "campus-1",
		RoomID:      room,
		ClassroomID: "class-1",
		Title:       "Exam",
		Date:        &date,
		StartTime:   start,
		EndTime:     end,
	}
}

func newBookingService(repo *mockBookingRepo, crossType bool) *BookingService {
	return NewBookingService(repo, &mockRoomLookup{}, config.ScheduleConfig{CrossTypeConflicts: crossType}, validator.New(), zap.NewNop())
}

func TestCheckConflictOverlap(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": recurringBooking("b1", "A101", 0, "08:00", "09:00"),
	}}
	svc := newBookingService(repo, false)

	result, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    "A101",
		DayOfWeek: intPtr(0),
		StartTime: "08:30",
		EndTime:   "09:30",
	})
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	require.NotNil(t, result.Conflicting)
	assert.Equal(t, "b1", result.Conflicting.ID)
	assert.Contains(t, result.Message, "A101")
	assert.Contains(t, result.Message, "08:00 - 09:00")
}

func TestCheckConflictAdjacentWindows(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": recurringBooking("b1", "A101", 0, "08:00", "09:00"),
	}}
	svc := newBookingService(repo, false)

	result, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    "A101",
		DayOfWeek: intPtr(0),
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
	assert.Nil(t, result.Conflicting)
}

func TestCheckConflictDifferentDay(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": recurringBooking("b1", "A101", 0, "08:00", "09:00"),
	}}
	svc := newBookingService(repo, false)

	result, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    "A101",
		DayOfWeek: intPtr(1),
		StartTime: "08:00",
		EndTime:   "09:00",
	})
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestCheckConflictDifferentRoom(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": recurringBooking("b1", "A101", 0, "08:00", "09:00"),
	}}
	svc := newBookingService(repo, false)

	result, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    "B202",
		DayOfWeek: intPtr(0),
		StartTime: "08:00",
		EndTime:   "09:00",
	})
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestCheckConflictExcludesOwnBooking(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": recurringBooking("b1", "A101", 0, "08:00", "09:00"),
	}}
	svc := newBookingService(repo, false)

	result, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:         "campus-1",
		RoomID:           "A101",
		DayOfWeek:        intPtr(0),
		StartTime:        "08:00",
		EndTime:          "09:00",
		ExcludeBookingID: "b1",
	})
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestCheckConflictDatedVsRecurringSeparate(t *testing.T) {
	// 2026-01-05 is a Monday.
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": recurringBooking("b1", "A101", 0, "08:00", "09:00"),
	}}
	svc := newBookingService(repo, false)

	result, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    "A101",
		Date:      "2026-01-05",
		StartTime: "08:00",
		EndTime:   "09:00",
	})
	require.NoError(t, err)
	assert.False(t, result.HasConflict)
}

func TestCheckConflictCrossTypeEnabled(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": recurringBooking("b1", "A101", 0, "08:00", "09:00"),
	}}
	svc := newBookingService(repo, true)

	result, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    "A101",
		Date:      "2026-01-05",
		StartTime: "08:30",
		EndTime:   "09:30",
	})
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	require.NotNil(t, result.Conflicting)
	assert.Equal(t, "b1", result.Conflicting.ID)
}

func TestCheckConflictCrossTypeRecurringVsDated(t *testing.T) {
	// 2026-01-05 is a Monday, so a recurring Monday request must see it.
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": datedBooking("b1", "A101", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "08:00", "09:00"),
	}}
	svc := newBookingService(repo, true)

	result, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    "A101",
		DayOfWeek: intPtr(0),
		StartTime: "08:30",
		EndTime:   "09:30",
	})
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	require.NotNil(t, result.Conflicting)
	assert.Equal(t, "b1", result.Conflicting.ID)
}

func TestCheckConflictMessageUsesRoomCode(t *testing.T) {
	roomID := "7c9e6679-7425-40de-944b-e07fc1f90ae7"
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": recurringBooking("b1", roomID, 0, "08:00", "09:00"),
	}}
	svc := newBookingService(repo, false)
	svc.rooms = &mockRoomLookup{rooms: map[string]*models.Room{
		roomID: {ID: roomID, Code: "A101"},
	}}

	result, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    roomID,
		DayOfWeek: intPtr(0),
		StartTime: "08:30",
		EndTime:   "09:30",
	})
	require.NoError(t, err)
	assert.True(t, result.HasConflict)
	assert.Contains(t, result.Message, "A101")
	assert.NotContains(t, result.Message, roomID)
}

func TestCheckConflictLookupFailureBlocks(t *testing.T) {
	repo := &mockBookingRepo{listErr: errors.New("connection refused")}
	svc := newBookingService(repo, false)

	_, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    "A101",
		DayOfWeek: intPtr(0),
		StartTime: "08:00",
		EndTime:   "09:00",
	})
	require.Error(t, err)
}

func TestCheckConflictRejectsInvertedWindow(t *testing.T) {
	svc := newBookingService(&mockBookingRepo{}, false)

	_, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    "A101",
		DayOfWeek: intPtr(0),
		StartTime: "09:00",
		EndTime:   "09:00",
	})
	require.Error(t, err)
}

func TestCheckConflictRejectsAmbiguousRecurrence(t *testing.T) {
	svc := newBookingService(&mockBookingRepo{}, false)

	_, err := svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    "A101",
		DayOfWeek: intPtr(0),
		Date:      "2026-01-05",
		StartTime: "08:00",
		EndTime:   "09:00",
	})
	require.Error(t, err)

	_, err = svc.CheckConflict(context.Background(), CheckConflictRequest{
		CampusID:  "campus-1",
		RoomID:    "A101",
		StartTime: "08:00",
		EndTime:   "09:00",
	})
	require.Error(t, err)
}

func TestCreateBookingRejectsConflict(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": recurringBooking("b1", "A101", 0, "08:00", "09:00"),
	}}
	svc := newBookingService(repo, false)

	_, err := svc.Create(context.Background(), CreateBookingRequest{
		CampusID:    "campus-1",
		RoomID:      "A101",
		ClassroomID: "class-1",
		Title:       "Physics",
		DayOfWeek:   intPtr(0),
		StartTime:   "08:30",
		EndTime:     "09:30",
	})
	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestCreateBookingSucceeds(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": recurringBooking("b1", "A101", 0, "08:00", "09:00"),
	}}
	svc := newBookingService(repo, false)

	booking, err := svc.Create(context.Background(), CreateBookingRequest{
		CampusID:    "campus-1",
		RoomID:      "A101",
		ClassroomID: "class-1",
		Title:       "Physics",
		DayOfWeek:   intPtr(0),
		StartTime:   "09:00",
		EndTime:     "10:00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.Len(t, repo.created, 1)
}

func TestUpdateBookingExcludesItself(t *testing.T) {
	repo := &mockBookingRepo{bookings: map[string]models.Booking{
		"b1": recurringBooking("b1", "A101", 0, "08:00", "09:00"),
	}}
	svc := newBookingService(repo, false)

	updated, err := svc.Update(context.Background(), "b1", CreateBookingRequest{
		CampusID:    "campus-1",
		RoomID:      "A101",
		ClassroomID: "class-1",
		Title:       "Math",
		DayOfWeek:   intPtr(0),
		StartTime:   "08:15",
		EndTime:     "09:15",
	})
	require.NoError(t, err)
	assert.Equal(t, "08:15", updated.StartTime)
}
