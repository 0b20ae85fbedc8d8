package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edupoint-id/edupoint-api/internal/models"
	"github.com/edupoint-id/edupoint-api/internal/service"
	"github.com/edupoint-id/edupoint-api/pkg/config"
)

type fakeBookingRepo struct {
	bookings []models.Booking
	listErr  error
}

func (f *fakeBookingRepo) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int, error) {
	return f.bookings, len(f.bookings), f.listErr
}

func (f *fakeBookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	for _, b := range f.bookings {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeBookingRepo) ListRecurring(ctx context.Context, campusID string, dayOfWeek int) ([]models.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Booking
	for _, b := range f.bookings {
		if b.DayOfWeek != nil && *b.DayOfWeek == dayOfWeek {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListDated(ctx context.Context, campusID string, date time.Time) ([]models.Booking, error) {
	return nil, f.listErr
}

func (f *fakeBookingRepo) ListDatedByWeekday(ctx context.Context, campusID string, dayOfWeek int) ([]models.Booking, error) {
	return nil, f.listErr
}

func (f *fakeBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	booking.ID = "created"
	f.bookings = append(f.bookings, *booking)
	return nil
}

func (f *fakeBookingRepo) Update(ctx context.Context, booking *models.Booking) error { return nil }

func (f *fakeBookingRepo) Delete(ctx context.Context, id string) error { return nil }

type fakeRoomLookup struct{}

func (fakeRoomLookup) FindByID(ctx context.Context, id string) (*models.Room, error) {
	return nil, sql.ErrNoRows
}

func newBookingHandlerFixture(repo *fakeBookingRepo) *BookingHandler {
	svc := service.NewBookingService(repo, fakeRoomLookup{}, config.ScheduleConfig{}, nil, zap.NewNop())
	return NewBookingHandler(svc, nil)
}

func postJSON(t *testing.T, payload interface{}, target string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	return rec, c
}

func TestBookingHandlerCheckConflictDetected(t *testing.T) {
	day := 0
	repo := &fakeBookingRepo{bookings: []models.Booking{{
		ID: "b1", CampusID: "campus-1", RoomID: "A101", ClassroomID: "class-1",
		Title: "Math", DayOfWeek: &day, StartTime: "08:00", EndTime: "09:00",
	}}}
	handler := newBookingHandlerFixture(repo)

	rec, c := postJSON(t, gin.H{
		"campus_id":   "campus-1",
		"room_id":     "A101",
		"day_of_week": 0,
		"start_time":  "08:30",
		"end_time":    "09:30",
	}, "/bookings/check-conflict")
	handler.CheckConflict(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.ConflictResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.HasConflict)
	assert.Contains(t, envelope.Data.Message, "A101")
	assert.Contains(t, envelope.Data.Message, "08:00 - 09:00")
}

func TestBookingHandlerCheckConflictClear(t *testing.T) {
	handler := newBookingHandlerFixture(&fakeBookingRepo{})

	rec, c := postJSON(t, gin.H{
		"campus_id":   "campus-1",
		"room_id":     "A101",
		"day_of_week": 0,
		"start_time":  "08:00",
		"end_time":    "09:00",
	}, "/bookings/check-conflict")
	handler.CheckConflict(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.ConflictResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.HasConflict)
}

func TestBookingHandlerCheckConflictInvalidPayload(t *testing.T) {
	handler := newBookingHandlerFixture(&fakeBookingRepo{})

	rec, c := postJSON(t, gin.H{
		"campus_id":  "campus-1",
		"room_id":    "A101",
		"start_time": "08:00",
		"end_time":   "09:00",
	}, "/bookings/check-conflict")
	handler.CheckConflict(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandlerCheckConflictLookupFailure(t *testing.T) {
	handler := newBookingHandlerFixture(&fakeBookingRepo{listErr: assert.AnError})

	rec, c := postJSON(t, gin.H{
		"campus_id":   "campus-1",
		"room_id":     "A101",
		"day_of_week": 0,
		"start_time":  "08:00",
		"end_time":    "09:00",
	}, "/bookings/check-conflict")
	handler.CheckConflict(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBookingHandlerCreateConflictRejected(t *testing.T) {
	day := 0
	repo := &fakeBookingRepo{bookings: []models.Booking{{
		ID: "b1", CampusID: "campus-1", RoomID: "A101", ClassroomID: "class-1",
		Title: "Math", DayOfWeek: &day, StartTime: "08:00", EndTime: "09:00",
	}}}
	handler := newBookingHandlerFixture(repo)

	rec, c := postJSON(t, gin.H{
		"campus_id":    "campus-1",
		"room_id":      "A101",
		"classroom_id": "class-1",
		"title":        "Physics",
		"day_of_week":  0,
		"start_time":   "08:30",
		"end_time":     "09:30",
	}, "/bookings")
	handler.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
