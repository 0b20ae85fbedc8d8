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

func newBookingMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func bookingRows() *sqlmock.Rows {
	day := 0
	return sqlmock.NewRows([]string{"id", "campus_id", "room_id", "classroom_id", "title", "day_of_week", "date", "start_time", "end_time", "created_at", "updated_at"}).
		AddRow("b1", "campus-1", "A101", "class-1", "Math", day, nil, "08:00", "09:00", time.Now(), time.Now())
}

func TestBookingRepositoryList(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, campus_id, room_id, classroom_id, title, day_of_week, date, start_time, end_time, created_at, updated_at FROM bookings WHERE 1=1 AND campus_id = $1 ORDER BY day_of_week NULLS LAST, date NULLS LAST, start_time ASC LIMIT 20 OFFSET 0")).
		WithArgs("campus-1").
		WillReturnRows(bookingRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE 1=1 AND campus_id = $1")).
		WithArgs("campus-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	bookings, total, err := repo.List(context.Background(), models.BookingFilter{CampusID: "campus-1"})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListRecurring(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, campus_id, room_id, classroom_id, title, day_of_week, date, start_time, end_time, created_at, updated_at FROM bookings WHERE campus_id = $1 AND day_of_week = $2")).
		WithArgs("campus-1", 0).
		WillReturnRows(bookingRows())

	bookings, err := repo.ListRecurring(context.Background(), "campus-1", 0)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "A101", bookings[0].RoomID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryListDatedByWeekday(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	date := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "campus_id", "room_id", "classroom_id", "title", "day_of_week", "date", "start_time", "end_time", "created_at", "updated_at"}).
		AddRow("b2", "campus-1", "A101", "class-1", "Exam", nil, date, "10:00", "12:00", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, campus_id, room_id, classroom_id, title, day_of_week, date, start_time, end_time, created_at, updated_at FROM bookings WHERE campus_id = $1 AND date IS NOT NULL AND EXTRACT(ISODOW FROM date) - 1 = $2")).
		WithArgs("campus-1", 0).
		WillReturnRows(rows)

	bookings, err := repo.ListDatedByWeekday(context.Background(), "campus-1", 0)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Nil(t, bookings[0].DayOfWeek)
	require.NotNil(t, bookings[0].Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	day := 0
	booking := models.Booking{CampusID: "campus-1", RoomID: "A101", ClassroomID: "class-1", Title: "Math", DayOfWeek: &day, StartTime: "08:00", EndTime: "09:00"}
	err := repo.Create(context.Background(), &booking)
	require.NoError(t, err)
	assert.NotEmpty(t, booking.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newBookingMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec("DELETE FROM bookings").
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "b1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
