package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupoint-id/edupoint-api/internal/models"
)

func newAttendanceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAttendanceRepositoryFindByClassroomAndDate(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, classroom_id, date, created_at, updated_at FROM attendance_sessions WHERE classroom_id = $1 AND date = $2")).
		WithArgs("class-1", date).
		WillReturnRows(sqlmock.NewRows([]string{"id", "classroom_id", "date", "created_at", "updated_at"}).
			AddRow("sess-1", "class-1", date, time.Now(), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, session_id, student_id, status, notes, recorded_at FROM attendance_entries WHERE session_id = $1")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "student_id", "status", "notes", "recorded_at"}).
			AddRow("e1", "sess-1", "s1", "present", nil, time.Now()).
			AddRow("e2", "sess-1", "s2", "late", "overslept", time.Now()))

	record, err := repo.FindByClassroomAndDate(context.Background(), "class-1", date)
	require.NoError(t, err)
	require.Len(t, record.Entries, 2)
	assert.Equal(t, models.AttendanceStatusPresent, record.Entries["s1"].Status)
	assert.Equal(t, models.AttendanceStatusLate, record.Entries["s2"].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryFindMissingSession(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, classroom_id, date, created_at, updated_at FROM attendance_sessions WHERE classroom_id = $1 AND date = $2")).
		WithArgs("class-1", date).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByClassroomAndDate(context.Background(), "class-1", date)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertRecord(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_sessions")).
		WithArgs(sqlmock.AnyArg(), "class-1", date, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "classroom_id", "date", "created_at", "updated_at"}).
			AddRow("sess-1", "class-1", date, time.Now(), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance_entries")).
		WithArgs(sqlmock.AnyArg(), "sess-1", "s1", models.AttendanceStatusPresent, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, session_id, student_id, status, notes, recorded_at FROM attendance_entries WHERE session_id = $1")).
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session_id", "student_id", "status", "notes", "recorded_at"}).
			AddRow("e1", "sess-1", "s1", "present", nil, time.Now()))
	mock.ExpectCommit()

	record, err := repo.UpsertRecord(context.Background(), "class-1", date, []models.AttendanceEntry{
		{StudentID: "s1", Status: models.AttendanceStatusPresent},
	})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", record.Session.ID)
	require.Len(t, record.Entries, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryUpsertRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newAttendanceMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO attendance_sessions")).
		WithArgs(sqlmock.AnyArg(), "class-1", date, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "classroom_id", "date", "created_at", "updated_at"}).
			AddRow("sess-1", "class-1", date, time.Now(), time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance_entries")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	_, err := repo.UpsertRecord(context.Background(), "class-1", date, []models.AttendanceEntry{
		{StudentID: "s1", Status: models.AttendanceStatusPresent},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
