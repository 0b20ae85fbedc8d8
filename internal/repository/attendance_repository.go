package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edupoint-id/edupoint-api/internal/models"
)

// AttendanceRepository persists attendance sessions and their entries.
// Sessions are unique per (classroom_id, date); entries are unique per
// (session_id, student_id). Both writes are upserts so a repeated
// commit never duplicates a session or an entry.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// FindByClassroomAndDate loads the record for an exact (classroom,
// date) pair. Returns sql.ErrNoRows via the driver when no session
// exists yet.
func (r *AttendanceRepository) FindByClassroomAndDate(ctx context.Context, classroomID string, date time.Time) (*models.AttendanceRecord, error) {
	const sessionQuery = `SELECT id, classroom_id, date, created_at, updated_at FROM attendance_sessions WHERE classroom_id = $1 AND date = $2`
	var session models.AttendanceSession
	if err := r.db.GetContext(ctx, &session, sessionQuery, classroomID, date); err != nil {
		return nil, err
	}

	const entriesQuery = `SELECT id, session_id, student_id, status, notes, recorded_at FROM attendance_entries WHERE session_id = $1`
	var entries []models.AttendanceEntry
	if err := r.db.SelectContext(ctx, &entries, entriesQuery, session.ID); err != nil {
		return nil, fmt.Errorf("load attendance entries: %w", err)
	}

	record := &models.AttendanceRecord{Session: session, Entries: make(map[string]models.AttendanceEntry, len(entries))}
	for _, entry := range entries {
		record.Entries[entry.StudentID] = entry
	}
	return record, nil
}

// UpsertRecord writes a session head and the provided entries in one
// transaction. Existing entries for the same student are overwritten
// (last-write-wins); entries for other students are left untouched.
func (r *AttendanceRepository) UpsertRecord(ctx context.Context, classroomID string, date time.Time, entries []models.AttendanceEntry) (*models.AttendanceRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin attendance upsert: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const sessionQuery = `INSERT INTO attendance_sessions (id, classroom_id, date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (classroom_id, date)
DO UPDATE SET updated_at = EXCLUDED.updated_at
RETURNING id, classroom_id, date, created_at, updated_at`
	var session models.AttendanceSession
	if err := tx.GetContext(ctx, &session, sessionQuery, uuid.NewString(), classroomID, date, now); err != nil {
		return nil, fmt.Errorf("upsert attendance session: %w", err)
	}

	const entryQuery = `INSERT INTO attendance_entries (id, session_id, student_id, status, notes, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (session_id, student_id)
DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, recorded_at = EXCLUDED.recorded_at`
	for _, entry := range entries {
		recordedAt := entry.RecordedAt
		if recordedAt.IsZero() {
			recordedAt = now
		}
		if _, err := tx.ExecContext(ctx, entryQuery, uuid.NewString(), session.ID, entry.StudentID, entry.Status, entry.Notes, recordedAt); err != nil {
			return nil, fmt.Errorf("upsert attendance entry: %w", err)
		}
	}

	const reloadQuery = `SELECT id, session_id, student_id, status, notes, recorded_at FROM attendance_entries WHERE session_id = $1`
	var stored []models.AttendanceEntry
	if err := tx.SelectContext(ctx, &stored, reloadQuery, session.ID); err != nil {
		return nil, fmt.Errorf("reload attendance entries: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit attendance upsert: %w", err)
	}
	committed = true

	record := &models.AttendanceRecord{Session: session, Entries: make(map[string]models.AttendanceEntry, len(stored))}
	for _, entry := range stored {
		record.Entries[entry.StudentID] = entry
	}
	return record, nil
}
