package models

import "time"

// AttendanceStatus represents the status recorded for one student in
// one session.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// SessionState classifies a session's completeness against the roster.
type SessionState string

const (
	SessionNotStarted SessionState = "not_started"
	SessionIncomplete SessionState = "incomplete"
	SessionComplete   SessionState = "complete"
)

// AttendanceSession is the per-classroom-per-date attendance record
// head. (classroom_id, date) is unique; saving twice for the same pair
// updates the same session.
type AttendanceSession struct {
	ID          string    `db:"id" json:"id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	Date        time.Time `db:"date" json:"date"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// AttendanceEntry is one student's status within a session.
type AttendanceEntry struct {
	ID         string           `db:"id" json:"id"`
	SessionID  string           `db:"session_id" json:"session_id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	Status     AttendanceStatus `db:"status" json:"status"`
	Notes      *string          `db:"notes" json:"notes,omitempty"`
	RecordedAt time.Time        `db:"recorded_at" json:"recorded_at"`
}

// AttendanceRecord joins a session with its entries keyed by student.
type AttendanceRecord struct {
	Session AttendanceSession          `json:"session"`
	Entries map[string]AttendanceEntry `json:"entries"`
}

// SessionSummary aggregates one session's entries against the roster.
type SessionSummary struct {
	State         SessionState `json:"state"`
	RosterSize    int          `json:"roster_size"`
	AttendedCount int          `json:"attended_count"`
	PresentCount  int          `json:"present_count"`
	LateCount     int          `json:"late_count"`
	AbsentCount   int          `json:"absent_count"`
	ExcusedCount  int          `json:"excused_count"`
}
