package models

import (
	"fmt"
	"time"
)

// Booking allocates a room to a class, either as a recurring weekly
// slot (DayOfWeek set, 0 = Monday .. 6 = Sunday) or as a one-off dated
// slot (Date set). Exactly one of the two is ever present.
type Booking struct {
	ID          string     `db:"id" json:"id"`
	CampusID    string     `db:"campus_id" json:"campus_id"`
	RoomID      string     `db:"room_id" json:"room_id"`
	ClassroomID string     `db:"classroom_id" json:"classroom_id"`
	Title       string     `db:"title" json:"title"`
	DayOfWeek   *int       `db:"day_of_week" json:"day_of_week,omitempty"`
	Date        *time.Time `db:"date" json:"date,omitempty"`
	StartTime   string     `db:"start_time" json:"start_time"`
	EndTime     string     `db:"end_time" json:"end_time"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Recurring reports whether the booking repeats weekly.
func (b Booking) Recurring() bool {
	return b.DayOfWeek != nil
}

// TimeWindow returns the booking's "HH:MM - HH:MM" display window.
func (b Booking) TimeWindow() string {
	return fmt.Sprintf("%s - %s", b.StartTime, b.EndTime)
}

// BookingFilter scopes booking listings.
type BookingFilter struct {
	CampusID    string
	RoomID      string
	ClassroomID string
	DayOfWeek   *int
	Date        *time.Time
	Page        int
	PageSize    int
}

// ConflictResult is the outcome of a conflict check. A detected
// conflict is a normal negative result, not an error.
type ConflictResult struct {
	HasConflict bool     `json:"has_conflict"`
	Conflicting *Booking `json:"conflicting,omitempty"`
	Message     string   `json:"message,omitempty"`
}

// MinuteOfDay parses a "HH:MM" wall-clock string into minutes since
// midnight.
func MinuteOfDay(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// WindowsOverlap compares two half-open minute intervals. Touching
// endpoints (a ends exactly when b starts) do not overlap.
func WindowsOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}
