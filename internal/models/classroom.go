package models

import "time"

// Classroom is a named group of enrolled students at a campus.
type Classroom struct {
	ID            string    `db:"id" json:"id"`
	CampusID      string    `db:"campus_id" json:"campus_id"`
	Name          string    `db:"name" json:"name"`
	HomeroomTeacher *string `db:"homeroom_teacher" json:"homeroom_teacher,omitempty"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ClassroomFilter scopes classroom listings.
type ClassroomFilter struct {
	CampusID string
	Active   *bool
	Search   string
	Page     int
	PageSize int
}

// RosterEntry is one enrolled student of a classroom. The roster size
// is the denominator for attendance completeness.
type RosterEntry struct {
	StudentID   string `db:"student_id" json:"student_id"`
	StudentName string `db:"student_name" json:"student_name"`
}
