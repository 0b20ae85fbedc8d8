package models

import "time"

// GradeEntry is one scored assessment for a student.
type GradeEntry struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	ClassroomID string    `db:"classroom_id" json:"classroom_id"`
	Subject     string    `db:"subject" json:"subject"`
	Term        string    `db:"term" json:"term"`
	Assessment  string    `db:"assessment" json:"assessment"`
	Score       float64   `db:"score" json:"score"`
	Weight      float64   `db:"weight" json:"weight"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GradeFilter scopes grade listings.
type GradeFilter struct {
	StudentID   string
	ClassroomID string
	Subject     string
	Term        string
	Page        int
	PageSize    int
}

// StudentGradeRecap is a weighted average per student and subject.
type StudentGradeRecap struct {
	StudentID   string  `db:"student_id" json:"student_id"`
	StudentName string  `db:"student_name" json:"student_name"`
	Subject     string  `db:"subject" json:"subject"`
	Entries     int     `db:"entries" json:"entries"`
	Average     float64 `db:"average" json:"average"`
}
