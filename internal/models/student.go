package models

import "time"

// Student represents an enrolled learner.
type Student struct {
	ID          string    `db:"id" json:"id"`
	NIS         string    `db:"nis" json:"nis"`
	FullName    string    `db:"full_name" json:"full_name"`
	Gender      string    `db:"gender" json:"gender"`
	Guardian    *string   `db:"guardian" json:"guardian,omitempty"`
	Phone       *string   `db:"phone" json:"phone,omitempty"`
	ClassroomID *string   `db:"classroom_id" json:"classroom_id,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter captures filtering criteria for listing students.
type StudentFilter struct {
	ClassroomID string
	Active      *bool
	Search      string
	Page        int
	PageSize    int
}
