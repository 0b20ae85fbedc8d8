package models

import "time"

// Campus represents a physical school site.
type Campus struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Address   string    `db:"address" json:"address"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Room is a bookable space within a campus.
type Room struct {
	ID        string    `db:"id" json:"id"`
	CampusID  string    `db:"campus_id" json:"campus_id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// RoomFilter scopes room listings.
type RoomFilter struct {
	CampusID string
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
