package models

import "time"

// Guardian is a parent or caretaker optionally linked to a portal user.
// Guardians are hard-deleted; see the resource registry for the authoritative
// soft-delete table set.
type Guardian struct {
	ID           string    `db:"id" json:"id"`
	UserID       *string   `db:"user_id" json:"user_id,omitempty"`
	FullName     string    `db:"full_name" json:"full_name"`
	Relationship string    `db:"relationship" json:"relationship"`
	Phone        string    `db:"phone" json:"phone"`
	Address      string    `db:"address" json:"address"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GuardianFilter scopes guardian listings.
type GuardianFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
