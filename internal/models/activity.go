package models

import "time"

// Activity is a scheduled school event.
type Activity struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Location    string    `db:"location" json:"location"`
	StartsAt    time.Time `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time `db:"ends_at" json:"ends_at"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ActivityMedia references a blob in the object store attached to an
// activity. Download URLs are signed and expire.
type ActivityMedia struct {
	ID         string    `db:"id" json:"id"`
	ActivityID string    `db:"activity_id" json:"activity_id"`
	FileName   string    `db:"file_name" json:"file_name"`
	StoredPath string    `db:"stored_path" json:"-"`
	MimeType   string    `db:"mime_type" json:"mime_type"`
	SizeBytes  int64     `db:"size_bytes" json:"size_bytes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ActivityMediaLink pairs a media row with its signed download URL.
type ActivityMediaLink struct {
	ActivityMedia
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ActivityFilter scopes activity listings.
type ActivityFilter struct {
	Search    string
	From      *time.Time
	To        *time.Time
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
