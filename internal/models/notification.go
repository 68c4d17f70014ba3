package models

import "time"

// NotificationType discriminates system alerts from peer-to-peer chat
// messages stored in the same table.
type NotificationType string

const (
	NotificationTypeSystem NotificationType = "SYSTEM"
	NotificationTypeChat   NotificationType = "CHAT"
)

// Valid returns true when the type is a supported value.
func (t NotificationType) Valid() bool {
	return t == NotificationTypeSystem || t == NotificationTypeChat
}

// Notification is either a system alert (nil sender) or a chat message.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	SenderID    *string          `db:"sender_id" json:"sender_id,omitempty"`
	RecipientID string           `db:"recipient_id" json:"recipient_id"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Body        string           `db:"body" json:"body"`
	ReadAt      *time.Time       `db:"read_at" json:"read_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter scopes inbox listings for one recipient.
type NotificationFilter struct {
	RecipientID string
	Type        *NotificationType
	UnreadOnly  bool
	Page        int
	PageSize    int
}
