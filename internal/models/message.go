package models

import "time"

// Message is a direct message between two users. Only the sender may edit or
// delete it.
type Message struct {
	ID         int64
	FromUserID string
	ToUserID   string
	Text       string
	Read       bool
	Edited     bool
	EditedAt   *time.Time
	CreatedAt  time.Time
}
