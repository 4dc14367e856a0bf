package models

import "time"

// Comment is a reply attached to a post. SessionID is an opaque random
// token reserved for a future capability check (edit or retract your own
// reply without logging in); it is written on insert and never shown.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"size:500;not null" json:"content"`
	SessionID string    `gorm:"size:64" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
