package models

import "time"

// Post is a short message published into one channel. Rows are never
// hard-deleted: removal flips IsDeleted and stamps DeletedAt, keeping the
// row for moderation review. Visibility filters are applied by explicit
// queries, not by gorm's soft-delete hooks, so deleted rows stay reachable
// without Unscoped escape hatches.
type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	Content   string     `gorm:"size:140;not null" json:"content"`
	Channel   string     `gorm:"size:32;index;not null" json:"channel"`
	IsDeleted bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
