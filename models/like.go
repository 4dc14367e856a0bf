package models

import "time"

// Like marks that a user endorsed a post. The composite unique index is
// the ground truth for "at most one like per user per post": concurrent
// toggles race on the insert and the loser gets a duplicate-key error,
// which the service layer treats as "already liked".
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index:idx_likes_user_post,unique;not null" json:"user_id"`
	PostID    uint      `gorm:"index;index:idx_likes_user_post,unique;not null" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
