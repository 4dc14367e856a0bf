package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kageban/kageban/models"
)

// LikeService flips like marks on posts.
type LikeService struct {
	db *gorm.DB
}

func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

// Toggle likes the post if the caller has not liked it, and unlikes it if
// they have. It returns the resulting state and the post's like count
// after the flip. Toggling twice always lands back on the starting state.
func (s *LikeService) Toggle(userID, postID uint) (liked bool, count int64, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "is_deleted").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: post %d", ErrNotFound, postID)
			}
			return err
		}
		if post.IsDeleted {
			return fmt.Errorf("%w: post %d", ErrNotFound, postID)
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Nothing to remove, so this toggle is a like. A concurrent
			// toggle may have inserted the same row already; the unique
			// index plus DO NOTHING makes that case read as "liked" too.
			like := models.Like{UserID: userID, PostID: postID, CreatedAt: time.Now().UTC()}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
				return err
			}
			liked = true
		}

		return tx.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}
