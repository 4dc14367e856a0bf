package services

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kageban/kageban/models"
	"github.com/kageban/kageban/utils"
)

const maxCommentRunes = 500

// CommentService appends replies to posts.
type CommentService struct {
	db   *gorm.DB
	anon *Anonymizer
}

func NewCommentService(db *gorm.DB, anon *Anonymizer) *CommentService {
	return &CommentService{db: db, anon: anon}
}

// Add validates and stores a reply to a visible post, returning it
// rendered the way the thread will show it.
func (s *CommentService) Add(userID, postID uint, content string) (CommentView, error) {
	text := utils.SanitizeText(content)
	if n := utf8.RuneCountInString(text); n == 0 || n > maxCommentRunes {
		return CommentView{}, fmt.Errorf("%w: comment must be 1-%d characters", ErrValidation, maxCommentRunes)
	}

	var post models.Post
	if err := s.db.Select("id", "is_deleted").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CommentView{}, fmt.Errorf("%w: post %d", ErrNotFound, postID)
		}
		return CommentView{}, err
	}
	if post.IsDeleted {
		return CommentView{}, fmt.Errorf("%w: post %d", ErrNotFound, postID)
	}

	comment := models.Comment{
		PostID:    postID,
		UserID:    userID,
		Content:   text,
		SessionID: uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return CommentView{}, err
	}

	return CommentView{
		ID:        comment.ID,
		Author:    s.anon.CommentName(postID, comment.ID),
		Content:   comment.Content,
		CreatedAt: formatJST(comment.CreatedAt),
	}, nil
}
