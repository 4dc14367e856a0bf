package services

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/kageban/kageban/models"
	"github.com/kageban/kageban/utils"
)

// Post content is counted in runes, not bytes, so Japanese text gets the
// same allowance as ASCII.
const maxPostRunes = 140

// PostService owns the post lifecycle: publish, soft-delete, and the
// listing queries. It reads and writes rows through explicit queries only;
// nothing here relies on gorm association loading.
type PostService struct {
	db       *gorm.DB
	channels *models.ChannelSet
	anon     *Anonymizer
}

// NewPostService wires the service with its database handle, the channel
// set, and the anonymizer. All three are fixed for the process lifetime.
func NewPostService(db *gorm.DB, channels *models.ChannelSet, anon *Anonymizer) *PostService {
	return &PostService{db: db, channels: channels, anon: anon}
}

// Create validates and stores a new post, returning it rendered the way
// the timeline will show it. Markup is stripped before the length check,
// so the stored text is what gets counted.
func (s *PostService) Create(userID uint, content, channel string) (PostView, error) {
	text := utils.SanitizeText(content)
	if n := utf8.RuneCountInString(text); n == 0 || n > maxPostRunes {
		return PostView{}, fmt.Errorf("%w: content must be 1-%d characters", ErrValidation, maxPostRunes)
	}
	if !s.channels.Valid(channel) {
		return PostView{}, fmt.Errorf("%w: unknown channel %q", ErrValidation, channel)
	}

	post := models.Post{
		UserID:    userID,
		Content:   text,
		Channel:   channel,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.Create(&post).Error; err != nil {
		return PostView{}, err
	}
	return s.compose(post, 0, nil), nil
}

// Delete soft-deletes a post. Only the author may delete; admin usernames
// gate the moderation listing, not deletion. Deleting an already-deleted
// post succeeds without touching the row, so the original deletion
// timestamp never regresses.
func (s *PostService) Delete(userID, postID uint) error {
	var post models.Post
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: post %d", ErrNotFound, postID)
		}
		return err
	}
	if post.UserID != userID {
		return fmt.Errorf("%w: post %d belongs to another user", ErrAuthorization, postID)
	}
	if post.IsDeleted {
		return nil
	}

	now := time.Now().UTC()
	return s.db.Model(&models.Post{}).Where("id = ?", post.ID).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": now}).Error
}

// Timeline returns visible posts, newest first, with their comments and
// like counts. A channel code filters to that channel; anything that is
// not a known channel (including the empty string) means no filter.
func (s *PostService) Timeline(channel string) ([]PostView, error) {
	q := s.db.Where("is_deleted = ?", false)
	if s.channels.Valid(channel) {
		q = q.Where("channel = ?", channel)
	}

	var posts []models.Post
	if err := q.Order("created_at DESC, id ASC").Find(&posts).Error; err != nil {
		return nil, err
	}
	return s.assemble(posts)
}

// ListMine returns the caller's own visible posts, newest first. This is
// the one listing where a user sees which pseudonyms are theirs.
func (s *PostService) ListMine(userID uint) ([]PostView, error) {
	var posts []models.Post
	err := s.db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at DESC, id ASC").Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return s.assemble(posts)
}

// DeletedPostView is the moderation listing entry. Unlike timeline views
// it carries the author's username: the identity link is retained
// internally and surfaces only here.
type DeletedPostView struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Content     string `json:"content"`
	Channel     string `json:"channel"`
	ChannelName string `json:"channel_name"`
	CreatedAt   string `json:"created_at"`
	DeletedAt   string `json:"deleted_at"`
}

// ListDeleted returns soft-deleted posts for moderation review, most
// recently deleted first.
func (s *PostService) ListDeleted() ([]DeletedPostView, error) {
	var posts []models.Post
	err := s.db.Where("is_deleted = ?", true).
		Order("deleted_at DESC, id ASC").Find(&posts).Error
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return []DeletedPostView{}, nil
	}

	userIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		userIDs = append(userIDs, p.UserID)
	}
	userIDs = utils.UniqueUint(userIDs)

	var users []models.User
	if err := s.db.Select("id", "username").Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}

	views := make([]DeletedPostView, 0, len(posts))
	for _, p := range posts {
		deletedAt := ""
		if p.DeletedAt != nil {
			deletedAt = formatJST(*p.DeletedAt)
		}
		views = append(views, DeletedPostView{
			ID:          p.ID,
			Username:    names[p.UserID],
			Content:     p.Content,
			Channel:     p.Channel,
			ChannelName: s.channels.DisplayName(p.Channel),
			CreatedAt:   formatJST(p.CreatedAt),
			DeletedAt:   deletedAt,
		})
	}
	return views, nil
}
