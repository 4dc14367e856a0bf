package services

import (
	"time"

	"github.com/kageban/kageban/models"
)

// Timestamps are rendered in Japan Standard Time regardless of where the
// server runs; storage stays UTC.
var jst = time.FixedZone("JST", 9*60*60)

func formatJST(t time.Time) string {
	return t.In(jst).Format("2006/01/02 15:04")
}

// CommentView is a comment as rendered on the timeline. Author is the
// pseudonymous display name, never the account.
type CommentView struct {
	ID        uint   `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// PostView is a post as rendered on the timeline, with its comment thread
// and like count folded in.
type PostView struct {
	ID          uint          `json:"id"`
	Author      string        `json:"author"`
	Content     string        `json:"content"`
	Channel     string        `json:"channel"`
	ChannelName string        `json:"channel_name"`
	CreatedAt   string        `json:"created_at"`
	LikeCount   int64         `json:"like_count"`
	Comments    []CommentView `json:"comments"`
}

// assemble turns post rows into rendered views. Like counts and comments
// are fetched with one grouped query each over the whole post set, so the
// query count stays flat no matter how long the timeline is.
func (s *PostService) assemble(posts []models.Post) ([]PostView, error) {
	if len(posts) == 0 {
		return []PostView{}, nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	var likeRows []struct {
		PostID uint
		Total  int64
	}
	err := s.db.Model(&models.Like{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&likeRows).Error
	if err != nil {
		return nil, err
	}
	likes := make(map[uint]int64, len(likeRows))
	for _, row := range likeRows {
		likes[row.PostID] = row.Total
	}

	var comments []models.Comment
	err = s.db.Where("post_id IN ?", ids).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	threads := make(map[uint][]CommentView, len(posts))
	for _, c := range comments {
		threads[c.PostID] = append(threads[c.PostID], CommentView{
			ID:        c.ID,
			Author:    s.anon.CommentName(c.PostID, c.ID),
			Content:   c.Content,
			CreatedAt: formatJST(c.CreatedAt),
		})
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, s.compose(p, likes[p.ID], threads[p.ID]))
	}
	return views, nil
}

func (s *PostService) compose(p models.Post, likeCount int64, comments []CommentView) PostView {
	if comments == nil {
		comments = []CommentView{}
	}
	return PostView{
		ID:          p.ID,
		Author:      s.anon.PostName(p.ID),
		Content:     p.Content,
		Channel:     p.Channel,
		ChannelName: s.channels.DisplayName(p.Channel),
		CreatedAt:   formatJST(p.CreatedAt),
		LikeCount:   likeCount,
		Comments:    comments,
	}
}
