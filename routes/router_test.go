package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kageban/kageban/config"
	"github.com/kageban/kageban/models"
	"github.com/kageban/kageban/utils"
)

func TestMain(m *testing.M) {
	os.Setenv("SECRET_KEY", "router-test-secret")
	os.Setenv("ADMIN_USERNAMES", "admin")
	if err := utils.InitLogger(config.Get()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "kageban.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{}, &models.PageView{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	cfg := config.Get()
	cfg.GinMode = "test"
	cfg.GinPath = filepath.Join(t.TempDir(), "gin_access.log")
	// independent of whatever redis the host may be running
	cfg.TimelineCacheTTLSec = 0
	return SetupRouter(cfg, db)
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		payload = b
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w, env
}

func register(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, "register %s: %s", username, w.Body.String())
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

type postView struct {
	ID          uint   `json:"id"`
	Author      string `json:"author"`
	Content     string `json:"content"`
	Channel     string `json:"channel"`
	ChannelName string `json:"channel_name"`
	CreatedAt   string `json:"created_at"`
	LikeCount   int64  `json:"like_count"`
	Comments    []struct {
		ID      uint   `json:"id"`
		Author  string `json:"author"`
		Content string `json:"content"`
	} `json:"comments"`
}

func createPost(t *testing.T, r *gin.Engine, token, content, channel string) postView {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/v1/posts", token, gin.H{
		"content": content,
		"channel": channel,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view postView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	return view
}

func timeline(t *testing.T, r *gin.Engine, channel string) []postView {
	t.Helper()
	path := "/api/v1/posts"
	if channel != "" {
		path += "?channel=" + channel
	}
	w, env := doJSON(t, r, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var data struct {
		Items []postView `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Items
}

func TestHealthChannelsAndNoRoute(t *testing.T) {
	r := newTestRouter(t)

	w, env := doJSON(t, r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/channels", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Items []struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Items, 4)
	codes := make([]string, 0, 4)
	for _, c := range data.Items {
		codes = append(codes, c.Code)
	}
	assert.Equal(t, []string{"general", "job", "class", "circle"}, codes)
	assert.Equal(t, "一般", data.Items[0].Name)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/unknown", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 40400, env.Code)

	// plain counters are exported even before the first event
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mw := httptest.NewRecorder()
	r.ServeHTTP(mw, req)
	assert.Equal(t, http.StatusOK, mw.Code)
	assert.Contains(t, mw.Body.String(), "kageban_posts_created_total")
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name string
		body gin.H
		want int
	}{
		{"ok", gin.H{"username": "yamada", "password": "secret123"}, http.StatusOK},
		{"kana ok", gin.H{"username": "やまだ12", "password": "secret123"}, http.StatusOK},
		{"username too short", gin.H{"username": "a", "password": "secret123"}, http.StatusBadRequest},
		{"username too long", gin.H{"username": strings.Repeat("x", 16), "password": "secret123"}, http.StatusBadRequest},
		{"username bad chars", gin.H{"username": "user name", "password": "secret123"}, http.StatusBadRequest},
		{"password too short", gin.H{"username": "tanaka", "password": "ab1"}, http.StatusBadRequest},
		{"password too long", gin.H{"username": "tanaka", "password": strings.Repeat("a", 19)}, http.StatusBadRequest},
		{"password bad chars", gin.H{"username": "suzuki", "password": "pass word!"}, http.StatusBadRequest},
		{"missing password", gin.H{"username": "nobody"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", tc.body)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r := newTestRouter(t)

	register(t, r, "alice", "secret123")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "alice",
		"password": "different9",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 40901, env.Code)
}

func TestLogin(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "bob", "secret123")

	w, env := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "bob",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
			IsAdmin  bool   `json:"is_admin"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, "bob", data.User.Username)
	assert.False(t, data.User.IsAdmin)

	// wrong password and unknown user answer identically
	w, env = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "bob", "password": "wrongwrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	wrongMsg := env.Message

	w, env = doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "nosuchuser", "password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrongMsg, env.Message)
}

func TestLogoutRevokesToken(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "carol", "secret123")

	w, _ := doJSON(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPostLifecycle(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "poster", "secret123")

	// writes require a token
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/posts", "", gin.H{
		"content": "匿名のまま", "channel": "general",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	view := createPost(t, r, token, "初めての投稿です", "general")
	assert.True(t, strings.HasPrefix(view.Author, "ポスト"), view.Author)
	assert.Equal(t, "general", view.Channel)
	assert.Equal(t, "一般", view.ChannelName)
	assert.Equal(t, int64(0), view.LikeCount)
	assert.Empty(t, view.Comments)

	// markup is stripped before storage
	stripped := createPost(t, r, token, "<b>太字</b>の投稿", "general")
	assert.Equal(t, "太字の投稿", stripped.Content)

	items := timeline(t, r, "")
	require.Len(t, items, 2)
	assert.Equal(t, stripped.ID, items[0].ID) // newest first
	assert.Equal(t, view.Author, items[1].Author)

	// over the rune limit
	w, env := doJSON(t, r, http.MethodPost, "/api/v1/posts", token, gin.H{
		"content": strings.Repeat("あ", 141), "channel": "general",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 40020, env.Code)

	// exactly at the limit is fine
	createPost(t, r, token, strings.Repeat("い", 140), "general")

	// unknown channel rejected
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/posts", token, gin.H{
		"content": "どこへ", "channel": "random",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// delete own post, then delete again: both succeed
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", view.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", view.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	items = timeline(t, r, "")
	require.Len(t, items, 2)
	for _, it := range items {
		assert.NotEqual(t, view.ID, it.ID)
	}
}

func TestDeleteAuthorization(t *testing.T) {
	r := newTestRouter(t)
	owner := register(t, r, "owner", "secret123")
	other := register(t, r, "other", "secret123")
	admin := register(t, r, "admin", "secret123")

	view := createPost(t, r, owner, "消される運命", "job")

	w, env := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", view.ID), other, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40301, env.Code)
	require.Len(t, timeline(t, r, "job"), 1)

	// admin status gates the moderation listing only, never deletion
	w, env = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", view.ID), admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 40301, env.Code)

	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", view.ID), owner, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, timeline(t, r, "job"))

	w, _ = doJSON(t, r, http.MethodDelete, "/api/v1/posts/99999", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTimelineChannelFilter(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "writer", "secret123")
	createPost(t, r, token, "就活の話", "job")
	createPost(t, r, token, "一般の話", "general")

	jobs := timeline(t, r, "job")
	require.Len(t, jobs, 1)
	assert.Equal(t, "就活の話", jobs[0].Content)
	assert.Equal(t, "就活", jobs[0].ChannelName)

	assert.Len(t, timeline(t, r, ""), 2)

	// unknown filter falls back to every channel
	assert.Len(t, timeline(t, r, "nonsense"), 2)
}

func TestLikeAndCommentFlow(t *testing.T) {
	r := newTestRouter(t)
	author := register(t, r, "author1", "secret123")
	reader := register(t, r, "reader1", "secret123")

	view := createPost(t, r, author, "いいねしてほしい", "circle")
	likePath := fmt.Sprintf("/api/v1/posts/%d/like", view.ID)

	var likeState struct {
		Liked     bool  `json:"liked"`
		LikeCount int64 `json:"like_count"`
	}

	w, env := doJSON(t, r, http.MethodPost, likePath, reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &likeState))
	assert.True(t, likeState.Liked)
	assert.Equal(t, int64(1), likeState.LikeCount)

	// toggling again removes it
	w, env = doJSON(t, r, http.MethodPost, likePath, reader, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &likeState))
	assert.False(t, likeState.Liked)
	assert.Equal(t, int64(0), likeState.LikeCount)

	// land on liked for the timeline assertions
	w, _ = doJSON(t, r, http.MethodPost, likePath, reader, nil)
	require.Equal(t, http.StatusOK, w.Code)

	commentPath := fmt.Sprintf("/api/v1/posts/%d/comments", view.ID)
	w, env = doJSON(t, r, http.MethodPost, commentPath, reader, gin.H{"content": "同感です"})
	require.Equal(t, http.StatusOK, w.Code)
	var comment struct {
		Author  string `json:"author"`
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &comment))
	assert.True(t, strings.HasPrefix(comment.Author, "返信"), comment.Author)
	assert.Equal(t, "同感です", comment.Content)

	items := timeline(t, r, "circle")
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].LikeCount)
	require.Len(t, items[0].Comments, 1)
	assert.Equal(t, comment.Author, items[0].Comments[0].Author)

	// likes and comments on a missing post are 404s
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/posts/99999/like", reader, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = doJSON(t, r, http.MethodPost, "/api/v1/posts/99999/comments", reader, gin.H{"content": "どこ？"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMyPostsAndModeration(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "worker", "secret123")
	adminToken := register(t, r, "admin", "secret123")

	first := createPost(t, r, token, "残す投稿", "class")
	second := createPost(t, r, token, "消す投稿", "class")

	w, _ := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", second.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/posts/mine", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Items []postView `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine.Items, 1)
	assert.Equal(t, first.ID, mine.Items[0].ID)

	// non-admins cannot read the moderation listing
	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/posts/deleted", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = doJSON(t, r, http.MethodGet, "/api/v1/posts/deleted", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted struct {
		Items []struct {
			ID        uint   `json:"id"`
			Username  string `json:"username"`
			Content   string `json:"content"`
			DeletedAt string `json:"deleted_at"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	require.Len(t, deleted.Items, 1)
	assert.Equal(t, second.ID, deleted.Items[0].ID)
	// the moderation view is the one place the real author shows up
	assert.Equal(t, "worker", deleted.Items[0].Username)
	assert.NotEmpty(t, deleted.Items[0].DeletedAt)
}

func TestStatsEndpoint(t *testing.T) {
	r := newTestRouter(t)
	token := register(t, r, "counter", "secret123")
	view := createPost(t, r, token, "統計の対象", "general")

	w, _ := doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/like", view.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// one recorded read: the timeline
	timeline(t, r, "")

	w, env := doJSON(t, r, http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		UserCount      int64 `json:"user_count"`
		PostCount      int64 `json:"post_count"`
		CommentCount   int64 `json:"comment_count"`
		LikeCount      int64 `json:"like_count"`
		PageViewsToday int64 `json:"page_views_today"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(1), stats.UserCount)
	assert.Equal(t, int64(1), stats.PostCount)
	assert.Equal(t, int64(0), stats.CommentCount)
	assert.Equal(t, int64(1), stats.LikeCount)
	assert.Equal(t, int64(1), stats.PageViewsToday)
}
