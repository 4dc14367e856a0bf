package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kageban/kageban/middleware"
	"github.com/kageban/kageban/models"
	"github.com/kageban/kageban/services"
	"github.com/kageban/kageban/utils"
)

// timelineCachePrefix namespaces the redis entries for timeline responses.
// Every write endpoint invalidates the whole prefix.
const timelineCachePrefix = "cache:timeline:"

// PostController translates the HTTP surface of posts, likes and comments
// onto the service layer.
type PostController struct {
	posts    *services.PostService
	likes    *services.LikeService
	comments *services.CommentService
	channels *models.ChannelSet
	metrics  *middleware.Metrics
	cacheTTL time.Duration
}

// NewPostController wires the post endpoints to their services.
func NewPostController(posts *services.PostService, likes *services.LikeService, comments *services.CommentService, channels *models.ChannelSet, metrics *middleware.Metrics, cacheTTL time.Duration) *PostController {
	return &PostController{
		posts:    posts,
		likes:    likes,
		comments: comments,
		channels: channels,
		metrics:  metrics,
		cacheTTL: cacheTTL,
	}
}

// Timeline returns the timeline, newest first. An unknown channel filter
// falls back to all channels rather than failing.
func (p *PostController) Timeline(ctx *gin.Context) {
	channel := strings.TrimSpace(ctx.Query("channel"))
	if !p.channels.Valid(channel) {
		channel = ""
	}

	// a zero TTL disables the cache entirely
	cacheKey := timelineCachePrefix + "channel=" + channel
	if p.cacheTTL > 0 {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	items, err := p.posts.Timeline(channel)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	payload := gin.H{"channel": channel, "items": items}
	if p.cacheTTL > 0 {
		// cache the whole envelope so hits can be replayed as raw bytes
		wrapper := struct {
			Code    int         `json:"code"`
			Message string      `json:"message"`
			Data    interface{} `json:"data"`
		}{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, p.cacheTTL)
	}

	utils.Success(ctx, payload)
}

// CreatePost accepts a new post into a channel.
func (p *PostController) CreatePost(ctx *gin.Context) {
	type request struct {
		Content string `json:"content" binding:"required"`
		Channel string `json:"channel" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	view, err := p.posts.Create(userID, req.Content, req.Channel)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	p.metrics.PostsCreated.Inc()
	utils.InvalidateByPrefix(timelineCachePrefix)
	utils.Success(ctx, view)
}

// DeletePost soft-deletes a post. Only the author may delete; deleting
// twice still succeeds.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID, ok := parsePostID(ctx)
	if !ok {
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	if err := p.posts.Delete(userID, postID); err != nil {
		handleServiceError(ctx, err)
		return
	}

	p.metrics.PostsDeleted.Inc()
	utils.InvalidateByPrefix(timelineCachePrefix)
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// ListMyPosts returns the caller's own visible posts, newest first.
func (p *PostController) ListMyPosts(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	items, err := p.posts.ListMine(userID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"items": items})
}

// ListDeletedPosts exposes soft-deleted posts together with their real
// author usernames. Restricted to admin usernames from configuration.
func (p *PostController) ListDeletedPosts(ctx *gin.Context) {
	if !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40302, "admin access required")
		return
	}

	items, err := p.posts.ListDeleted()
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"items": items})
}

// ToggleLike flips the caller's like on a post and returns the new state.
func (p *PostController) ToggleLike(ctx *gin.Context) {
	postID, ok := parsePostID(ctx)
	if !ok {
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	liked, count, err := p.likes.Toggle(userID, postID)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	p.metrics.LikesToggled.Inc()
	utils.InvalidateByPrefix(timelineCachePrefix)
	utils.Success(ctx, gin.H{"liked": liked, "like_count": count})
}

// CreateComment appends a comment to a visible post.
func (p *PostController) CreateComment(ctx *gin.Context) {
	postID, ok := parsePostID(ctx)
	if !ok {
		return
	}

	type request struct {
		Content string `json:"content" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40013, "invalid request payload")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		return
	}

	view, err := p.comments.Add(userID, postID, req.Content)
	if err != nil {
		handleServiceError(ctx, err)
		return
	}

	p.metrics.CommentsCreated.Inc()
	utils.InvalidateByPrefix(timelineCachePrefix)
	utils.Success(ctx, view)
}

// parsePostID reads the :id route parameter, writing the error response on
// failure.
func parsePostID(ctx *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(ctx.Param("id"))
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid post id")
		return 0, false
	}
	return uint(id), true
}

// getUserID extracts the authenticated user ID placed by AuthRequired.
func getUserID(ctx *gin.Context) (uint, bool) {
	v, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return 0, false
	}
	switch id := v.(type) {
	case uint:
		return id, true
	case int:
		return uint(id), true
	case int64:
		return uint(id), true
	case float64:
		return uint(id), true
	default:
		utils.Error(ctx, http.StatusUnauthorized, 40108, "unauthorized")
		return 0, false
	}
}

// isAdmin reports whether the authenticated username is configured as an
// admin.
func isAdmin(ctx *gin.Context) bool {
	v, exists := ctx.Get(middleware.ContextUsernameKey)
	if !exists {
		return false
	}
	username, _ := v.(string)
	return isAdminUsername(username)
}

// handleServiceError maps the service error taxonomy onto HTTP statuses.
// Anything unclassified is a store failure: logged and answered with a
// generic 500 so it is never mistaken for a client mistake.
func handleServiceError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.Error(ctx, http.StatusBadRequest, 40020, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40401, err.Error())
	case errors.Is(err, services.ErrAuthorization):
		utils.Error(ctx, http.StatusForbidden, 40301, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40901, err.Error())
	default:
		utils.Sugar.Errorw("service call failed", "path", ctx.FullPath(), "error", err)
		utils.Error(ctx, http.StatusInternalServerError, 50000, "internal server error")
	}
}
