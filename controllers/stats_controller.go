package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kageban/kageban/models"
	"github.com/kageban/kageban/utils"
)

// StatsController provides board statistics such as counts and daily page
// views.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the board. Individual count
// failures fall back to 0 instead of failing the whole endpoint.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount int64
	var postCount int64
	var commentCount int64
	var likeCount int64
	var pageViewsToday int64

	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		userCount = 0
	}

	if err := s.db.Model(&models.Post{}).Where("is_deleted = ?", false).Count(&postCount).Error; err != nil {
		postCount = 0
	}

	if err := s.db.Model(&models.Comment{}).Count(&commentCount).Error; err != nil {
		commentCount = 0
	}

	if err := s.db.Model(&models.Like{}).Count(&likeCount).Error; err != nil {
		likeCount = 0
	}

	// Same UTC midnight bucket the page view recorder writes, so the
	// comparison round-trips identically on every driver.
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if err := s.db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&pageViewsToday).Error; err != nil {
		pageViewsToday = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":       userCount,
		"post_count":       postCount,
		"comment_count":    commentCount,
		"like_count":       likeCount,
		"page_views_today": pageViewsToday,
	})
}
