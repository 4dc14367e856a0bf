package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/kageban/kageban/config"
	"github.com/kageban/kageban/controllers"
	"github.com/kageban/kageban/middleware"
	"github.com/kageban/kageban/models"
	"github.com/kageban/kageban/services"
	"github.com/kageban/kageban/utils"
)

// SetupRouter wires routes, middlewares, controllers and the services they
// depend on. The pseudonym secret and the channel catalogue are bound here,
// once, and handed to the services explicitly.
func SetupRouter(cfg config.AppConfig, db *gorm.DB) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with the rolling-file zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if the logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	metrics := middleware.NewMetrics()
	r.Use(metrics.Collect())
	// Record PV after each API read
	r.Use(middleware.PageViewRecorder(db))

	r.GET("/metrics", metrics.Handler())
	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	channels := models.DefaultChannels()
	anonymizer := services.NewAnonymizer(cfg.SecretKey)
	postService := services.NewPostService(db, channels, anonymizer)
	likeService := services.NewLikeService(db)
	commentService := services.NewCommentService(db, anonymizer)
	cacheTTL := time.Duration(cfg.TimelineCacheTTLSec) * time.Second

	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(postService, likeService, commentService, channels, metrics, cacheTTL)
	channelController := controllers.NewChannelController(channels)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	api.GET("/channels", channelController.List)
	api.GET("/posts", postController.Timeline)
	api.GET("/stats", statsController.GetStats)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired())
	protected.POST("/posts", postController.CreatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.GET("/posts/mine", postController.ListMyPosts)
	protected.GET("/posts/deleted", postController.ListDeletedPosts)
	protected.POST("/posts/:id/like", postController.ToggleLike)
	protected.POST("/posts/:id/comments", postController.CreateComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
