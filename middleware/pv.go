package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kageban/kageban/models"
)

// PageViewRecorder counts successful API reads per day and route. Only
// GET requests under /api/v1 are counted; /stats is excluded so checking
// the numbers does not inflate them. The route template is recorded, not
// the raw path, so /posts/1 and /posts/2 land in one bucket.
func PageViewRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		route := c.FullPath()
		if !strings.HasPrefix(route, "/api/v1/") || strings.Contains(route, "/stats") {
			return
		}

		// Midnight UTC keys the daily bucket, matching the stored DATE column.
		now := time.Now().UTC()
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

		// Atomic upsert so concurrent requests never race on the daily row.
		_ = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "route"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.PageView{Date: day, Route: route, Count: 1}).Error
	}
}
