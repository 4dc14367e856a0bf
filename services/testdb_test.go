package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kageban/kageban/models"
)

// newTestDB opens a throwaway sqlite database under the test's temp dir
// and migrates the full schema. The file is removed with the temp dir.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.PageView{},
	))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func testServices(t *testing.T) (*gorm.DB, *PostService, *LikeService, *CommentService) {
	t.Helper()
	db := newTestDB(t)
	anon := NewAnonymizer("test-secret")
	channels := models.DefaultChannels()
	return db, NewPostService(db, channels, anon), NewLikeService(db), NewCommentService(db, anon)
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "not-a-real-hash"}
	require.NoError(t, db.Create(&user).Error)
	return user
}
