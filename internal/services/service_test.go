package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"blogify/internal/db"
	"blogify/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

// newTestDB opens a fresh in-memory database with the full schema. Each test
// gets its own database so tests stay independent.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared", testDBCounter.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB, username, email string) *models.User {
	t.Helper()

	user := models.User{
		Username: username,
		Email:    email,
		Password: "$2a$12$notarealhashnotarealhashnotarealhashnotarea",
		Name:     username,
	}
	require.NoError(t, conn.Create(&user).Error)
	return &user
}

func seedPost(t *testing.T, conn *gorm.DB, author *models.User, published bool) *models.Post {
	t.Helper()

	post := models.Post{
		Title:     "Test Post",
		Slug:      fmt.Sprintf("test-post-%d", testDBCounter.Add(1)),
		Content:   "Some content.",
		UserID:    author.ID,
		Published: published,
	}
	if published {
		now := time.Now()
		post.PublishedAt = &now
	}
	require.NoError(t, conn.Create(&post).Error)
	return &post
}
