package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"blogify/internal/cache"
	"blogify/internal/config"
	"blogify/internal/db"
	"blogify/internal/middleware"
	"blogify/internal/models"
	"blogify/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBCounter atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:handler_test_%d?mode=memory&cache=shared", testDBCounter.Add(1))
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

// newTestRouter wires the comment routes the way the server does, plus a
// test-only login route so requests can carry a real session cookie.
func newTestRouter(t *testing.T, conn *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(sessions.Sessions("blogify_session", cookie.NewStore([]byte("test-secret"))))
	r.Use(middleware.LoadUser(conn))

	r.POST("/session/:id", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		require.NoError(t, err)
		session := sessions.Default(c)
		session.Set(middleware.SessionUserKey, uint(id))
		require.NoError(t, session.Save())
		c.Status(http.StatusNoContent)
	})

	nop := zap.NewNop()
	mailer := services.NewMailService(config.SMTPConfig{}, "http://localhost:8080", "Blogify", nop)
	commentService := services.NewCommentService(conn)
	responseCache, err := cache.New(10)
	require.NoError(t, err)

	authHandler := NewAuthHandler(conn, services.NewTokenService(conn, mailer), nil, nop)
	postHandler := NewPostHandler(conn, commentService, nop)
	commentHandler := NewCommentHandler(conn, commentService, nop)
	bookmarkHandler := NewBookmarkHandler(conn, nop)
	feedHandler := NewFeedHandler(conn, responseCache, "http://localhost:8080", "Blogify", nop)

	r.GET("/feed", feedHandler.RSS)

	api := r.Group("/api")
	api.POST("/auth/forgot-password", authHandler.ForgotPassword)
	api.GET("/posts/search", postHandler.Search)
	api.GET("/posts/:id", postHandler.Get)
	api.GET("/posts/:id/comments", commentHandler.ListForPost)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired())
	authed.POST("/posts", postHandler.Create)
	authed.POST("/comments", commentHandler.Create)
	authed.DELETE("/comments/:id", commentHandler.Delete)
	authed.POST("/bookmarks", bookmarkHandler.Create)

	return r
}

func login(t *testing.T, r *gin.Engine, userID uint) []*http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/session/%d", userID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)
	return w.Result().Cookies()
}

func doJSON(r *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
