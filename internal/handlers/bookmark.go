package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"blogify/internal/middleware"
	"blogify/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type BookmarkHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewBookmarkHandler(conn *gorm.DB, logger *zap.Logger) *BookmarkHandler {
	return &BookmarkHandler{db: conn, logger: logger}
}

// List returns the user's bookmarks, newest first, with the post and its
// author attached.
func (h *BookmarkHandler) List(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var bookmarks []models.Bookmark
	err := h.db.Preload("Post").Preload("Post.User").Preload("Post.Categories").
		Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Find(&bookmarks).Error
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	postIDs := make([]uint, len(bookmarks))
	for i, b := range bookmarks {
		postIDs[i] = b.PostID
	}
	counts := map[uint]int{}
	if len(postIDs) > 0 {
		type countResult struct {
			PostID uint
			Count  int
		}
		var results []countResult
		h.db.Model(&models.Comment{}).
			Select("post_id, COUNT(*) as count").
			Where("post_id IN ?", postIDs).
			Group("post_id").
			Scan(&results)
		for _, r := range results {
			counts[r.PostID] = r.Count
		}
	}

	for i := range bookmarks {
		bookmarks[i].Post.Author = bookmarks[i].Post.User.AuthorView()
		bookmarks[i].Post.CommentCount = counts[bookmarks[i].PostID]
	}
	respondData(c, http.StatusOK, bookmarks)
}

type createBookmarkRequest struct {
	PostID uint `json:"post_id"`
}

// Create bookmarks a published post. At most one bookmark per user/post.
func (h *BookmarkHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req createBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PostID == 0 {
		respondValidation(c, "Post ID is required")
		return
	}

	var post models.Post
	if err := h.db.Where("id = ? AND published = ?", req.PostID, true).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	var existing models.Bookmark
	if err := h.db.Where("user_id = ? AND post_id = ?", user.ID, req.PostID).First(&existing).Error; err == nil {
		respondValidation(c, "Post already bookmarked")
		return
	}

	bookmark := models.Bookmark{UserID: user.ID, PostID: req.PostID}
	if err := h.db.Create(&bookmark).Error; err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusCreated, bookmark)
}

// Delete removes the user's bookmark for a post.
func (h *BookmarkHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	postID, err := strconv.ParseUint(c.Param("postId"), 10, 64)
	if err != nil {
		respondValidation(c, "Invalid post ID")
		return
	}

	var bookmark models.Bookmark
	if err := h.db.Where("user_id = ? AND post_id = ?", user.ID, uint(postID)).First(&bookmark).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Bookmark not found"})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	if err := h.db.Delete(&bookmark).Error; err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Bookmark removed")
}
