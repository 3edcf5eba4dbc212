package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"blogify/internal/middleware"
	"blogify/internal/models"
	"blogify/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CommentHandler struct {
	db       *gorm.DB
	comments *services.CommentService
	logger   *zap.Logger
}

func NewCommentHandler(conn *gorm.DB, comments *services.CommentService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{db: conn, comments: comments, logger: logger}
}

type createCommentRequest struct {
	Content  string `json:"content"`
	PostID   uint   `json:"post_id"`
	ParentID *uint  `json:"parent_id"`
}

// Create posts a comment or a one-level reply.
func (h *CommentHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}
	if req.PostID == 0 {
		respondValidation(c, "Invalid post ID")
		return
	}

	comment, err := h.comments.Create(req.PostID, user.ID, req.Content, req.ParentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusCreated, comment)
}

// Delete soft-deletes the comment. Author only.
func (h *CommentHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondValidation(c, "Invalid comment ID")
		return
	}

	if err := h.comments.Delete(uint(id), user.ID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Comment deleted successfully")
}

// ListForPost returns the post's comment thread. The post must be published
// (or requested by its author) for the thread to be visible at all.
func (h *CommentHandler) ListForPost(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondValidation(c, "Invalid post ID")
		return
	}

	var post models.Post
	if err := h.db.First(&post, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	if !post.Published {
		user, ok := middleware.CurrentUser(c)
		if !ok || user.ID != post.UserID {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
	}

	thread, err := h.comments.ListThread(post.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, thread)
}
