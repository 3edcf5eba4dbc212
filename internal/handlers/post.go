package handlers

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"blogify/internal/middleware"
	"blogify/internal/models"
	"blogify/internal/services"
	"blogify/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxTitleLength   = 200
	maxExcerptLength = 500
	defaultPageSize  = 10
	maxPageSize      = 50
)

type PostHandler struct {
	db       *gorm.DB
	comments *services.CommentService
	logger   *zap.Logger
}

func NewPostHandler(conn *gorm.DB, comments *services.CommentService, logger *zap.Logger) *PostHandler {
	return &PostHandler{db: conn, comments: comments, logger: logger}
}

// fillCommentCounts batch-loads live comment counts for a page of posts.
func (h *PostHandler) fillCommentCounts(posts []models.Post) {
	if len(posts) == 0 {
		return
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

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

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.PostID] = r.Count
	}

	for i := range posts {
		posts[i].CommentCount = countMap[posts[i].ID]
		posts[i].Author = posts[i].User.AuthorView()
	}
}

func parsePagination(c *gin.Context) (page, limit, offset int) {
	page = 1
	if p, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && p > 0 {
		page = p
	}
	limit = defaultPageSize
	if l, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageSize))); err == nil && l > 0 && l <= maxPageSize {
		limit = l
	}
	return page, limit, (page - 1) * limit
}

func paginationEnvelope(page, limit int, total int64, got int) gin.H {
	return gin.H{
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": int(math.Ceil(float64(total) / float64(limit))),
		"hasMore":    int64((page-1)*limit+got) < total,
	}
}

// List returns published posts, newest first, with optional category and
// author filters.
func (h *PostHandler) List(c *gin.Context) {
	page, limit, offset := parsePagination(c)

	query := h.db.Model(&models.Post{}).Where("published = ?", true)
	if category := c.Query("category"); category != "" {
		query = query.
			Joins("JOIN post_categories ON post_categories.post_id = posts.id").
			Joins("JOIN categories ON categories.id = post_categories.category_id").
			Where("categories.slug = ?", category)
	}
	if authorID := c.Query("authorId"); authorID != "" {
		query = query.Where("posts.user_id = ?", authorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondError(c, h.logger, err)
		return
	}

	var posts []models.Post
	err := query.Preload("User").Preload("Categories").
		Order("published_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.fillCommentCounts(posts)

	c.JSON(http.StatusOK, gin.H{
		"data":       posts,
		"pagination": paginationEnvelope(page, limit, total, len(posts)),
	})
}

type createPostRequest struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Excerpt       string `json:"excerpt"`
	FeaturedImage string `json:"featured_image"`
	Published     bool   `json:"published"`
	CategoryIDs   []uint `json:"category_ids"`
}

func (h *PostHandler) validatePostFields(c *gin.Context, title, content, excerpt string) bool {
	if strings.TrimSpace(title) == "" {
		respondValidation(c, "Title is required")
		return false
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		respondValidation(c, "Title must be less than 200 characters")
		return false
	}
	if strings.TrimSpace(content) == "" {
		respondValidation(c, "Content is required")
		return false
	}
	if utf8.RuneCountInString(excerpt) > maxExcerptLength {
		respondValidation(c, "Excerpt must be less than 500 characters")
		return false
	}
	return true
}

// uniqueSlug slugifies the title, appending a timestamp suffix on collision.
func (h *PostHandler) uniqueSlug(title string) string {
	slug := utils.GenerateSlug(title)
	var existing models.Post
	if err := h.db.Where("slug = ?", slug).First(&existing).Error; err == nil {
		slug = fmt.Sprintf("%s-%d", slug, time.Now().UnixMilli())
	}
	return slug
}

func (h *PostHandler) loadCategories(ids []uint) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var categories []models.Category
	if err := h.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (h *PostHandler) Create(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}
	if !h.validatePostFields(c, req.Title, req.Content, req.Excerpt) {
		return
	}

	categories, err := h.loadCategories(req.CategoryIDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	post := models.Post{
		Slug:          h.uniqueSlug(req.Title),
		UserID:        user.ID,
		Title:         strings.TrimSpace(req.Title),
		Content:       utils.SanitizeHTML(req.Content),
		Excerpt:       req.Excerpt,
		FeaturedImage: req.FeaturedImage,
		Published:     req.Published,
		Categories:    categories,
	}
	if req.Published {
		now := time.Now()
		post.PublishedAt = &now
	}

	if err := h.db.Create(&post).Error; err != nil {
		respondError(c, h.logger, err)
		return
	}
	post.Author = user.AuthorView()

	respondData(c, http.StatusCreated, post)
}

// findPost resolves the :id param as a numeric id or a slug.
func (h *PostHandler) findPost(param string, preload bool) (*models.Post, error) {
	query := h.db.Session(&gorm.Session{})
	if preload {
		query = query.Preload("User").Preload("Categories")
	}

	var post models.Post
	var err error
	if id, convErr := strconv.ParseUint(param, 10, 64); convErr == nil {
		err = query.Where("id = ? OR slug = ?", uint(id), param).First(&post).Error
	} else {
		err = query.Where("slug = ?", param).First(&post).Error
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Get returns a single post by id or slug. Drafts are only visible to their
// author; everyone else gets the same 404 a missing post would produce.
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.findPost(c.Param("id"), true)
	if err != nil {
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

	count, err := h.comments.Count(post.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	post.CommentCount = int(count)
	post.Author = post.User.AuthorView()

	respondData(c, http.StatusOK, gin.H{
		"post":         post,
		"content_html": utils.RenderMarkdown(post.Content),
	})
}

type updatePostRequest struct {
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	Excerpt       *string `json:"excerpt"`
	FeaturedImage *string `json:"featured_image"`
	Published     *bool   `json:"published"`
	CategoryIDs   []uint  `json:"category_ids"`
}

// Update edits a post. Author only; publishing for the first time stamps
// published_at.
func (h *PostHandler) Update(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	post, err := h.findPost(c.Param("id"), false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	if post.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: You can only edit your own posts"})
		return
	}

	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" || utf8.RuneCountInString(*req.Title) > maxTitleLength {
			respondValidation(c, "Title must be between 1 and 200 characters")
			return
		}
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			respondValidation(c, "Content is required")
			return
		}
		post.Content = utils.SanitizeHTML(*req.Content)
	}
	if req.Excerpt != nil {
		if utf8.RuneCountInString(*req.Excerpt) > maxExcerptLength {
			respondValidation(c, "Excerpt must be less than 500 characters")
			return
		}
		post.Excerpt = *req.Excerpt
	}
	if req.FeaturedImage != nil {
		post.FeaturedImage = *req.FeaturedImage
	}
	if req.Published != nil {
		if *req.Published && !post.Published {
			now := time.Now()
			post.PublishedAt = &now
		}
		post.Published = *req.Published
	}

	if req.CategoryIDs != nil {
		categories, err := h.loadCategories(req.CategoryIDs)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		if err := h.db.Model(post).Association("Categories").Replace(categories); err != nil {
			respondError(c, h.logger, err)
			return
		}
	}

	if err := h.db.Save(post).Error; err != nil {
		respondError(c, h.logger, err)
		return
	}

	reloaded, err := h.findPost(strconv.FormatUint(uint64(post.ID), 10), true)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	reloaded.Author = reloaded.User.AuthorView()
	respondData(c, http.StatusOK, reloaded)
}

func (h *PostHandler) Delete(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	post, err := h.findPost(c.Param("id"), false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	if post.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: You can only delete your own posts"})
		return
	}

	if err := h.db.Select("Categories").Delete(post).Error; err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondMessage(c, http.StatusOK, "Post deleted successfully")
}

// View increments the view counter. Failures are logged and answered with a
// success-shaped body: view tracking must never block the reading experience.
func (h *PostHandler) View(c *gin.Context) {
	post, err := h.findPost(c.Param("id"), false)
	if err != nil {
		h.logger.Warn("View tracking failed", zap.String("post", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	err = h.db.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
	if err != nil {
		h.logger.Warn("View tracking failed", zap.Uint("post_id", post.ID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Search runs a case-insensitive substring search over published posts.
func (h *PostHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if utf8.RuneCountInString(query) < 2 {
		respondValidation(c, "Search query must be at least 2 characters")
		return
	}

	page, limit, offset := parsePagination(c)
	pattern := "%" + query + "%"

	base := h.db.Model(&models.Post{}).
		Where("published = ?", true).
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(excerpt) LIKE LOWER(?) OR LOWER(content) LIKE LOWER(?)",
			pattern, pattern, pattern)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		respondError(c, h.logger, err)
		return
	}

	var posts []models.Post
	err := base.Preload("User").Preload("Categories").
		Order("published_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.fillCommentCounts(posts)

	c.JSON(http.StatusOK, gin.H{
		"data":       posts,
		"pagination": paginationEnvelope(page, limit, total, len(posts)),
	})
}
