package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"unicode/utf8"

	"blogify/internal/middleware"
	"blogify/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewUserHandler(conn *gorm.DB, logger *zap.Logger) *UserHandler {
	return &UserHandler{db: conn, logger: logger}
}

// Get returns a public profile with the user's published-post count.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondValidation(c, "Invalid user ID")
		return
	}

	var user models.User
	if err := h.db.First(&user, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		respondError(c, h.logger, err)
		return
	}

	var postCount int64
	if err := h.db.Model(&models.Post{}).Where("user_id = ? AND published = ?", user.ID, true).Count(&postCount).Error; err != nil {
		respondError(c, h.logger, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"id":         user.ID,
		"username":   user.Username,
		"name":       user.Name,
		"bio":        user.Bio,
		"image":      user.Image,
		"created_at": user.CreatedAt,
		"post_count": postCount,
	})
}

type updateUserRequest struct {
	Name  *string `json:"name"`
	Bio   *string `json:"bio"`
	Image *string `json:"image"`
}

// Update edits the caller's own profile.
func (h *UserHandler) Update(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondValidation(c, "Invalid user ID")
		return
	}
	if user.ID != uint(id) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: You can only edit your own profile"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "Invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if utf8.RuneCountInString(*req.Name) > 100 {
			respondValidation(c, "Name must be less than 100 characters")
			return
		}
		user.Name = *req.Name
		updates["name"] = *req.Name
	}
	if req.Bio != nil {
		if utf8.RuneCountInString(*req.Bio) > 500 {
			respondValidation(c, "Bio must be less than 500 characters")
			return
		}
		user.Bio = *req.Bio
		updates["bio"] = *req.Bio
	}
	if req.Image != nil {
		user.Image = *req.Image
		updates["image"] = *req.Image
	}

	if len(updates) > 0 {
		if err := h.db.Model(user).Updates(updates).Error; err != nil {
			respondError(c, h.logger, err)
			return
		}
	}

	respondData(c, http.StatusOK, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"name":     user.Name,
		"bio":      user.Bio,
		"image":    user.Image,
	})
}
