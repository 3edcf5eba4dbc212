package handlers

import (
	"net/http"

	"blogify/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CategoryHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewCategoryHandler(conn *gorm.DB, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{db: conn, logger: logger}
}

func (h *CategoryHandler) List(c *gin.Context) {
	var categories []models.Category
	if err := h.db.Order("name ASC").Find(&categories).Error; err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondData(c, http.StatusOK, categories)
}
