package handlers

import (
	"net/http"

	"blogify/internal/apperr"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondData wraps a successful payload in the {"data": ...} envelope.
func respondData(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"data": data})
}

func respondMessage(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"message": message})
}

func respondValidation(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// respondError maps a taxonomy error onto its status code and caller-safe
// message. Unexpected errors are logged and surfaced as a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}
