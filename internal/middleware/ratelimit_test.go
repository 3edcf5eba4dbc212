package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"blogify/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewRateLimiterDisabledWithoutRedis(t *testing.T) {
	limiter, err := NewRateLimiter(config.RedisConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, limiter)
}

func TestNilRateLimiterAdmitsEverything(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var limiter *RateLimiter
	r := gin.New()
	r.GET("/ping", limiter.Limit(BucketAuth), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	for i := 0; i < 2*bucketLimits[BucketAuth]; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"), "a disabled limiter sets no headers")
	}
}

func TestNilRateLimiterCloses(t *testing.T) {
	var limiter *RateLimiter
	assert.NoError(t, limiter.Close())
}
