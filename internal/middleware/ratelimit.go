package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"blogify/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Bucket is an endpoint class with its own rate limit.
type Bucket string

const (
	BucketAuth   Bucket = "auth"   // login, registration, token flows
	BucketWrite  Bucket = "write"  // POST/PUT/DELETE on content
	BucketSearch Bucket = "search"
	BucketAPI    Bucket = "api" // everything else
)

const rateLimitWindow = time.Minute

// Requests allowed per window, per client IP.
var bucketLimits = map[Bucket]int{
	BucketAuth:   5,
	BucketWrite:  10,
	BucketSearch: 20,
	BucketAPI:    30,
}

// RateLimiter is a Redis-backed sliding-window limiter keyed by client IP.
// It is an optional capability: NewRateLimiter returns nil when Redis is not
// configured, and a nil limiter admits everything. When Redis errors at
// request time the limiter fails open, since throttling is advisory and must
// never take the site down with it.
type RateLimiter struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRateLimiter(cfg config.RedisConfig, logger *zap.Logger) (*RateLimiter, error) {
	if cfg.URL == "" {
		logger.Warn("Rate limiting disabled: REDIS_URL not configured")
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Rate limiter connected to Redis")
	return &RateLimiter{client: client, logger: logger}, nil
}

func (rl *RateLimiter) Close() error {
	if rl == nil || rl.client == nil {
		return nil
	}
	return rl.client.Close()
}

type limitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// check runs the sliding window against Redis: drop entries older than the
// window from a per-key sorted set, add the current request, count.
func (rl *RateLimiter) check(ctx context.Context, key string, limit int) (*limitResult, error) {
	now := time.Now()
	windowStart := now.Add(-rateLimitWindow)

	pipe := rl.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d", now.UnixNano()),
	})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, rateLimitWindow)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	count := int(card.Val())
	result := &limitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: limit - count,
		Reset:     now.Add(rateLimitWindow),
	}
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result, nil
}

// Limit returns middleware enforcing the bucket's limit for the client IP.
func (rl *RateLimiter) Limit(bucket Bucket) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || rl.client == nil {
			c.Next()
			return
		}

		limit, ok := bucketLimits[bucket]
		if !ok {
			limit = bucketLimits[BucketAPI]
		}
		key := fmt.Sprintf("ratelimit:%s:%s", bucket, c.ClientIP())

		result, err := rl.check(c.Request.Context(), key, limit)
		if err != nil {
			// Fail open: a broken limiter backend must not block reads/writes.
			rl.logger.Error("Rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.Reset.Unix(), 10))

		if !result.Allowed {
			retryAfter := int(time.Until(result.Reset).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too many requests",
				"message": "Please slow down and try again later.",
			})
			return
		}
		c.Next()
	}
}
