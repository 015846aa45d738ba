package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	apierrors "github.com/picstream/backend/internal/errors"
	"github.com/picstream/backend/internal/metrics"
	"github.com/picstream/backend/internal/util"
)

// RateLimitConfig configures a token-bucket limiter.
type RateLimitConfig struct {
	// Limit is the number of requests allowed per Window.
	Limit int
	// Window is the refill period.
	Window time.Duration
	// KeyFunc extracts the bucket key from the request. Defaults to client IP.
	KeyFunc func(c *gin.Context) string
}

// TokenBucket is a single client's budget. Tokens refill continuously
// at refillRate per second up to maxTokens.
type TokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64
	lastRefill time.Time
}

// NewTokenBucket returns a full bucket.
func NewTokenBucket(maxTokens, refillRate float64) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow consumes one token, reporting whether one was available.
func (tb *TokenBucket) Allow() bool {
	ok, _ := tb.take()
	return ok
}

// take refills, then either consumes a token or reports how many
// seconds until one is available.
func (tb *TokenBucket) take() (bool, int) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.tokens += now.Sub(tb.lastRefill).Seconds() * tb.refillRate
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}
	tb.lastRefill = now

	if tb.tokens >= 1 {
		tb.tokens--
		return true, 0
	}
	wait := (1 - tb.tokens) / tb.refillRate
	return false, int(wait) + 1
}

type rateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*TokenBucket
	config  RateLimitConfig
}

func (rl *rateLimiter) bucket(key string) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = NewTokenBucket(float64(rl.config.Limit), float64(rl.config.Limit)/rl.config.Window.Seconds())
		rl.buckets[key] = b
	}
	return b
}

// NewRateLimiter builds a per-key token-bucket middleware. Exhausted
// callers get 429 with Retry-After.
func NewRateLimiter(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	rl := &rateLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
	}

	return func(c *gin.Context) {
		allowed, retryAfter := rl.bucket(config.KeyFunc(c)).take()
		if allowed {
			c.Next()
			return
		}

		metrics.Get().RateLimitExceededTotal.WithLabelValues(c.FullPath(), c.Request.Method).Inc()
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", "0")
		util.RespondWithAPIError(c, apierrors.RateLimited(""))
		c.Abort()
	}
}

// RateLimit limits general API traffic to 100 requests per minute per IP.
func RateLimit() gin.HandlerFunc {
	return NewRateLimiter(RateLimitConfig{Limit: 100, Window: time.Minute})
}

// RateLimitUpload limits image uploads to 20 per minute per IP.
func RateLimitUpload() gin.HandlerFunc {
	return NewRateLimiter(RateLimitConfig{Limit: 20, Window: time.Minute})
}
