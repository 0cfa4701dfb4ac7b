package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"civic-connect/backend/internal/logger"
	"civic-connect/backend/internal/platform/response"
)

const (
	RateLimitHeader          = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
)

// rateLimitScript increments the fixed-window counter for KEYS[1] unless it already reached ARGV[1].
// Returns {allowed, remaining, ttl_seconds}.
var rateLimitScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local limit = tonumber(ARGV[1])
if current >= limit then
	return {0, 0, redis.call("TTL", KEYS[1])}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
return {1, limit - current, redis.call("TTL", KEYS[1])}
`)

// RateLimitConfig controls request throttling per client.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// KeyFunc extracts the client key; defaults to the client IP.
	KeyFunc func(*gin.Context) string
	// SkipFunc bypasses limiting (e.g. /health).
	SkipFunc func(*gin.Context) bool
}

// RateLimiter is a fixed-window limiter backed by Redis, with an in-process fallback when no client is given.
type RateLimiter struct {
	config RateLimitConfig
	redis  *redis.Client
	log    *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	localMap map[string]*rateLimitEntry
}

type rateLimitEntry struct {
	count     int
	resetTime time.Time
}

// NewRateLimiter returns a limiter. redisClient may be nil.
func NewRateLimiter(config RateLimitConfig, redisClient *redis.Client, log *zap.Logger) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}
	return &RateLimiter{
		config:   config,
		redis:    redisClient,
		log:      logger.OrNop(log),
		now:      time.Now,
		localMap: make(map[string]*rateLimitEntry),
	}
}

// Middleware returns the gin handler. Limiter errors fail open and are logged.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.config.SkipFunc != nil && rl.config.SkipFunc(c) {
			c.Next()
			return
		}
		key := rl.config.KeyFunc(c)
		allowed, remaining, reset, err := rl.take(c.Request.Context(), key)
		if err != nil {
			rl.log.Error("rate limit check failed", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		c.Header(RateLimitHeader, strconv.Itoa(rl.config.Requests))
		c.Header(RateLimitRemainingHeader, strconv.Itoa(remaining))
		c.Header(RateLimitResetHeader, strconv.FormatInt(reset.Unix(), 10))
		if !allowed {
			response.Fail(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) take(ctx context.Context, key string) (bool, int, time.Time, error) {
	if rl.redis != nil {
		return rl.takeRedis(ctx, key)
	}
	return rl.takeLocal(key)
}

func (rl *RateLimiter) takeRedis(ctx context.Context, key string) (bool, int, time.Time, error) {
	window := int(rl.config.Window / time.Second)
	if window < 1 {
		window = 1
	}
	res, err := rateLimitScript.Run(ctx, rl.redis, []string{"ratelimit:" + key}, rl.config.Requests, window).Int64Slice()
	if err != nil {
		return false, 0, time.Time{}, err
	}
	if len(res) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("unexpected rate limit reply %v", res)
	}
	reset := rl.now().Add(time.Duration(res[2]) * time.Second)
	return res[0] == 1, int(res[1]), reset, nil
}

func (rl *RateLimiter) takeLocal(key string) (bool, int, time.Time, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if len(rl.localMap) > 1000 {
		for k, e := range rl.localMap {
			if now.After(e.resetTime) {
				delete(rl.localMap, k)
			}
		}
	}
	e, ok := rl.localMap[key]
	if !ok || now.After(e.resetTime) {
		e = &rateLimitEntry{resetTime: now.Add(rl.config.Window)}
		rl.localMap[key] = e
	}
	if e.count >= rl.config.Requests {
		return false, 0, e.resetTime, nil
	}
	e.count++
	return true, rl.config.Requests - e.count, e.resetTime, nil
}
