// Package handler serves GET /health for load balancers and orchestrators.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const checkTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PolicyChecker verifies the authorization engine can evaluate its policy.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// RedisPinger adapts a go-redis client to Pinger.
type RedisPinger struct {
	Client *redis.Client
}

func (r RedisPinger) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

type Handler struct {
	db     Pinger
	cache  Pinger
	policy PolicyChecker
	now    func() time.Time
}

// NewHandler returns a health handler. Nil dependencies are skipped, so a server without Redis stays healthy.
func NewHandler(db, cache Pinger, policy PolicyChecker) *Handler {
	return &Handler{db: db, cache: cache, policy: policy, now: time.Now}
}

func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Check)
}

// Check runs every configured check. Any failure answers 503 with the failing component marked.
func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	checks := gin.H{}
	healthy := true
	run := func(name string, fn func(context.Context) error) {
		if err := fn(ctx); err != nil {
			checks[name] = "down"
			healthy = false
			return
		}
		checks[name] = "ok"
	}
	if h.db != nil {
		run("database", h.db.Ping)
	}
	if h.cache != nil {
		run("redis", h.cache.Ping)
	}
	if h.policy != nil {
		run("policy", h.policy.HealthCheck)
	}

	body := gin.H{
		"success":   healthy,
		"message":   "Server is running",
		"timestamp": h.now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}
	if !healthy {
		body["message"] = "Service unavailable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
