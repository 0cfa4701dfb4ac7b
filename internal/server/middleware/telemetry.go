package middleware

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"civic-connect/backend/internal/telemetry"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	StatusCode string `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// Telemetry emits an http_request event after each request. Best-effort and asynchronous.
// If emitter is nil the middleware only calls Next. skipPaths are raw URL paths to skip (e.g. /health).
func Telemetry(emitter telemetry.EventEmitter, log *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if emitter == nil || skip[c.Request.URL.Path] {
			return
		}
		meta, _ := json.Marshal(httpRequestMetadata{
			Method:     c.Request.Method,
			Route:      c.FullPath(),
			StatusCode: strconv.Itoa(c.Writer.Status()),
			DurationMs: time.Since(start).Milliseconds(),
			ClientIP:   c.ClientIP(),
		})
		userID, _ := GetUserID(c.Request.Context())
		telemetry.EmitAsync(emitter, &telemetry.Event{
			UserID:    userID,
			EventType: "http_request",
			Source:    "http_middleware",
			Metadata:  meta,
			CreatedAt: time.Now().UTC(),
		}, log)
	}
}
