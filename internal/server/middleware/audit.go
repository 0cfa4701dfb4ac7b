package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"civic-connect/backend/internal/audit"
)

// Audit records one audit entry per successful mutating request on an authenticated route.
// Routes under /api/auth are skipped; the auth service records its own events.
func Audit(logger audit.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if logger == nil || !audit.Mutating(c.Request.Method) {
			return
		}
		route := c.FullPath()
		if route == "" || strings.HasPrefix(route, "/api/auth/") {
			return
		}
		status := c.Writer.Status()
		if status >= 400 {
			return
		}
		userID, ok := GetUserID(c.Request.Context())
		if !ok {
			return
		}
		ar := audit.ParseRoute(c.Request.Method, route)
		id := c.Param("id")
		if id == "" {
			id = c.Param("key")
		}
		logger.LogEvent(c.Request.Context(), userID, ar.Action, ar.Resource, audit.Metadata(map[string]string{
			"route":  route,
			"id":     id,
			"status": strconv.Itoa(status),
		}))
	}
}
