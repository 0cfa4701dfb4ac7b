// Package rbac enforces role-based access on routes using the policy engine.
package rbac

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"civic-connect/backend/internal/audit"
	"civic-connect/backend/internal/logger"
	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/policy/engine"
	"civic-connect/backend/internal/server/middleware"
)

const forbiddenMessage = "Not authorized to access this route"

// Authorize asks authz whether the authenticated caller may perform the route's action on its resource.
// Must run after middleware.Auth. Policy evaluation errors deny.
func Authorize(authz engine.Authorizer, log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID, okUser := middleware.GetUserID(ctx)
		role, okRole := middleware.GetRole(ctx)
		if !okUser || userID == "" || !okRole {
			_ = c.Error(apperr.Auth("Not authorized, no identity"))
			c.Abort()
			return
		}
		ar := audit.ParseRoute(c.Request.Method, c.FullPath())
		allowed, err := authz.Allow(ctx, engine.Input{
			UserID:   userID,
			Role:     role,
			Action:   ar.Action,
			Resource: ar.Resource,
		})
		if err != nil {
			log.Error("rbac: policy evaluation failed", zap.String("route", c.FullPath()), zap.Error(err))
			allowed = false
		}
		if !allowed {
			_ = c.Error(apperr.Forbidden(forbiddenMessage))
			c.Abort()
			return
		}
		c.Next()
	}
}
