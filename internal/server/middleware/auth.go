package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"civic-connect/backend/internal/platform/apperr"
	"civic-connect/backend/internal/security"
	userdomain "civic-connect/backend/internal/user/domain"
)

const bearerPrefix = "bearer "

// userKey is the gin context key under which Auth stores the loaded *userdomain.User.
const userKey = "auth.user"

// UserLookup loads the token subject so deactivation takes effect before the token expires.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// Auth validates the Bearer session token, reloads the user and sets user_id and role in the request
// context. The role stored on the user row wins over the token claim.
func Auth(tokens *security.TokenProvider, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			_ = c.Error(apperr.Auth("No token, authorization denied"))
			c.Abort()
			return
		}
		claims, err := tokens.Validate(token)
		if err != nil {
			_ = c.Error(apperr.Auth("Token is not valid"))
			c.Abort()
			return
		}
		u, err := users.GetByID(c.Request.Context(), claims.UserID())
		if err != nil {
			_ = c.Error(apperr.As(err))
			c.Abort()
			return
		}
		if u == nil {
			_ = c.Error(apperr.Auth("User not found"))
			c.Abort()
			return
		}
		if !u.IsActive {
			_ = c.Error(apperr.Auth("User account is inactive"))
			c.Abort()
			return
		}
		c.Set(userKey, u)
		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), u.ID, string(u.Role)))
		c.Next()
	}
}

// CurrentUser returns the user loaded by Auth, or nil on unauthenticated routes.
func CurrentUser(c *gin.Context) *userdomain.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*userdomain.User); ok {
			return u
		}
	}
	return nil
}

// extractBearer returns the token from an Authorization header value, or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
