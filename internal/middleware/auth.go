package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lawdesk/internal/domain"
	"lawdesk/internal/logging"
	"lawdesk/internal/service"
)

const (
	ContextKeyActor  = "actor"
	ContextKeyUserID = "user_id"
	ContextKeyRole   = "role"
)

func abortJSON(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "message": msg},
	})
}

// AuthMiddleware returns Gin middleware that validates the bearer token and
// injects the acting user into the context.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			abortJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid authorization header")
			return
		}

		actor, err := authService.Authenticate(c.Request.Context(), strings.TrimPrefix(authHeader, "Bearer "))
		switch {
		case errors.Is(err, domain.ErrUserInactive):
			abortJSON(c, http.StatusForbidden, "USER_INACTIVE", "user is inactive")
			return
		case errors.Is(err, domain.ErrUnauthorized):
			abortJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		case err != nil:
			logging.FromContext(c.Request.Context()).WithError(err).Error("middleware.Auth: resolving user")
			abortJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred")
			return
		}

		c.Set(ContextKeyActor, *actor)
		c.Set(ContextKeyUserID, actor.UserID)
		c.Set(ContextKeyRole, string(actor.Role))

		entry := logging.FromContext(c.Request.Context()).WithField("user_id", actor.UserID)
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), entry))
		c.Next()
	}
}

// RequireRole returns middleware that checks the user's role against allowed roles.
func RequireRole(roles ...domain.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleStr, exists := c.Get(ContextKeyRole)
		if !exists {
			abortJSON(c, http.StatusForbidden, "FORBIDDEN", "role not found in context")
			return
		}

		userRole := domain.UserRole(roleStr.(string))
		for _, r := range roles {
			if userRole == r {
				c.Next()
				return
			}
		}
		abortJSON(c, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
	}
}

// GetActor extracts the authenticated user from the Gin context.
func GetActor(c *gin.Context) (domain.Actor, error) {
	val, exists := c.Get(ContextKeyActor)
	if !exists {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	return val.(domain.Actor), nil
}
