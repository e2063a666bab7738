package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yukikurage/faculty-feedback-api/internal/constants"
	apierrors "github.com/yukikurage/faculty-feedback-api/internal/errors"
	"github.com/yukikurage/faculty-feedback-api/internal/models"
	"github.com/yukikurage/faculty-feedback-api/internal/services"
)

// SessionValidator resolves a session token to its user
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*models.User, error)
	OptionalAuthenticate(ctx context.Context, token string) *models.User
}

// RequireAuth resolves the session token and rejects the request without one
func RequireAuth(auth SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		user, err := auth.ValidateSession(c.Request.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrTokenExpired):
				apierrors.UnauthorizedWithCode(c, apierrors.ErrCodeTokenExpired, "Session expired")
			case errors.Is(err, services.ErrAccountInactive):
				apierrors.UnauthorizedWithCode(c, apierrors.ErrCodeAccountInactive, "Account is deactivated")
			case errors.Is(err, services.ErrInvalidToken):
				apierrors.Unauthorized(c, "Invalid session")
			default:
				_ = c.Error(err)
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// OptionalAuth attaches the user when a usable token is present and never rejects
func OptionalAuth(auth SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := auth.OptionalAuthenticate(c.Request.Context(), ExtractToken(c)); user != nil {
			setUser(c, user)
		}
		c.Next()
	}
}

// RequireRole allows the request only when the current user holds one of the roles
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetCurrentUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if !services.Authorize(user, roles...) {
			apierrors.Forbidden(c, "Insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ExtractToken reads the bearer token, falling back to the cookie session
func ExtractToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}

	// sessions.Default panics when the session middleware is not installed
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	if v, ok := sessions.Default(c).Get(constants.SessionKeyToken).(string); ok {
		return v
	}
	return ""
}

func setUser(c *gin.Context, user *models.User) {
	c.Set(constants.ContextKeyUser, user)
	c.Set(constants.ContextKeyUserID, user.ID)
}

// GetCurrentUser retrieves the authenticated user from context
func GetCurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
