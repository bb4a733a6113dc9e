package middleware

import (
	"context"
	"errors"
	"neet_tracker_backend/internal/model"
	"neet_tracker_backend/internal/util"
	"neet_tracker_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token. service.AuthService implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

func bearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// AuthMiddleware answers 401 without a token, 403 for a bad or expired one
// and 401 when the token's user no longer exists.
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			util.Unauthorized(c, "Access token required")
			c.Abort()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		switch {
		case err == nil:
		case errors.Is(err, util.ErrTokenInvalid):
			util.Forbidden(c, "Invalid or expired token")
			c.Abort()
			return
		case errors.Is(err, util.ErrUserNotFound):
			util.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		default:
			logger.Log.Error("authenticate request", zap.Error(err))
			util.InternalServerError(c, "Authentication failed")
			c.Abort()
			return
		}

		c.Set(util.ContextUserKey, user)
		c.Next()
	}
}
