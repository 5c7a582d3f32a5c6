package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Domenick1991/gulfair/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// UserContextKey is the key used to store user information in Gin context
const UserContextKey = "user"

type UserContext struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": message,
		"code":  code,
	})
}

// AuthMiddleware accepts "Authorization: Bearer <jwt>" and stores the caller
// in the context.
func AuthMiddleware(tokens TokenValidator, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		entry := log.WithFields(logrus.Fields{"path": c.Request.URL.Path, "ip": c.ClientIP()})

		header := c.GetHeader("Authorization")
		if header == "" {
			entry.Debug("missing authorization header")
			abortUnauthorized(c, "MISSING_AUTH_HEADER", "authorization header is required")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			entry.Debug("invalid authorization format")
			abortUnauthorized(c, "INVALID_AUTH_FORMAT", "invalid authorization header format, expected: Bearer <token>")
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(parts[1]))
		if errors.Is(err, auth.ErrTokenExpired) {
			abortUnauthorized(c, "TOKEN_EXPIRED", "token has expired")
			return
		}
		if err != nil {
			entry.WithError(err).Info("invalid token")
			abortUnauthorized(c, "INVALID_TOKEN", "invalid token")
			return
		}

		c.Set(UserContextKey, UserContext{UserID: claims.UserID, Username: claims.Username})
		c.Next()
	}
}

// GetUserContext retrieves the user context from Gin context
func GetUserContext(c *gin.Context) (UserContext, bool) {
	value, exists := c.Get(UserContextKey)
	if !exists {
		return UserContext{}, false
	}
	userCtx, ok := value.(UserContext)
	return userCtx, ok
}
