package middleware

import (
	"strings"

	"chatster/backend/pkg/errors"
	"chatster/backend/pkg/jwt"
	"chatster/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// JWTAuthMiddleware validates the bearer token and stores the claims in the
// request context under "claims" and the user id under "userId".
func JWTAuthMiddleware(jwtService *jwt.Service, log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.GetGlobal()
	}
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			// Cookie fallback for browser clients
			if cookie, err := c.Cookie("auth_token"); err == nil {
				token = cookie
			}
		}
		if token == "" {
			c.Error(errors.NewUnauthorizedError("AUTH_REQUIRED", "Authorization header is required"))
			c.Abort()
			return
		}

		token = strings.TrimPrefix(token, "Bearer ")

		claims, err := jwtService.ValidateToken(token)
		if err != nil {
			log.Warn("Invalid JWT token", "error", err.Error())
			c.Error(errors.NewUnauthorizedError("INVALID_TOKEN", "Invalid or expired token"))
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("userId", claims.UserID)
		c.Set("username", claims.Username)

		c.Next()
	}
}

// UserID extracts the authenticated user id set by JWTAuthMiddleware.
func UserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("userId")
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
