package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pagesmith-backend/internal/auth"
)

const UserIDKey = "userID"

const bearerPrefix = "Bearer "

// AuthRequired validates the bearer token and stores the user ID in the
// request context. Everything behind it may assume an authenticated caller.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if !strings.HasPrefix(h, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		uid, err := auth.ParseJWT(strings.TrimPrefix(h, bearerPrefix), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(UserIDKey, uid)
		c.Next()
	}
}
