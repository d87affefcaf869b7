package session

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const ownerKey = "session.owner"

// Middleware rejects requests without a valid bearer session token and
// stores the token's owner on the context.
func Middleware(service Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Missing session token"})
			return
		}

		owner, err := service.Verify(strings.TrimSpace(token))
		if err != nil {
			slog.Warn("rejected session token", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid session token"})
			return
		}

		c.Set(ownerKey, owner)
		c.Next()
	}
}

// Owner returns the session owner set by Middleware.
func Owner(c *gin.Context) string {
	return c.GetString(ownerKey)
}
