package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/picstream/backend/internal/logger"
	"github.com/picstream/backend/internal/util"
)

// AuthMiddleware validates the bearer token and resolves the internal
// user row, creating it on first contact. Sets the user keys in the Gin
// context for downstream handlers.
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			util.RespondUnauthorized(c, "no token provided")
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			util.RespondUnauthorized(c, "malformed authorization header")
			c.Abort()
			return
		}

		user, err := h.auth.ResolveUser(token)
		if err != nil {
			logger.WarnWithFields("Token rejected", err)
			util.RespondUnauthorized(c, "invalid token")
			c.Abort()
			return
		}

		c.Set(util.ContextUserIDKey, user.ID)
		c.Set(util.ContextUserKey, user)
		c.Next()
	}
}
