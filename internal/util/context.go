package util

import (
	"github.com/gin-gonic/gin"
	"github.com/picstream/backend/internal/models"
)

// Context keys populated by the auth middleware.
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

// GetUserFromContext extracts the authenticated user set by the auth
// middleware. When no user is present it responds 401 itself and returns
// false, so callers just return.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		RespondUnauthorized(c)
		return nil, false
	}
	user, ok := value.(*models.User)
	if !ok {
		RespondInternalError(c, "invalid user data in context")
		return nil, false
	}
	return user, true
}

// GetUserIDFromContext extracts the authenticated user's ID, responding
// 401 itself when absent.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		RespondUnauthorized(c)
		return "", false
	}
	userID, ok := value.(string)
	if !ok {
		RespondInternalError(c, "invalid user ID in context")
		return "", false
	}
	return userID, true
}
