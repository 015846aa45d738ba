package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/picstream/backend/internal/logger"
	"go.uber.org/zap"
)

// RequestIDMiddleware assigns each request an ID, honoring an inbound
// X-Request-ID so callers can correlate across services. The ID is
// stored in the context and echoed on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)

		logger.Log.Debug("request started",
			logger.WithRequestID(id),
			logger.WithIP(c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)

		c.Next()
	}
}
