package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/picstream/backend/internal/logger"
	"go.uber.org/zap"
)

// GinLoggerMiddleware emits one structured log line per request,
// leveled by response status. Replaces gin.Logger.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", c.Request.URL.RawQuery),
			zap.Duration("latency", time.Since(start)),
			zap.Int("response_size", c.Writer.Size()),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if id := c.GetString("request_id"); id != "" {
			fields = append(fields, logger.WithRequestID(id))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		log := logger.Log.Info
		if status >= 500 {
			log = logger.Log.Error
		} else if status >= 400 {
			log = logger.Log.Warn
		}
		log("HTTP request", fields...)
	}
}
