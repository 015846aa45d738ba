package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/picstream/backend/internal/errors"
	"github.com/picstream/backend/internal/util"
)

// BodyLimitMiddleware caps request body size. Reads past the limit fail
// inside the handler; requests that declare a larger Content-Length are
// rejected up front with 413.
func BodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			util.RespondWithAPIError(c, apierrors.PayloadTooLarge(
				fmt.Sprintf("request body exceeds %d bytes", maxBytes)))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
