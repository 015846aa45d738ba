package util

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/picstream/backend/internal/errors"
	"github.com/picstream/backend/internal/logger"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body sent for every failed request.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// RespondWithAPIError logs and sends a structured error response.
// Internal details are stripped in production mode.
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	logAPIError(apiErr)

	body := ErrorResponse{
		Code:    string(apiErr.Code),
		Message: apiErr.Message,
		Field:   apiErr.Field,
		Details: apiErr.Details,
	}
	if apiErr.Status >= http.StatusInternalServerError && os.Getenv("ENVIRONMENT") == "production" {
		body.Message = "internal server error"
		body.Details = ""
	}
	c.JSON(apiErr.Status, body)
}

func logAPIError(apiErr *errors.APIError) {
	if apiErr.Status < http.StatusBadRequest {
		return
	}
	fields := []zap.Field{
		zap.String("code", string(apiErr.Code)),
		zap.String("message", apiErr.Message),
	}
	if apiErr.Field != "" {
		fields = append(fields, zap.String("field", apiErr.Field))
	}
	if apiErr.Status >= http.StatusInternalServerError {
		fields = append(fields, zap.Int("status", apiErr.Status))
		logger.Log.Error("API error", fields...)
		return
	}
	logger.Log.Warn("API error", fields...)
}

// RespondUnauthorized sends 401, defaulting the message when omitted.
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := "user not authenticated"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Unauthorized(msg))
}

// RespondForbidden sends 403, defaulting the message when omitted.
func RespondForbidden(c *gin.Context, message ...string) {
	msg := "forbidden"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Forbidden(msg))
}

// RespondNotFound sends 404 for the named resource.
func RespondNotFound(c *gin.Context, resource string) {
	RespondWithAPIError(c, errors.NotFound(resource))
}

// RespondConflict sends 409 for the named resource.
func RespondConflict(c *gin.Context, resource string) {
	RespondWithAPIError(c, errors.Conflict(resource))
}

// RespondBadRequest sends 400.
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.BadRequest(message))
}

// RespondValidationError sends 400 for a failed field validation.
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationError(field, message))
}

// RespondInternalError sends 500.
func RespondInternalError(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.InternalError(message))
}
