package util

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/picstream/backend/internal/errors"
)

const (
	// MaxImageSize is the upload cap for post images
	MaxImageSize = 5 * 1024 * 1024
	// MaxCaptionLength is the caption cap in characters
	MaxCaptionLength = 2200
	// MaxCommentLength is the comment content cap in characters
	MaxCommentLength = 1000
)

// allowedImageTypes are the MIME types accepted for post images
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// DetectImageType sniffs the MIME type from file content and reports
// whether it is an accepted post image format. Detection uses content,
// not the client-supplied filename or header.
func DetectImageType(data []byte) (string, bool) {
	contentType := http.DetectContentType(data)
	// DetectContentType can append charset parameters; strip them
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	return contentType, allowedImageTypes[contentType]
}

// ValidateCaption trims the caption and coalesces empty to nil.
// Returns an error when the trimmed caption exceeds the cap.
func ValidateCaption(caption string) (*string, *errors.APIError) {
	trimmed := strings.TrimSpace(caption)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > MaxCaptionLength {
		return nil, errors.ValidationError("caption", "caption must be at most 2200 characters")
	}
	return &trimmed, nil
}

// ValidateCommentContent trims and validates comment content
func ValidateCommentContent(content string) (string, *errors.APIError) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", errors.ValidationError("content", "content is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxCommentLength {
		return "", errors.ValidationError("content", "content must be at most 1000 characters")
	}
	return trimmed, nil
}
