package handlers

import (
	"time"

	"github.com/picstream/backend/internal/auth"
	"github.com/picstream/backend/internal/cache"
	"github.com/picstream/backend/internal/storage"
)

// FeedCacheTTL bounds staleness of cached feed pages
const FeedCacheTTL = 30 * time.Second

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	images    storage.ImageStore
	auth      *auth.Service
	feedCache *cache.FeedCache
}

// NewHandlers creates a new handlers instance
func NewHandlers(images storage.ImageStore, authService *auth.Service) *Handlers {
	return &Handlers{
		images: images,
		auth:   authService,
	}
}

// SetFeedCache attaches an optional Redis-backed feed page cache
func (h *Handlers) SetFeedCache(fc *cache.FeedCache) {
	h.feedCache = fc
}
