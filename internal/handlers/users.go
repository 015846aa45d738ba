package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/picstream/backend/internal/database"
	"github.com/picstream/backend/internal/logger"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/util"
)

// GetMe returns the caller's profile with aggregate stats
// GET /api/v1/users/me
func (h *Handlers) GetMe(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"stats": h.loadUserStats(c, user.ID),
	})
}

// GetUser returns a user profile with aggregate stats
// GET /api/v1/users/:id
func (h *Handlers) GetUser(c *gin.Context) {
	var user models.User
	if err := database.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"stats": h.loadUserStats(c, user.ID),
	})
}

// GetUserPosts returns a page of a user's posts, newest-first
// GET /api/v1/users/:id/posts?limit&offset
func (h *Handlers) GetUserPosts(c *gin.Context) {
	callerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	authorID := c.Param("id")
	var author models.User
	if err := database.DB.First(&author, "id = ?", authorID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	limit, offset, ok := parsePage(c)
	if !ok {
		return
	}

	var total int64
	if err := database.DB.Model(&models.Post{}).Where("user_id = ?", authorID).Count(&total).Error; err != nil {
		logger.ErrorWithFields("Failed to count posts for user "+authorID, err)
		util.RespondInternalError(c, "Failed to load posts")
		return
	}

	var posts []models.Post
	if err := database.DB.Where("user_id = ?", authorID).Order("created_at DESC").Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		logger.ErrorWithFields("Failed to load posts for user "+authorID, err)
		util.RespondInternalError(c, "Failed to load posts")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":    h.buildPostViews(c, posts, callerID, commentPreviewSize),
		"total":    total,
		"has_more": int64(offset+limit) < total,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	})
}

// loadUserStats reads the user_stats view, substituting zeros when the
// lookup fails
func (h *Handlers) loadUserStats(c *gin.Context, userID string) models.UserStats {
	var stats models.UserStats
	if err := database.DB.First(&stats, "user_id = ?", userID).Error; err != nil {
		logger.WarnWithFields("User stats lookup failed for "+userID, err)
		return models.UserStats{UserID: userID}
	}
	return stats
}
