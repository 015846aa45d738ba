package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/picstream/backend/internal/database"
	"github.com/picstream/backend/internal/logger"
	"github.com/picstream/backend/internal/metrics"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/util"
	"gorm.io/gorm"
)

// LikePost records a like for the caller. Double-liking the same post
// hits the composite unique index and returns 409.
// POST /api/v1/likes
func (h *Handlers) LikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		PostID string `json:"post_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "post_id", "post_id is required")
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", req.PostID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	like := models.Like{
		PostID: req.PostID,
		UserID: userID,
	}
	if err := database.DB.Create(&like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.RespondConflict(c, "like")
			return
		}
		logger.ErrorWithFields("Failed to create like for post "+req.PostID, err)
		util.RespondInternalError(c, "Failed to like post")
		return
	}

	metrics.Get().LikesTotal.WithLabelValues("create").Inc()
	h.invalidateFeed(c)

	c.JSON(http.StatusOK, gin.H{"like": like})
}

// UnlikePost removes the caller's like. Deleting a like that never
// existed is still a success.
// DELETE /api/v1/likes?postId=
func (h *Handlers) UnlikePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	postID := c.Query("postId")
	if postID == "" {
		util.RespondValidationError(c, "postId", "postId is required")
		return
	}

	if err := database.DB.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{}).Error; err != nil {
		logger.ErrorWithFields("Failed to delete like for post "+postID, err)
		util.RespondInternalError(c, "Failed to unlike post")
		return
	}

	metrics.Get().LikesTotal.WithLabelValues("delete").Inc()
	h.invalidateFeed(c)

	c.JSON(http.StatusOK, gin.H{"success": true})
}
