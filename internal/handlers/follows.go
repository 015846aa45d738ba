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

// FollowUser makes the caller follow another user. Following yourself
// is invalid; following the same user twice returns 409.
// POST /api/v1/follows
func (h *Handlers) FollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		FollowingID string `json:"following_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "following_id", "following_id is required")
		return
	}

	if req.FollowingID == userID {
		util.RespondValidationError(c, "following_id", "cannot follow yourself")
		return
	}

	var target models.User
	if err := database.DB.First(&target, "id = ?", req.FollowingID).Error; err != nil {
		util.RespondNotFound(c, "user")
		return
	}

	follow := models.Follow{
		FollowerID: userID,
		FolloweeID: req.FollowingID,
	}
	if err := database.DB.Create(&follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.RespondConflict(c, "follow")
			return
		}
		logger.ErrorWithFields("Failed to create follow of user "+req.FollowingID, err)
		util.RespondInternalError(c, "Failed to follow user")
		return
	}

	metrics.Get().FollowsTotal.WithLabelValues("create").Inc()

	c.JSON(http.StatusOK, gin.H{"follow": follow})
}

// UnfollowUser removes the caller's follow; idempotent.
// DELETE /api/v1/follows?followingId=
func (h *Handlers) UnfollowUser(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	followingID := c.Query("followingId")
	if followingID == "" {
		util.RespondValidationError(c, "followingId", "followingId is required")
		return
	}

	if err := database.DB.Where("follower_id = ? AND followee_id = ?", userID, followingID).Delete(&models.Follow{}).Error; err != nil {
		logger.ErrorWithFields("Failed to delete follow of user "+followingID, err)
		util.RespondInternalError(c, "Failed to unfollow user")
		return
	}

	metrics.Get().FollowsTotal.WithLabelValues("delete").Inc()

	c.JSON(http.StatusOK, gin.H{"success": true})
}
