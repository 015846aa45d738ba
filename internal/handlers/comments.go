package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/picstream/backend/internal/database"
	"github.com/picstream/backend/internal/dto"
	"github.com/picstream/backend/internal/logger"
	"github.com/picstream/backend/internal/metrics"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/util"
)

// CreateComment adds a comment to a post
// POST /api/v1/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		PostID  string `json:"post_id" binding:"required"`
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "post_id", "post_id is required")
		return
	}

	content, apiErr := util.ValidateCommentContent(req.Content)
	if apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", req.PostID).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	comment := models.Comment{
		PostID:  req.PostID,
		UserID:  user.ID,
		Content: content,
	}
	if err := database.DB.Create(&comment).Error; err != nil {
		logger.ErrorWithFields("Failed to create comment on post "+req.PostID, err)
		util.RespondInternalError(c, "Failed to create comment")
		return
	}

	metrics.Get().CommentsCreatedTotal.Inc()
	h.invalidateFeed(c)

	view := dto.NewCommentView(comment, map[string]*models.User{user.ID: user})
	c.JSON(http.StatusOK, gin.H{"comment": view})
}

// DeleteComment removes a comment written by the caller
// DELETE /api/v1/comments?commentId=
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	commentID := c.Query("commentId")
	if commentID == "" {
		util.RespondValidationError(c, "commentId", "commentId is required")
		return
	}

	var comment models.Comment
	if err := database.DB.First(&comment, "id = ?", commentID).Error; err != nil {
		util.RespondNotFound(c, "comment")
		return
	}
	if comment.UserID != userID {
		util.RespondForbidden(c, "Only the author can delete this comment")
		return
	}

	if err := database.DB.Delete(&models.Comment{}, "id = ?", commentID).Error; err != nil {
		logger.ErrorWithFields("Failed to delete comment "+commentID, err)
		util.RespondInternalError(c, "Failed to delete comment")
		return
	}

	h.invalidateFeed(c)

	c.JSON(http.StatusOK, gin.H{"success": true})
}
