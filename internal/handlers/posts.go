package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/picstream/backend/internal/database"
	"github.com/picstream/backend/internal/dto"
	apierrors "github.com/picstream/backend/internal/errors"
	"github.com/picstream/backend/internal/logger"
	"github.com/picstream/backend/internal/metrics"
	"github.com/picstream/backend/internal/middleware"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/util"
)

const (
	defaultFeedLimit = 10
	maxFeedLimit     = 50
	// commentPreviewSize is how many recent comments ride along with each feed item
	commentPreviewSize = 2
)

// parsePage validates the limit/offset query params shared by all
// paginated post listings, responding 400 on bad input.
func parsePage(c *gin.Context) (limit, offset int, ok bool) {
	limit = defaultFeedLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxFeedLimit {
			util.RespondValidationError(c, "limit", fmt.Sprintf("limit must be between 1 and %d", maxFeedLimit))
			return 0, 0, false
		}
		limit = v
	}
	if raw := c.Query("offset"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			util.RespondValidationError(c, "offset", "offset must be a non-negative integer")
			return 0, 0, false
		}
		offset = v
	}
	return limit, offset, true
}

// ListPosts returns a page of posts newest-first, each enriched with
// author info, engagement counts, a short comment preview and the
// caller's like state.
// GET /api/v1/posts?limit&offset&userId
func (h *Handlers) ListPosts(c *gin.Context) {
	callerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	limit, offset, ok := parsePage(c)
	if !ok {
		return
	}

	authorID := c.Query("userId")
	if authorID != "" {
		if _, err := uuid.Parse(authorID); err != nil {
			util.RespondValidationError(c, "userId", "userId must be a valid UUID")
			return
		}
	}

	// Cached pages include the caller's like state, so the key is caller-scoped
	cacheKey := fmt.Sprintf("feed:%s:%d:%d:%s", callerID, limit, offset, authorID)
	if payload, err := h.feedCache.Get(c.Request.Context(), cacheKey); err == nil {
		middleware.RecordCacheHit("feed")
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
		return
	}
	middleware.RecordCacheMiss("feed")

	query := database.DB.Model(&models.Post{})
	if authorID != "" {
		query = query.Where("user_id = ?", authorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.ErrorWithFields("Failed to count posts", err)
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	var posts []models.Post
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&posts).Error; err != nil {
		logger.ErrorWithFields("Failed to load posts page", err)
		util.RespondInternalError(c, "Failed to load feed")
		return
	}

	views := h.buildPostViews(c, posts, callerID, commentPreviewSize)

	response := gin.H{
		"posts":    views,
		"total":    total,
		"has_more": int64(offset+limit) < total,
		"meta": gin.H{
			"limit":  limit,
			"offset": offset,
		},
	}

	if payload, err := json.Marshal(response); err == nil {
		if err := h.feedCache.Set(c.Request.Context(), cacheKey, payload); err != nil {
			logger.WarnWithFields("Failed to cache feed page", err)
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetPost returns a single post with its full comment list oldest-first
// GET /api/v1/posts/:id
func (h *Handlers) GetPost(c *gin.Context) {
	callerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}

	views := h.buildPostViews(c, []models.Post{post}, callerID, 0)

	c.JSON(http.StatusOK, gin.H{"post": views[0]})
}

// CreatePost validates and uploads an image, then inserts the post row.
// If the insert fails after a successful upload the object is deleted
// best-effort.
// POST /api/v1/posts (multipart: image, caption)
func (h *Handlers) CreatePost(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		util.RespondValidationError(c, "image", "image file is required")
		return
	}
	if fileHeader.Size > util.MaxImageSize {
		util.RespondValidationError(c, "image", "image must be at most 5MB")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.RespondInternalError(c, "Failed to read uploaded image")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, util.MaxImageSize+1))
	if err != nil {
		util.RespondInternalError(c, "Failed to read uploaded image")
		return
	}
	if len(data) > util.MaxImageSize {
		util.RespondValidationError(c, "image", "image must be at most 5MB")
		return
	}

	contentType, allowed := util.DetectImageType(data)
	if !allowed {
		util.RespondValidationError(c, "image", "image must be JPEG, PNG, WebP or GIF")
		return
	}

	caption, apiErr := util.ValidateCaption(c.PostForm("caption"))
	if apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}

	upload, err := h.images.UploadImage(c.Request.Context(), data, contentType, user.ID)
	if err != nil {
		logger.ErrorWithFields("Image upload failed for user "+user.ID, err)
		util.RespondInternalError(c, "Failed to store image")
		return
	}
	metrics.Get().UploadedBytesTotal.Add(float64(len(data)))

	post := models.Post{
		UserID:     user.ID,
		ImageURL:   upload.URL,
		StorageKey: upload.Key,
		Caption:    caption,
	}
	if err := database.DB.Create(&post).Error; err != nil {
		logger.ErrorWithFields("Failed to insert post after upload for user "+user.ID, err)
		// Orphaned object cleanup; failure is logged, not surfaced
		if delErr := h.images.DeleteObject(c.Request.Context(), upload.Key); delErr != nil {
			logger.WarnWithFields("Failed to delete orphaned object "+upload.Key, delErr)
		}
		util.RespondWithAPIError(c, apierrors.InternalError("Failed to create post").WithDetails(err.Error()))
		return
	}

	metrics.Get().PostsCreatedTotal.Inc()
	h.invalidateFeed(c)

	view := dto.PostView{
		ID:        post.ID,
		Author:    dto.NewAuthorView(user.ID, user),
		ImageURL:  post.ImageURL,
		Caption:   post.Caption,
		Comments:  []dto.CommentView{},
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
	c.JSON(http.StatusOK, gin.H{"post": view})
}

// UpdatePost changes the caption of a post owned by the caller
// PATCH /api/v1/posts/:id
func (h *Handlers) UpdatePost(c *gin.Context) {
	callerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Caption string `json:"caption"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.UserID != callerID {
		util.RespondForbidden(c, "Only the author can edit this post")
		return
	}

	caption, apiErr := util.ValidateCaption(req.Caption)
	if apiErr != nil {
		util.RespondWithAPIError(c, apiErr)
		return
	}

	if err := database.DB.Model(&post).Update("caption", caption).Error; err != nil {
		logger.ErrorWithFields("Failed to update caption for post "+post.ID, err)
		util.RespondInternalError(c, "Failed to update post")
		return
	}
	post.Caption = caption

	h.invalidateFeed(c)

	views := h.buildPostViews(c, []models.Post{post}, callerID, 0)
	c.JSON(http.StatusOK, gin.H{"post": views[0]})
}

// DeletePost removes a post owned by the caller. The stored object is
// deleted best-effort first; likes and comments cascade in the database.
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	callerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", c.Param("id")).Error; err != nil {
		util.RespondNotFound(c, "post")
		return
	}
	if post.UserID != callerID {
		util.RespondForbidden(c, "Only the author can delete this post")
		return
	}

	if err := h.images.DeleteObject(c.Request.Context(), post.StorageKey); err != nil {
		logger.WarnWithFields("Failed to delete object "+post.StorageKey, err)
	}

	if err := database.DB.Delete(&models.Post{}, "id = ?", post.ID).Error; err != nil {
		logger.ErrorWithFields("Failed to delete post "+post.ID, err)
		util.RespondInternalError(c, "Failed to delete post")
		return
	}

	metrics.Get().PostsDeletedTotal.Inc()
	h.invalidateFeed(c)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// buildPostViews enriches post rows with authors, engagement counts,
// comments and the caller's like state using batched lookups. Sub-query
// failures are logged and substituted with defaults rather than failing
// the page. previewSize > 0 keeps only that many newest comments per
// post; previewSize == 0 loads the full list oldest-first.
func (h *Handlers) buildPostViews(c *gin.Context, posts []models.Post, callerID string, previewSize int) []dto.PostView {
	views := make([]dto.PostView, 0, len(posts))
	if len(posts) == 0 {
		return views
	}

	postIDs := make([]string, 0, len(posts))
	userIDSet := make(map[string]bool, len(posts))
	for _, p := range posts {
		postIDs = append(postIDs, p.ID)
		userIDSet[p.UserID] = true
	}

	var comments []models.Comment
	var err error
	if previewSize > 0 {
		// Bound the preview in SQL so popular posts don't drag their
		// whole comment history into every feed page
		err = database.DB.Raw(`
			SELECT id, post_id, user_id, content, created_at, updated_at FROM (
				SELECT *, ROW_NUMBER() OVER (PARTITION BY post_id ORDER BY created_at DESC) AS rn
				FROM comments WHERE post_id IN ?
			) ranked WHERE rn <= ?
			ORDER BY post_id, rn`, postIDs, previewSize).Scan(&comments).Error
	} else {
		err = database.DB.Where("post_id IN ?", postIDs).Order("created_at ASC").Find(&comments).Error
	}
	if err != nil {
		logger.WarnWithFields("Comment enrichment failed", err)
		comments = nil
	}
	commentsByPost := make(map[string][]models.Comment)
	for _, cm := range comments {
		commentsByPost[cm.PostID] = append(commentsByPost[cm.PostID], cm)
		userIDSet[cm.UserID] = true
	}

	userIDs := make([]string, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}
	users := make(map[string]*models.User, len(userIDs))
	var userRows []models.User
	if err := database.DB.Where("id IN ?", userIDs).Find(&userRows).Error; err != nil {
		logger.WarnWithFields("Author enrichment failed", err)
	} else {
		for i := range userRows {
			users[userRows[i].ID] = &userRows[i]
		}
	}

	stats := make(map[string]models.PostStats, len(postIDs))
	var statRows []models.PostStats
	if err := database.DB.Where("post_id IN ?", postIDs).Find(&statRows).Error; err != nil {
		logger.WarnWithFields("Stats enrichment failed", err)
	} else {
		for _, s := range statRows {
			stats[s.PostID] = s
		}
	}

	liked := make(map[string]bool, len(postIDs))
	var likeRows []models.Like
	if err := database.DB.Where("post_id IN ? AND user_id = ?", postIDs, callerID).Find(&likeRows).Error; err != nil {
		logger.WarnWithFields("Like state enrichment failed", err)
	} else {
		for _, l := range likeRows {
			liked[l.PostID] = true
		}
	}

	for _, p := range posts {
		commentViews := make([]dto.CommentView, 0, len(commentsByPost[p.ID]))
		for _, cm := range commentsByPost[p.ID] {
			commentViews = append(commentViews, dto.NewCommentView(cm, users))
		}

		views = append(views, dto.PostView{
			ID:           p.ID,
			Author:       dto.NewAuthorView(p.UserID, users[p.UserID]),
			ImageURL:     p.ImageURL,
			Caption:      p.Caption,
			LikeCount:    stats[p.ID].LikeCount,
			CommentCount: stats[p.ID].CommentCount,
			Liked:        liked[p.ID],
			Comments:     commentViews,
			CreatedAt:    p.CreatedAt,
			UpdatedAt:    p.UpdatedAt,
		})
	}

	return views
}

// invalidateFeed drops cached feed pages after a mutation
func (h *Handlers) invalidateFeed(c *gin.Context) {
	if err := h.feedCache.InvalidateFeed(c.Request.Context()); err != nil {
		logger.WarnWithFields("Feed cache invalidation failed", err)
	}
}
