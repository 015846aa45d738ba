package dto

import (
	"time"

	"github.com/picstream/backend/internal/models"
)

// UnknownAuthorName is substituted when an author lookup fails mid-enrichment
const UnknownAuthorName = "Unknown"

// AuthorView is the denormalized author info embedded in feed items
type AuthorView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// CommentView is a comment enriched with its author
type CommentView struct {
	ID        string     `json:"id"`
	PostID    string     `json:"post_id"`
	Content   string     `json:"content"`
	Author    AuthorView `json:"author"`
	CreatedAt time.Time  `json:"created_at"`
}

// PostView is a post enriched with author, engagement counts, a comment
// preview (feed) or the full comment list (detail), and the caller's
// like state
type PostView struct {
	ID           string        `json:"id"`
	Author       AuthorView    `json:"author"`
	ImageURL     string        `json:"image_url"`
	Caption      *string       `json:"caption"`
	LikeCount    int64         `json:"like_count"`
	CommentCount int64         `json:"comment_count"`
	Liked        bool          `json:"liked"`
	Comments     []CommentView `json:"comments"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// NewAuthorView builds an AuthorView, substituting placeholders when the
// author row was not found
func NewAuthorView(userID string, user *models.User) AuthorView {
	if user == nil {
		return AuthorView{
			ID:          userID,
			Username:    UnknownAuthorName,
			DisplayName: UnknownAuthorName,
		}
	}
	return AuthorView{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}
}

// NewCommentView builds a CommentView from a comment row and an author
// lookup table
func NewCommentView(comment models.Comment, users map[string]*models.User) CommentView {
	return CommentView{
		ID:        comment.ID,
		PostID:    comment.PostID,
		Content:   comment.Content,
		Author:    NewAuthorView(comment.UserID, users[comment.UserID]),
		CreatedAt: comment.CreatedAt,
	}
}
