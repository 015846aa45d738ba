package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a Picstream account. Rows are created on first
// authenticated interaction, keyed by the identity provider's subject,
// and are never deleted by the application.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalID  string `gorm:"uniqueIndex;not null" json:"-"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Post represents an image post with an optional caption.
// Posts are hard-deleted; likes and comments cascade at the database level.
type Post struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	ImageURL   string  `gorm:"not null" json:"image_url"`
	StorageKey string  `gorm:"not null" json:"-"`
	Caption    *string `gorm:"type:text" json:"caption"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Like marks a post as liked by a user. One like per (post, user),
// enforced by a composite unique index; violations surface as
// gorm.ErrDuplicatedKey and map to 409.
type Like struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;uniqueIndex:idx_likes_post_user" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID string `gorm:"not null;uniqueIndex:idx_likes_post_user;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// Comment represents a comment on a Post
type Comment struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	PostID string `gorm:"not null;index" json:"post_id"`
	Post   Post   `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	UserID string `gorm:"not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Follow represents a follower -> followee relationship. One row per
// (follower, followee); self-follows are rejected before insert.
type Follow struct {
	ID         string `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID string `gorm:"not null;uniqueIndex:idx_follows_pair" json:"follower_id"`
	Follower   User   `gorm:"foreignKey:FollowerID" json:"-"`
	FolloweeID string `gorm:"not null;uniqueIndex:idx_follows_pair;index" json:"following_id"`
	Followee   User   `gorm:"foreignKey:FolloweeID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// PostStats is the read-only post_stats view: per-post like and comment
// counts computed by the database, never written by the application.
type PostStats struct {
	PostID       string `gorm:"primaryKey" json:"post_id"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
}

// TableName maps PostStats onto the post_stats view
func (PostStats) TableName() string {
	return "post_stats"
}

// UserStats is the read-only user_stats view
type UserStats struct {
	UserID         string `gorm:"primaryKey" json:"user_id"`
	PostCount      int64  `json:"post_count"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
}

// TableName maps UserStats onto the user_stats view
func (UserStats) TableName() string {
	return "user_stats"
}

// BeforeCreate hooks for GORM

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = generateUUID()
	}
	return nil
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = generateUUID()
	}
	return nil
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
