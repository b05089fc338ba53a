package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment represents a comment on a post. Threads are one level deep: a
// reply's ParentID always points at a top-level comment.
type Comment struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Content  string `gorm:"size:1000;not null" json:"content"`
	PostID   uint   `gorm:"not null;index" json:"post_id"`
	Post     Post   `gorm:"foreignKey:PostID" json:"-"`
	AuthorID uint   `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author"`
	ParentID *uint  `gorm:"index" json:"parent_id,omitempty"`
	Approved bool   `gorm:"not null;default:true" json:"approved"`

	// LikeCount is not persisted; computed at query time
	LikeCount int `gorm:"->" json:"like_count"`
	// Liked indicates whether the requesting user liked this comment (computed)
	Liked bool `gorm:"->" json:"liked"`
	// ReplyCount is not persisted; computed at query time
	ReplyCount int `gorm:"->" json:"reply_count"`

	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// CommentLike records one user's like on one comment.
// The combination of UserID and CommentID must be unique.
type CommentLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_comment" json:"user_id"`
	CommentID uint      `gorm:"not null;uniqueIndex:idx_user_comment" json:"comment_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeToggleResult is the response body of the like toggle endpoint.
type LikeToggleResult struct {
	Success   bool `json:"success"`
	LikeCount int  `json:"like_count"`
	Liked     bool `json:"liked"`
}
