package models

import (
	"time"

	"gorm.io/gorm"
)

// Post statuses. Drafts are visible to their author only.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Post represents a blog post. Slug and Excerpt are derived on create/update
// when not supplied: the slug from the title (with a numeric suffix on
// collision), the excerpt from the first 297 characters of the content.
type Post struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Slug        string     `gorm:"uniqueIndex;size:250;not null" json:"slug"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Excerpt     string     `gorm:"size:300" json:"excerpt"`
	Status      string     `gorm:"size:10;not null;default:draft;index" json:"status"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	ViewCount   uint       `gorm:"not null;default:0" json:"view_count"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	Author      User       `gorm:"foreignKey:AuthorID" json:"author"`
	Tags        []Tag      `gorm:"many2many:post_tags" json:"tags"`

	// CommentsCount is not persisted; computed at query time
	CommentsCount int `gorm:"->" json:"comments_count"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Published reports whether the post is visible to everyone.
func (p *Post) Published() bool {
	return p.Status == PostStatusPublished
}
