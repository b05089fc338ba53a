package models

import "time"

// DefaultTagColor is assigned when a tag is created without an explicit color.
const DefaultTagColor = "#007bff"

// Tag labels posts. Names are unique case-insensitively; Color is a CSS hex
// value used by the tag cloud.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:50;not null" json:"name"`
	Color     string    `gorm:"size:7;not null;default:#007bff" json:"color"`
	CreatedAt time.Time `json:"created_at"`

	// PostCount is not persisted; counts published posts at query time
	PostCount int `gorm:"->" json:"post_count"`
}

// TagSuggestion is one row of the autocomplete response.
type TagSuggestion struct {
	Name      string `json:"name"`
	PostCount int    `json:"post_count"`
}
