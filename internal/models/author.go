package models

import "time"

// Author is a catalog writer. Deleting an author cascades to their books.
type Author struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null;index" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Books []Book `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"books,omitempty"`

	// BookCount is not persisted; computed for list rows
	BookCount int `gorm:"->" json:"book_count"`
}
