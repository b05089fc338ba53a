package models

import "time"

// Book is a catalog entry. A title may appear once per author; the publication
// year is bounded to [1000, current year] at the service layer and the same
// rule is enforced row-by-row during bulk imports.
type Book struct {
	ID              uint      `gorm:"primaryKey;" json:"id"`
	Title           string    `gorm:"size:200;not null;uniqueIndex:idx_title_author" json:"title"`
	PublicationYear int       `gorm:"not null;index" json:"publication_year"`
	AuthorID        uint      `gorm:"not null;index;uniqueIndex:idx_title_author" json:"author"`
	Author          *Author   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// AuthorName is not persisted; joined in at query time for list rows
	AuthorName string `gorm:"->" json:"author_name,omitempty"`
}

// BulkBookError describes why one row of a bulk import was rejected.
type BulkBookError struct {
	Index  int         `json:"index"`
	Data   interface{} `json:"data"`
	Errors FieldErrors `json:"errors"`
}

// BulkBookResult is the multi-status response of the bulk import endpoint.
type BulkBookResult struct {
	Created []Book          `json:"created"`
	Errors  []BulkBookError `json:"errors"`
}

// AllCreated reports whether every row of the import was persisted.
func (r *BulkBookResult) AllCreated() bool {
	return len(r.Errors) == 0
}
