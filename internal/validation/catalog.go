package validation

import (
	"fmt"
	"strings"
	"time"
)

// MinPublicationYear is the oldest year the catalog accepts.
const MinPublicationYear = 1000

// ValidateBookTitle requires a non-blank title within the column bound.
func ValidateBookTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return fmt.Errorf("Title is required.")
	}
	if len(trimmed) > 200 {
		return fmt.Errorf("Title cannot exceed 200 characters.")
	}
	return nil
}

// ValidatePublicationYear bounds the year to [MinPublicationYear, current UTC year].
func ValidatePublicationYear(year int) error {
	if year > time.Now().UTC().Year() {
		return fmt.Errorf("Publication year cannot be in the future.")
	}
	if year < MinPublicationYear {
		return fmt.Errorf("Publication year must be %d or later.", MinPublicationYear)
	}
	return nil
}

// ValidateAuthorName requires a non-blank name within the column bound.
func ValidateAuthorName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("Name is required.")
	}
	if len(trimmed) > 100 {
		return fmt.Errorf("Name cannot exceed 100 characters.")
	}
	return nil
}
