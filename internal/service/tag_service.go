package service

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// Autocomplete behaviour: suggestions start at two typed characters and the
// dropdown shows at most ten rows; the cloud shows the ten busiest tags.
const (
	autocompleteMinQueryLen = 2
	autocompleteLimit       = 10
	popularTagsLimit        = 10
)

type TagService struct {
	tagRepo repository.TagRepository
}

func NewTagService(tagRepo repository.TagRepository) *TagService {
	return &TagService{tagRepo: tagRepo}
}

// Autocomplete returns up to ten suggestions matching the query as a
// case-insensitive substring, busiest tags first. Queries shorter than two
// characters after trimming return an empty list rather than an error.
func (s *TagService) Autocomplete(ctx context.Context, query string) ([]models.TagSuggestion, error) {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < autocompleteMinQueryLen {
		return []models.TagSuggestion{}, nil
	}
	return s.tagRepo.Autocomplete(ctx, trimmed, autocompleteLimit)
}

// Popular returns the tag cloud: the ten tags with the most published posts.
func (s *TagService) Popular(ctx context.Context) ([]models.Tag, error) {
	return s.tagRepo.Popular(ctx, popularTagsLimit)
}

// List returns every tag with its published-post count, name ascending.
func (s *TagService) List(ctx context.Context) ([]models.Tag, error) {
	return s.tagRepo.List(ctx)
}
