package repository

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// publishedPostCount counts published, non-deleted posts per tag. Written as
// a conditional count over a LEFT JOIN so tags without posts still appear
// with a zero.
const publishedPostCount = `COUNT(DISTINCT CASE
	WHEN posts.status = 'published' AND posts.deleted_at IS NULL
	THEN posts.id END) as post_count`

// TagRepository defines persistence operations for tags.
type TagRepository interface {
	Autocomplete(ctx context.Context, query string, limit int) ([]models.TagSuggestion, error)
	Popular(ctx context.Context, limit int) ([]models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)
	FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository returns a new TagRepository implementation.
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) withCounts(ctx context.Context) *gorm.DB {
	return readDB(r.db).WithContext(ctx).
		Table("tags").
		Select("tags.*, " + publishedPostCount).
		Joins("LEFT JOIN post_tags ON post_tags.tag_id = tags.id").
		Joins("LEFT JOIN posts ON posts.id = post_tags.post_id").
		Group("tags.id")
}

// Autocomplete matches tag names by case-insensitive substring and orders
// the suggestions by published-post count, then name. The minimum query
// length lives in the service; this always searches.
func (r *tagRepository) Autocomplete(ctx context.Context, query string, limit int) ([]models.TagSuggestion, error) {
	suggestions := []models.TagSuggestion{}
	err := r.withCounts(ctx).
		Select("tags.name as name, " + publishedPostCount).
		Where("LOWER(tags.name) LIKE ?", "%"+strings.ToLower(query)+"%").
		Order("post_count DESC, tags.name ASC").
		Limit(limit).
		Scan(&suggestions).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return suggestions, nil
}

// Popular returns the tag cloud: the most used tags across published posts,
// cached for a few minutes since every page renders it.
func (r *tagRepository) Popular(ctx context.Context, limit int) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := cache.Aside(ctx, cache.PopularTagsKey, &tags, cache.PopularTagsTTL, func() error {
		err := r.withCounts(ctx).
			Having("COUNT(DISTINCT CASE WHEN posts.status = 'published' AND posts.deleted_at IS NULL THEN posts.id END) > 0").
			Order("post_count DESC, tags.name ASC").
			Limit(limit).
			Find(&tags).Error
		if err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := r.withCounts(ctx).
		Order("tags.name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return tags, nil
}

// FindOrCreate resolves tag names to rows, creating missing ones with the
// default color. Matching is case-insensitive; the stored spelling wins.
func (r *tagRepository) FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		var tag models.Tag
		err := r.db.WithContext(ctx).
			Where("LOWER(name) = ?", strings.ToLower(name)).
			First(&tag).Error
		if err == nil {
			tags = append(tags, tag)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewInternalError(err)
		}

		tag = models.Tag{Name: name, Color: models.DefaultTagColor}
		if err := r.db.WithContext(ctx).Create(&tag).Error; err != nil {
			if isUniqueViolation(err) {
				// concurrent create of the same name; fetch the winner
				if ferr := r.db.WithContext(ctx).
					Where("LOWER(name) = ?", strings.ToLower(name)).
					First(&tag).Error; ferr != nil {
					return nil, models.NewInternalError(ferr)
				}
			} else {
				return nil, models.NewInternalError(err)
			}
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
