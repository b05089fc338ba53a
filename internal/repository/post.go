package repository

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostListOptions narrows and pages the published-post listing.
type PostListOptions struct {
	Tag    string // exact tag name, case-insensitive
	Query  string // matches title/content/excerpt/tag name
	Limit  int
	Offset int
}

// PostRepository defines persistence operations for blog posts.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetBySlug(ctx context.Context, slug string) (*models.Post, error)
	ListPublished(ctx context.Context, opts PostListOptions) ([]models.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID uint, includeDrafts bool, limit, offset int) ([]models.Post, int64, error)
	Similar(ctx context.Context, postID uint, tagIDs []uint, limit int) ([]models.Post, error)
	SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error)
	IncrementViewCount(ctx context.Context, id uint) error
	Update(ctx context.Context, post *models.Post, oldSlug string) error
	Delete(ctx context.Context, post *models.Post) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// postDetails selects posts.* plus the approved-comment count. Kept as a
// subquery so list and detail queries stay a single round trip.
func postDetails(db *gorm.DB) *gorm.DB {
	return db.Select(`posts.*,
		(SELECT COUNT(*) FROM comments
		 WHERE comments.post_id = posts.id
		   AND comments.deleted_at IS NULL
		   AND comments.approved = TRUE) as comments_count`)
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("a post with this slug already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidatePopularTags(ctx)
	return nil
}

// GetBySlug returns the post with author, tags and comment count. Posts carry
// no per-user fields, so the detail is cached for every requester; writes and
// comment activity invalidate the key.
func (r *postRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	var post models.Post
	key := cache.PostKey(slug)

	err := cache.Aside(ctx, key, &post, cache.PostTTL, func() error {
		q := readDB(r.db).WithContext(ctx).
			Scopes(postDetails).
			Preload("Author").
			Preload("Tags").
			Where("posts.slug = ?", slug)
		if err := q.First(&post).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", slug)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) ListPublished(ctx context.Context, opts PostListOptions) ([]models.Post, int64, error) {
	filter := func(q *gorm.DB) *gorm.DB {
		q = q.Where("posts.status = ?", models.PostStatusPublished)
		if opts.Tag != "" {
			q = q.Where(`EXISTS (
				SELECT 1 FROM post_tags pt
				JOIN tags t ON t.id = pt.tag_id
				WHERE pt.post_id = posts.id AND LOWER(t.name) = ?)`,
				strings.ToLower(opts.Tag))
		}
		if opts.Query != "" {
			pattern := "%" + strings.ToLower(opts.Query) + "%"
			q = q.Where(`(LOWER(posts.title) LIKE ?
				OR LOWER(posts.content) LIKE ?
				OR LOWER(posts.excerpt) LIKE ?
				OR EXISTS (
					SELECT 1 FROM post_tags pt
					JOIN tags t ON t.id = pt.tag_id
					WHERE pt.post_id = posts.id AND LOWER(t.name) LIKE ?))`,
				pattern, pattern, pattern, pattern)
		}
		return q
	}

	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := filter(db.Model(&models.Post{})).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []models.Post
	err := filter(db.Model(&models.Post{})).
		Scopes(postDetails).
		Preload("Author").
		Preload("Tags").
		Order("posts.published_at DESC").
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID uint, includeDrafts bool, limit, offset int) ([]models.Post, int64, error) {
	filter := func(q *gorm.DB) *gorm.DB {
		q = q.Where("posts.author_id = ?", authorID)
		if !includeDrafts {
			q = q.Where("posts.status = ?", models.PostStatusPublished)
		}
		return q
	}

	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := filter(db.Model(&models.Post{})).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var posts []models.Post
	err := filter(db.Model(&models.Post{})).
		Scopes(postDetails).
		Preload("Author").
		Preload("Tags").
		Order("posts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// Similar returns published posts sharing at least one tag with the given
// post, most shared tags first, then most recent.
func (r *postRepository) Similar(ctx context.Context, postID uint, tagIDs []uint, limit int) ([]models.Post, error) {
	if len(tagIDs) == 0 {
		return []models.Post{}, nil
	}

	var posts []models.Post
	err := readDB(r.db).WithContext(ctx).
		Select("posts.*").
		Joins("JOIN post_tags pt ON pt.post_id = posts.id").
		Where("pt.tag_id IN ?", tagIDs).
		Where("posts.id <> ?", postID).
		Where("posts.status = ?", models.PostStatusPublished).
		Group("posts.id").
		Order("COUNT(pt.tag_id) DESC, MAX(posts.published_at) DESC").
		Limit(limit).
		Preload("Author").
		Preload("Tags").
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := readDB(r.db).WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// IncrementViewCount bumps the counter atomically without touching
// updated_at.
func (r *postRepository) IncrementViewCount(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Update saves the post and replaces its tag set. oldSlug is invalidated
// alongside the current slug so a renamed post drops its stale cache entry.
func (r *postRepository) Update(ctx context.Context, post *models.Post, oldSlug string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(post).Error; err != nil {
			return err
		}
		return tx.Model(post).Association("Tags").Replace(post.Tags)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("a post with this slug already exists")
		}
		return models.NewInternalError(err)
	}

	cache.InvalidatePost(ctx, post.Slug)
	if oldSlug != "" && oldSlug != post.Slug {
		cache.InvalidatePost(ctx, oldSlug)
	}
	cache.InvalidatePopularTags(ctx)
	return nil
}

// Delete soft-deletes the post and its comments in one transaction.
func (r *postRepository) Delete(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}

	cache.InvalidatePost(ctx, post.Slug)
	cache.InvalidatePopularTags(ctx)
	return nil
}
