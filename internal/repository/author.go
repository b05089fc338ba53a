package repository

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// AuthorListOptions carries search, ordering and the page window for the
// author listing.
type AuthorListOptions struct {
	Search   string
	Ordering string
	Limit    int
	Offset   int
}

// authorSortColumns whitelists what ?ordering= may reference.
var authorSortColumns = map[string]string{
	"id":         "authors.id",
	"name":       "authors.name",
	"created_at": "authors.created_at",
}

// AuthorRepository defines persistence operations for catalog authors.
type AuthorRepository interface {
	Create(ctx context.Context, author *models.Author) error
	GetByID(ctx context.Context, id uint) (*models.Author, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, opts AuthorListOptions) ([]models.Author, int64, error)
	Update(ctx context.Context, author *models.Author) error
	Delete(ctx context.Context, id uint) error
}

type authorRepository struct {
	db *gorm.DB
}

// NewAuthorRepository returns a new AuthorRepository implementation.
func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

func (r *authorRepository) Create(ctx context.Context, author *models.Author) error {
	if err := r.db.WithContext(ctx).Omit("Books").Create(author).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID returns the author with their books nested, cached briefly; book
// writes invalidate the entry.
func (r *authorRepository) GetByID(ctx context.Context, id uint) (*models.Author, error) {
	var author models.Author
	key := cache.AuthorKey(id)

	err := cache.Aside(ctx, key, &author, cache.AuthorTTL, func() error {
		err := readDB(r.db).WithContext(ctx).
			Select(`authors.*,
				(SELECT COUNT(*) FROM books WHERE books.author_id = authors.id) as book_count`).
			Preload("Books", func(db *gorm.DB) *gorm.DB {
				return db.Order("books.publication_year ASC, books.title ASC")
			}).
			First(&author, "authors.id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Author", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &author, nil
}

func (r *authorRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Author{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *authorRepository) List(ctx context.Context, opts AuthorListOptions) ([]models.Author, int64, error) {
	filter := func(q *gorm.DB) *gorm.DB {
		if opts.Search != "" {
			q = q.Where("LOWER(authors.name) LIKE ?", "%"+strings.ToLower(opts.Search)+"%")
		}
		return q
	}

	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := filter(db.Model(&models.Author{})).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	authors := []models.Author{}
	err := filter(db.Model(&models.Author{})).
		Select(`authors.*,
			(SELECT COUNT(*) FROM books WHERE books.author_id = authors.id) as book_count`).
		Order(authorOrderClause(opts.Ordering)).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&authors).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return authors, total, nil
}

func authorOrderClause(ordering string) string {
	field := strings.TrimSpace(ordering)
	desc := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")

	col, ok := authorSortColumns[field]
	if !ok {
		return "authors.name ASC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

func (r *authorRepository) Update(ctx context.Context, author *models.Author) error {
	if err := r.db.WithContext(ctx).Omit("Books").Save(author).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAuthor(ctx, author.ID)
	return nil
}

// Delete removes the author and their books in one transaction. The books
// are deleted explicitly rather than through the foreign key so behavior
// does not depend on the backend's cascade support.
func (r *authorRepository) Delete(ctx context.Context, id uint) error {
	var bookIDs []uint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.First(&models.Author{}, id)
		if res.Error != nil {
			if errors.Is(res.Error, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Author", id)
			}
			return models.NewInternalError(res.Error)
		}
		if err := tx.Model(&models.Book{}).Where("author_id = ?", id).Pluck("id", &bookIDs).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Book{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Delete(&models.Author{}, id).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	cache.InvalidateAuthor(ctx, id)
	for _, bookID := range bookIDs {
		cache.InvalidateBook(ctx, bookID)
	}
	return nil
}
