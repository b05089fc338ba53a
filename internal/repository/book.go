package repository

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/cache"
	"inkwell/internal/models"

	"gorm.io/gorm"
)

// BookListOptions carries the supported filters, search, ordering and page
// window for the book listing.
type BookListOptions struct {
	// exact filters
	Title           string
	AuthorID        uint
	PublicationYear int

	// supplemental filters
	TitleContains string
	AuthorName    string
	YearFrom      int
	YearTo        int

	// cross-field search over title and author name
	Search string

	// ordering field, optionally "-" prefixed; unknown fields are ignored
	Ordering string

	Limit  int
	Offset int
}

// bookSortColumns whitelists what ?ordering= may reference.
var bookSortColumns = map[string]string{
	"id":               "books.id",
	"title":            "books.title",
	"publication_year": "books.publication_year",
	"created_at":       "books.created_at",
}

// BookRepository defines persistence operations for catalog books.
type BookRepository interface {
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	List(ctx context.Context, opts BookListOptions) ([]models.Book, int64, error)
	TitleTakenForAuthor(ctx context.Context, title string, authorID uint, excludeID uint) (bool, error)
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id uint) error
}

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository returns a new BookRepository implementation.
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(book).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("book with this title and author already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateAuthor(ctx, book.AuthorID)
	return nil
}

func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	key := cache.BookKey(id)

	err := cache.Aside(ctx, key, &book, cache.BookTTL, func() error {
		err := readDB(r.db).WithContext(ctx).
			Select("books.*, authors.name as author_name").
			Joins("JOIN authors ON authors.id = books.author_id").
			First(&book, "books.id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Book", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) List(ctx context.Context, opts BookListOptions) ([]models.Book, int64, error) {
	filter := func(q *gorm.DB) *gorm.DB {
		q = q.Joins("JOIN authors ON authors.id = books.author_id")
		if opts.Title != "" {
			q = q.Where("books.title = ?", opts.Title)
		}
		if opts.AuthorID != 0 {
			q = q.Where("books.author_id = ?", opts.AuthorID)
		}
		if opts.PublicationYear != 0 {
			q = q.Where("books.publication_year = ?", opts.PublicationYear)
		}
		if opts.TitleContains != "" {
			q = q.Where("LOWER(books.title) LIKE ?", "%"+strings.ToLower(opts.TitleContains)+"%")
		}
		if opts.AuthorName != "" {
			q = q.Where("LOWER(authors.name) LIKE ?", "%"+strings.ToLower(opts.AuthorName)+"%")
		}
		if opts.YearFrom != 0 {
			q = q.Where("books.publication_year >= ?", opts.YearFrom)
		}
		if opts.YearTo != 0 {
			q = q.Where("books.publication_year <= ?", opts.YearTo)
		}
		if opts.Search != "" {
			pattern := "%" + strings.ToLower(opts.Search) + "%"
			q = q.Where("(LOWER(books.title) LIKE ? OR LOWER(authors.name) LIKE ?)", pattern, pattern)
		}
		return q
	}

	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := filter(db.Model(&models.Book{})).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	books := []models.Book{}
	err := filter(db.Model(&models.Book{})).
		Select("books.*, authors.name as author_name").
		Order(bookOrderClause(opts.Ordering)).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&books).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return books, total, nil
}

// bookOrderClause maps ?ordering= onto a safe ORDER BY. Unknown fields fall
// back to the default title ascending rather than erroring.
func bookOrderClause(ordering string) string {
	field := strings.TrimSpace(ordering)
	desc := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")

	col, ok := bookSortColumns[field]
	if !ok {
		return "books.title ASC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

func (r *bookRepository) TitleTakenForAuthor(ctx context.Context, title string, authorID uint, excludeID uint) (bool, error) {
	var count int64
	q := readDB(r.db).WithContext(ctx).Model(&models.Book{}).
		Where("title = ? AND author_id = ?", title, authorID)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *bookRepository) Update(ctx context.Context, book *models.Book) error {
	if err := r.db.WithContext(ctx).Omit("Author").Save(book).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("book with this title and author already exists")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateBook(ctx, book.ID)
	cache.InvalidateAuthor(ctx, book.AuthorID)
	return nil
}

func (r *bookRepository) Delete(ctx context.Context, id uint) error {
	var book models.Book
	if err := r.db.WithContext(ctx).First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Book", id)
		}
		return models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Delete(&book).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateBook(ctx, id)
	cache.InvalidateAuthor(ctx, book.AuthorID)
	return nil
}
