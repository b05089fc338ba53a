package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// MaxBulkBooks caps one bulk import request.
const MaxBulkBooks = 100

// uniqueBookMessage mirrors the wording clients of the original API already
// handle for a duplicate (title, author) pair.
const uniqueBookMessage = "The fields title, author must make a unique set."

type BookService struct {
	bookRepo   repository.BookRepository
	authorRepo repository.AuthorRepository
}

// BookInput is one book payload. The json tags double as the echo format for
// rejected bulk rows.
type BookInput struct {
	Title           string `json:"title"`
	PublicationYear int    `json:"publication_year"`
	AuthorID        uint   `json:"author"`
}

func NewBookService(bookRepo repository.BookRepository, authorRepo repository.AuthorRepository) *BookService {
	return &BookService{bookRepo: bookRepo, authorRepo: authorRepo}
}

func (s *BookService) GetBook(ctx context.Context, id uint) (*models.Book, error) {
	return s.bookRepo.GetByID(ctx, id)
}

func (s *BookService) ListBooks(ctx context.Context, opts repository.BookListOptions) ([]models.Book, int64, error) {
	return s.bookRepo.List(ctx, opts)
}

func (s *BookService) CreateBook(ctx context.Context, in BookInput) (*models.Book, error) {
	fields, err := s.validateBook(ctx, in, 0)
	if err != nil {
		return nil, err
	}
	if fields.HasErrors() {
		return nil, models.NewFieldValidationError(fields)
	}

	book := &models.Book{
		Title:           strings.TrimSpace(in.Title),
		PublicationYear: in.PublicationYear,
		AuthorID:        in.AuthorID,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, asUniqueBookError(err)
	}
	return s.bookRepo.GetByID(ctx, book.ID)
}

func (s *BookService) UpdateBook(ctx context.Context, id uint, in BookInput) (*models.Book, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields, err := s.validateBook(ctx, in, book.ID)
	if err != nil {
		return nil, err
	}
	if fields.HasErrors() {
		return nil, models.NewFieldValidationError(fields)
	}

	book.Title = strings.TrimSpace(in.Title)
	book.PublicationYear = in.PublicationYear
	book.AuthorID = in.AuthorID
	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, asUniqueBookError(err)
	}
	return s.bookRepo.GetByID(ctx, book.ID)
}

func (s *BookService) DeleteBook(ctx context.Context, id uint) error {
	return s.bookRepo.Delete(ctx, id)
}

// BulkCreateBooks validates and inserts each row independently so one bad row
// never sinks the batch. Valid rows are persisted even when later rows fail;
// the result itemizes every rejection with its original payload.
func (s *BookService) BulkCreateBooks(ctx context.Context, rows []BookInput) (*models.BulkBookResult, error) {
	if len(rows) == 0 {
		fields := models.FieldErrors{}
		fields.Add("books", "Expected a non-empty list of books.")
		return nil, models.NewFieldValidationError(fields)
	}
	if len(rows) > MaxBulkBooks {
		fields := models.FieldErrors{}
		fields.Add("books", fmt.Sprintf("Bulk create is limited to %d books per request.", MaxBulkBooks))
		return nil, models.NewFieldValidationError(fields)
	}

	result := &models.BulkBookResult{
		Created: []models.Book{},
		Errors:  []models.BulkBookError{},
	}
	// Rows already inserted in this batch, keyed by (title, author), so an
	// intra-batch duplicate is reported instead of tripping the DB constraint.
	inserted := make(map[string]bool, len(rows))

	for i, row := range rows {
		fields, err := s.validateBook(ctx, row, 0)
		if err != nil {
			return nil, err
		}
		key := bulkKey(row)
		if !fields.HasErrors() && inserted[key] {
			fields.Add("non_field_errors", uniqueBookMessage)
		}
		if fields.HasErrors() {
			result.Errors = append(result.Errors, models.BulkBookError{Index: i, Data: row, Errors: fields})
			observability.BulkBookRows.WithLabelValues("rejected").Inc()
			continue
		}

		book := &models.Book{
			Title:           strings.TrimSpace(row.Title),
			PublicationYear: row.PublicationYear,
			AuthorID:        row.AuthorID,
		}
		if err := s.bookRepo.Create(ctx, book); err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == "CONFLICT" {
				fields := models.FieldErrors{}
				fields.Add("non_field_errors", uniqueBookMessage)
				result.Errors = append(result.Errors, models.BulkBookError{Index: i, Data: row, Errors: fields})
				observability.BulkBookRows.WithLabelValues("rejected").Inc()
				continue
			}
			return nil, err
		}

		created, err := s.bookRepo.GetByID(ctx, book.ID)
		if err != nil {
			return nil, err
		}
		result.Created = append(result.Created, *created)
		inserted[key] = true
		observability.BulkBookRows.WithLabelValues("created").Inc()
	}

	return result, nil
}

// validateBook collects field errors for one payload: title present and
// bounded, publication year within [1000, current year], author existing,
// and (title, author) not already taken.
func (s *BookService) validateBook(ctx context.Context, in BookInput, excludeID uint) (models.FieldErrors, error) {
	fields := models.FieldErrors{}

	if err := validation.ValidateBookTitle(in.Title); err != nil {
		fields.Add("title", err.Error())
	}
	if err := validation.ValidatePublicationYear(in.PublicationYear); err != nil {
		fields.Add("publication_year", err.Error())
	}

	authorOK := false
	if in.AuthorID == 0 {
		fields.Add("author", "This field is required.")
	} else {
		exists, err := s.authorRepo.Exists(ctx, in.AuthorID)
		if err != nil {
			return nil, err
		}
		if !exists {
			fields.Add("author", fmt.Sprintf("Author with ID %d does not exist.", in.AuthorID))
		}
		authorOK = exists
	}

	if authorOK && !fields.HasErrors() {
		taken, err := s.bookRepo.TitleTakenForAuthor(ctx, strings.TrimSpace(in.Title), in.AuthorID, excludeID)
		if err != nil {
			return nil, err
		}
		if taken {
			fields.Add("non_field_errors", uniqueBookMessage)
		}
	}

	return fields, nil
}

// asUniqueBookError converts the repo's conflict on (title, author) into the
// same field error the pre-check produces, so racing requests see one shape.
func asUniqueBookError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == "CONFLICT" {
		fields := models.FieldErrors{}
		fields.Add("non_field_errors", uniqueBookMessage)
		return models.NewFieldValidationError(fields)
	}
	return err
}

func bulkKey(in BookInput) string {
	return fmt.Sprintf("%s|%d", strings.TrimSpace(in.Title), in.AuthorID)
}
