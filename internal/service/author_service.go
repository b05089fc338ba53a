package service

import (
	"context"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

type AuthorService struct {
	authorRepo repository.AuthorRepository
}

func NewAuthorService(authorRepo repository.AuthorRepository) *AuthorService {
	return &AuthorService{authorRepo: authorRepo}
}

// GetAuthor returns the author with their books nested, publication order.
func (s *AuthorService) GetAuthor(ctx context.Context, id uint) (*models.Author, error) {
	return s.authorRepo.GetByID(ctx, id)
}

// ListAuthors returns authors without nested books; list rows carry the book
// count instead.
func (s *AuthorService) ListAuthors(ctx context.Context, opts repository.AuthorListOptions) ([]models.Author, int64, error) {
	return s.authorRepo.List(ctx, opts)
}

func (s *AuthorService) CreateAuthor(ctx context.Context, name string) (*models.Author, error) {
	if err := validateAuthorName(name); err != nil {
		return nil, err
	}

	author := &models.Author{Name: strings.TrimSpace(name)}
	if err := s.authorRepo.Create(ctx, author); err != nil {
		return nil, err
	}
	return s.authorRepo.GetByID(ctx, author.ID)
}

func (s *AuthorService) UpdateAuthor(ctx context.Context, id uint, name string) (*models.Author, error) {
	author, err := s.authorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateAuthorName(name); err != nil {
		return nil, err
	}

	author.Name = strings.TrimSpace(name)
	if err := s.authorRepo.Update(ctx, author); err != nil {
		return nil, err
	}
	return s.authorRepo.GetByID(ctx, id)
}

// DeleteAuthor removes the author and every book they wrote.
func (s *AuthorService) DeleteAuthor(ctx context.Context, id uint) error {
	return s.authorRepo.Delete(ctx, id)
}

func validateAuthorName(name string) error {
	if err := validation.ValidateAuthorName(name); err != nil {
		fields := models.FieldErrors{}
		fields.Add("name", err.Error())
		return models.NewFieldValidationError(fields)
	}
	return nil
}
