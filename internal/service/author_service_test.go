package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// authorRepoStub is a stub for repository.AuthorRepository.
type authorRepoStub struct {
	createFn  func(context.Context, *models.Author) error
	getByIDFn func(context.Context, uint) (*models.Author, error)
	existsFn  func(context.Context, uint) (bool, error)
	listFn    func(context.Context, repository.AuthorListOptions) ([]models.Author, int64, error)
	updateFn  func(context.Context, *models.Author) error
	deleteFn  func(context.Context, uint) error
}

func (s *authorRepoStub) Create(ctx context.Context, author *models.Author) error {
	return s.createFn(ctx, author)
}
func (s *authorRepoStub) GetByID(ctx context.Context, id uint) (*models.Author, error) {
	return s.getByIDFn(ctx, id)
}
func (s *authorRepoStub) Exists(ctx context.Context, id uint) (bool, error) {
	return s.existsFn(ctx, id)
}
func (s *authorRepoStub) List(ctx context.Context, opts repository.AuthorListOptions) ([]models.Author, int64, error) {
	return s.listFn(ctx, opts)
}
func (s *authorRepoStub) Update(ctx context.Context, author *models.Author) error {
	return s.updateFn(ctx, author)
}
func (s *authorRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopAuthorRepo() *authorRepoStub {
	return &authorRepoStub{
		createFn:  func(_ context.Context, a *models.Author) error { a.ID = 1; return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Author, error) { return &models.Author{ID: id}, nil },
		existsFn:  func(_ context.Context, _ uint) (bool, error) { return true, nil },
		listFn: func(_ context.Context, _ repository.AuthorListOptions) ([]models.Author, int64, error) {
			return nil, 0, nil
		},
		updateFn: func(_ context.Context, _ *models.Author) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

func TestAuthorService_CreateAuthor(t *testing.T) {
	t.Parallel()

	t.Run("trims and stores the name", func(t *testing.T) {
		t.Parallel()
		var created *models.Author
		authorRepo := noopAuthorRepo()
		authorRepo.createFn = func(_ context.Context, a *models.Author) error {
			a.ID = 4
			created = a
			return nil
		}
		authorRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Author, error) { return created, nil }
		svc := NewAuthorService(authorRepo)

		author, err := svc.CreateAuthor(context.Background(), "  Ursula K. Le Guin  ")
		require.NoError(t, err)
		assert.Equal(t, "Ursula K. Le Guin", author.Name)
	})

	t.Run("blank name is a field error", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthorService(noopAuthorRepo())
		_, err := svc.CreateAuthor(context.Background(), "   ")
		assertFieldError(t, err, "name")
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Contains(t, appErr.Fields["name"], "Name is required.")
	})

	t.Run("over-long name is a field error", func(t *testing.T) {
		t.Parallel()
		svc := NewAuthorService(noopAuthorRepo())
		_, err := svc.CreateAuthor(context.Background(), strings.Repeat("n", 101))
		assertFieldError(t, err, "name")
	})
}

func TestAuthorService_UpdateAuthor(t *testing.T) {
	t.Parallel()

	t.Run("unknown author is a 404", func(t *testing.T) {
		t.Parallel()
		authorRepo := noopAuthorRepo()
		authorRepo.getByIDFn = func(_ context.Context, id uint) (*models.Author, error) {
			return nil, models.NewNotFoundError("Author", id)
		}
		svc := NewAuthorService(authorRepo)
		_, err := svc.UpdateAuthor(context.Background(), 99, "New Name")
		assertNotFoundError(t, err)
	})

	t.Run("renames and re-fetches", func(t *testing.T) {
		t.Parallel()
		stored := &models.Author{ID: 4, Name: "Old Name"}
		authorRepo := noopAuthorRepo()
		authorRepo.getByIDFn = func(_ context.Context, _ uint) (*models.Author, error) { return stored, nil }
		updated := false
		authorRepo.updateFn = func(_ context.Context, _ *models.Author) error { updated = true; return nil }
		svc := NewAuthorService(authorRepo)

		author, err := svc.UpdateAuthor(context.Background(), 4, " New Name ")
		require.NoError(t, err)
		assert.True(t, updated)
		assert.Equal(t, "New Name", author.Name)
	})
}

func TestAuthorService_DeleteAuthor(t *testing.T) {
	t.Parallel()

	var deletedID uint
	authorRepo := noopAuthorRepo()
	authorRepo.deleteFn = func(_ context.Context, id uint) error { deletedID = id; return nil }
	svc := NewAuthorService(authorRepo)

	require.NoError(t, svc.DeleteAuthor(context.Background(), 4))
	assert.Equal(t, uint(4), deletedID)
}
