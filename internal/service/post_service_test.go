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

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn        func(context.Context, *models.Post) error
	getBySlugFn     func(context.Context, string) (*models.Post, error)
	listPublishedFn func(context.Context, repository.PostListOptions) ([]models.Post, int64, error)
	listByAuthorFn  func(context.Context, uint, bool, int, int) ([]models.Post, int64, error)
	similarFn       func(context.Context, uint, []uint, int) ([]models.Post, error)
	slugTakenFn     func(context.Context, string, uint) (bool, error)
	incrementViewFn func(context.Context, uint) error
	updateFn        func(context.Context, *models.Post, string) error
	deleteFn        func(context.Context, *models.Post) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.getBySlugFn(ctx, slug)
}
func (s *postRepoStub) ListPublished(ctx context.Context, opts repository.PostListOptions) ([]models.Post, int64, error) {
	return s.listPublishedFn(ctx, opts)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID uint, includeDrafts bool, limit, offset int) ([]models.Post, int64, error) {
	return s.listByAuthorFn(ctx, authorID, includeDrafts, limit, offset)
}
func (s *postRepoStub) Similar(ctx context.Context, postID uint, tagIDs []uint, limit int) ([]models.Post, error) {
	return s.similarFn(ctx, postID, tagIDs, limit)
}
func (s *postRepoStub) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	return s.slugTakenFn(ctx, slug, excludeID)
}
func (s *postRepoStub) IncrementViewCount(ctx context.Context, id uint) error {
	return s.incrementViewFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post, oldSlug string) error {
	return s.updateFn(ctx, post, oldSlug)
}
func (s *postRepoStub) Delete(ctx context.Context, post *models.Post) error {
	return s.deleteFn(ctx, post)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:    func(_ context.Context, _ *models.Post) error { return nil },
		getBySlugFn: func(_ context.Context, _ string) (*models.Post, error) { return &models.Post{}, nil },
		listPublishedFn: func(_ context.Context, _ repository.PostListOptions) ([]models.Post, int64, error) {
			return nil, 0, nil
		},
		listByAuthorFn: func(_ context.Context, _ uint, _ bool, _, _ int) ([]models.Post, int64, error) {
			return nil, 0, nil
		},
		similarFn:       func(_ context.Context, _ uint, _ []uint, _ int) ([]models.Post, error) { return nil, nil },
		slugTakenFn:     func(_ context.Context, _ string, _ uint) (bool, error) { return false, nil },
		incrementViewFn: func(_ context.Context, _ uint) error { return nil },
		updateFn:        func(_ context.Context, _ *models.Post, _ string) error { return nil },
		deleteFn:        func(_ context.Context, _ *models.Post) error { return nil },
	}
}

// tagRepoStub is a stub for repository.TagRepository.
type tagRepoStub struct {
	autocompleteFn func(context.Context, string, int) ([]models.TagSuggestion, error)
	popularFn      func(context.Context, int) ([]models.Tag, error)
	listFn         func(context.Context) ([]models.Tag, error)
	findOrCreateFn func(context.Context, []string) ([]models.Tag, error)
}

func (s *tagRepoStub) Autocomplete(ctx context.Context, query string, limit int) ([]models.TagSuggestion, error) {
	return s.autocompleteFn(ctx, query, limit)
}
func (s *tagRepoStub) Popular(ctx context.Context, limit int) ([]models.Tag, error) {
	return s.popularFn(ctx, limit)
}
func (s *tagRepoStub) List(ctx context.Context) ([]models.Tag, error) {
	return s.listFn(ctx)
}
func (s *tagRepoStub) FindOrCreate(ctx context.Context, names []string) ([]models.Tag, error) {
	return s.findOrCreateFn(ctx, names)
}

func noopTagRepo() *tagRepoStub {
	return &tagRepoStub{
		autocompleteFn: func(_ context.Context, _ string, _ int) ([]models.TagSuggestion, error) { return nil, nil },
		popularFn:      func(_ context.Context, _ int) ([]models.Tag, error) { return nil, nil },
		listFn:         func(_ context.Context) ([]models.Tag, error) { return nil, nil },
		findOrCreateFn: func(_ context.Context, names []string) ([]models.Tag, error) {
			tags := make([]models.Tag, 0, len(names))
			for i, name := range names {
				tags = append(tags, models.Tag{ID: uint(i + 1), Name: name})
			}
			return tags, nil
		},
	}
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

// assertFieldError asserts a VALIDATION_ERROR carrying a message for field.
func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	assert.NotEmpty(t, appErr.Fields[field], "expected a message for field %q, got %v", field, appErr.Fields)
}

// assertForbiddenError asserts that err is an AppError with code FORBIDDEN.
func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

// assertNotFoundError asserts that err is an AppError with code NOT_FOUND.
func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Go & Gorm: a love story!  ", "go-gorm-a-love-story"},
		{"---", "post"},
		{"Üñïçôdé", "post"},
		{"Multiple   spaces", "multiple-spaces"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.title), "slugify(%q)", tt.title)
	}
}

func TestDeriveExcerpt(t *testing.T) {
	t.Parallel()

	t.Run("explicit excerpt wins", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "summary", deriveExcerpt(" summary ", strings.Repeat("x", 500)))
	})

	t.Run("short content passes through", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "short body", deriveExcerpt("", "short body"))
	})

	t.Run("long content truncated with ellipsis", func(t *testing.T) {
		t.Parallel()
		got := deriveExcerpt("", strings.Repeat("a", 400))
		assert.Len(t, got, 300)
		assert.True(t, strings.HasSuffix(got, "..."))
	})
}

func TestPostService_CreatePost(t *testing.T) {
	t.Parallel()

	t.Run("validation failures are per-field", func(t *testing.T) {
		t.Parallel()
		svc := NewPostService(noopPostRepo(), noopTagRepo(), nil)
		_, err := svc.CreatePost(context.Background(), CreatePostInput{
			AuthorID: 1,
			Title:    "hi",
			Content:  "too short",
			Status:   "archived",
		})
		require.Error(t, err)
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.NotEmpty(t, appErr.Fields["title"])
		assert.NotEmpty(t, appErr.Fields["content"])
		assert.NotEmpty(t, appErr.Fields["status"])
	})

	t.Run("slug collision appends counter", func(t *testing.T) {
		t.Parallel()
		var created *models.Post
		postRepo := noopPostRepo()
		postRepo.slugTakenFn = func(_ context.Context, slug string, _ uint) (bool, error) {
			return slug == "my-first-post" || slug == "my-first-post-1", nil
		}
		postRepo.createFn = func(_ context.Context, p *models.Post) error {
			p.ID = 7
			created = p
			return nil
		}
		postRepo.getBySlugFn = func(_ context.Context, slug string) (*models.Post, error) {
			return created, nil
		}

		svc := NewPostService(postRepo, noopTagRepo(), nil)
		post, err := svc.CreatePost(context.Background(), CreatePostInput{
			AuthorID: 1,
			Title:    "My First Post",
			Content:  "this is long enough to pass the minimum",
			Status:   models.PostStatusPublished,
		})
		require.NoError(t, err)
		assert.Equal(t, "my-first-post-2", post.Slug)
		require.NotNil(t, post.PublishedAt, "publishing should stamp published_at")
	})

	t.Run("draft default has no published_at", func(t *testing.T) {
		t.Parallel()
		var created *models.Post
		postRepo := noopPostRepo()
		postRepo.createFn = func(_ context.Context, p *models.Post) error {
			created = p
			return nil
		}
		postRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) {
			return created, nil
		}

		svc := NewPostService(postRepo, noopTagRepo(), nil)
		post, err := svc.CreatePost(context.Background(), CreatePostInput{
			AuthorID: 1,
			Title:    "Working notes",
			Content:  "this is long enough to pass the minimum",
		})
		require.NoError(t, err)
		assert.Equal(t, models.PostStatusDraft, post.Status)
		assert.Nil(t, post.PublishedAt)
	})

	t.Run("tags are resolved through FindOrCreate", func(t *testing.T) {
		t.Parallel()
		var askedNames []string
		tagRepo := noopTagRepo()
		orig := tagRepo.findOrCreateFn
		tagRepo.findOrCreateFn = func(ctx context.Context, names []string) ([]models.Tag, error) {
			askedNames = names
			return orig(ctx, names)
		}
		var created *models.Post
		postRepo := noopPostRepo()
		postRepo.createFn = func(_ context.Context, p *models.Post) error { created = p; return nil }
		postRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) { return created, nil }

		svc := NewPostService(postRepo, tagRepo, nil)
		post, err := svc.CreatePost(context.Background(), CreatePostInput{
			AuthorID: 1,
			Title:    "Tagged post",
			Content:  "this is long enough to pass the minimum",
			Tags:     []string{"go", "databases"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"go", "databases"}, askedNames)
		assert.Len(t, post.Tags, 2)
	})
}

func TestPostService_GetPost_DraftVisibility(t *testing.T) {
	t.Parallel()

	draft := func() *models.Post {
		return &models.Post{ID: 3, Slug: "wip", Status: models.PostStatusDraft, AuthorID: 5}
	}

	t.Run("anonymous viewer gets 404", func(t *testing.T) {
		t.Parallel()
		postRepo := noopPostRepo()
		postRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) { return draft(), nil }
		svc := NewPostService(postRepo, noopTagRepo(), nil)
		_, err := svc.GetPost(context.Background(), "wip", 0)
		assertNotFoundError(t, err)
	})

	t.Run("other user gets 404", func(t *testing.T) {
		t.Parallel()
		postRepo := noopPostRepo()
		postRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) { return draft(), nil }
		svc := NewPostService(postRepo, noopTagRepo(), nil)
		_, err := svc.GetPost(context.Background(), "wip", 99)
		assertNotFoundError(t, err)
	})

	t.Run("author sees the draft without a view bump", func(t *testing.T) {
		t.Parallel()
		bumped := false
		postRepo := noopPostRepo()
		postRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) { return draft(), nil }
		postRepo.incrementViewFn = func(_ context.Context, _ uint) error { bumped = true; return nil }
		svc := NewPostService(postRepo, noopTagRepo(), nil)
		post, err := svc.GetPost(context.Background(), "wip", 5)
		require.NoError(t, err)
		assert.Equal(t, uint(3), post.ID)
		assert.False(t, bumped)
	})

	t.Run("published view bumps the counter", func(t *testing.T) {
		t.Parallel()
		var bumpedID uint
		postRepo := noopPostRepo()
		postRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) {
			return &models.Post{ID: 8, Slug: "live", Status: models.PostStatusPublished, ViewCount: 41}, nil
		}
		postRepo.incrementViewFn = func(_ context.Context, id uint) error { bumpedID = id; return nil }
		svc := NewPostService(postRepo, noopTagRepo(), nil)
		post, err := svc.GetPost(context.Background(), "live", 0)
		require.NoError(t, err)
		assert.Equal(t, uint(8), bumpedID)
		assert.Equal(t, uint(42), post.ViewCount)
	})
}

func TestPostService_UpdatePost(t *testing.T) {
	t.Parallel()

	existing := func() *models.Post {
		return &models.Post{
			ID:       4,
			Slug:     "original-title",
			Title:    "Original Title",
			Content:  "the original body, long enough to validate",
			Status:   models.PostStatusDraft,
			AuthorID: 2,
			Tags:     []models.Tag{{ID: 1, Name: "go"}},
		}
	}

	t.Run("non-author is forbidden", func(t *testing.T) {
		t.Parallel()
		postRepo := noopPostRepo()
		postRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) { return existing(), nil }
		svc := NewPostService(postRepo, noopTagRepo(), nil)
		_, err := svc.UpdatePost(context.Background(), UpdatePostInput{
			UserID:  9,
			Slug:    "original-title",
			Title:   "Hijacked Title",
			Content: "some replacement body, long enough too",
		})
		assertForbiddenError(t, err)
	})

	t.Run("title change re-derives the slug and passes the old one through", func(t *testing.T) {
		t.Parallel()
		var savedOldSlug string
		var saved *models.Post
		postRepo := noopPostRepo()
		postRepo.getBySlugFn = func(_ context.Context, slug string) (*models.Post, error) {
			if saved != nil {
				return saved, nil
			}
			return existing(), nil
		}
		postRepo.updateFn = func(_ context.Context, p *models.Post, oldSlug string) error {
			saved = p
			savedOldSlug = oldSlug
			return nil
		}
		svc := NewPostService(postRepo, noopTagRepo(), nil)
		post, err := svc.UpdatePost(context.Background(), UpdatePostInput{
			UserID:  2,
			Slug:    "original-title",
			Title:   "Renamed Title",
			Content: "the original body, long enough to validate",
		})
		require.NoError(t, err)
		assert.Equal(t, "renamed-title", post.Slug)
		assert.Equal(t, "original-title", savedOldSlug)
	})

	t.Run("publishing a draft stamps published_at once", func(t *testing.T) {
		t.Parallel()
		var saved *models.Post
		postRepo := noopPostRepo()
		postRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) {
			if saved != nil {
				return saved, nil
			}
			return existing(), nil
		}
		postRepo.updateFn = func(_ context.Context, p *models.Post, _ string) error { saved = p; return nil }
		svc := NewPostService(postRepo, noopTagRepo(), nil)
		post, err := svc.UpdatePost(context.Background(), UpdatePostInput{
			UserID:  2,
			Slug:    "original-title",
			Title:   "Original Title",
			Content: "the original body, long enough to validate",
			Status:  models.PostStatusPublished,
		})
		require.NoError(t, err)
		require.NotNil(t, post.PublishedAt)
	})

	t.Run("nil tags keep the existing set", func(t *testing.T) {
		t.Parallel()
		var saved *models.Post
		postRepo := noopPostRepo()
		postRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) {
			if saved != nil {
				return saved, nil
			}
			return existing(), nil
		}
		postRepo.updateFn = func(_ context.Context, p *models.Post, _ string) error { saved = p; return nil }
		findOrCreateCalled := false
		tagRepo := noopTagRepo()
		orig := tagRepo.findOrCreateFn
		tagRepo.findOrCreateFn = func(ctx context.Context, names []string) ([]models.Tag, error) {
			findOrCreateCalled = true
			return orig(ctx, names)
		}
		svc := NewPostService(postRepo, tagRepo, nil)
		post, err := svc.UpdatePost(context.Background(), UpdatePostInput{
			UserID:  2,
			Slug:    "original-title",
			Title:   "Original Title",
			Content: "the original body, long enough to validate",
			Tags:    nil,
		})
		require.NoError(t, err)
		assert.False(t, findOrCreateCalled)
		require.Len(t, post.Tags, 1)
		assert.Equal(t, "go", post.Tags[0].Name)
	})
}

func TestPostService_DeletePost_AuthorOnly(t *testing.T) {
	t.Parallel()

	postRepo := noopPostRepo()
	postRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) {
		return &models.Post{ID: 1, Slug: "mine", AuthorID: 2, Status: models.PostStatusPublished}, nil
	}
	deleted := false
	postRepo.deleteFn = func(_ context.Context, _ *models.Post) error { deleted = true; return nil }
	svc := NewPostService(postRepo, noopTagRepo(), nil)

	err := svc.DeletePost(context.Background(), "mine", 9)
	assertForbiddenError(t, err)
	assert.False(t, deleted)

	require.NoError(t, svc.DeletePost(context.Background(), "mine", 2))
	assert.True(t, deleted)
}

func TestPostService_ListUserPosts_UnknownUser(t *testing.T) {
	t.Parallel()

	userRepo := noopUserRepo()
	userRepo.getByUsernameFn = func(_ context.Context, _ string) (*models.User, error) { return nil, nil }
	svc := NewPostService(noopPostRepo(), noopTagRepo(), userRepo)
	_, _, err := svc.ListUserPosts(context.Background(), "ghost", 10, 0)
	assertNotFoundError(t, err)
}

func TestPostService_SimilarPosts(t *testing.T) {
	t.Parallel()

	postRepo := noopPostRepo()
	postRepo.getBySlugFn = func(_ context.Context, _ string) (*models.Post, error) {
		return &models.Post{
			ID:     4,
			Slug:   "live",
			Status: models.PostStatusPublished,
			Tags:   []models.Tag{{ID: 2}, {ID: 5}},
		}, nil
	}
	var gotPostID uint
	var gotTagIDs []uint
	var gotLimit int
	postRepo.similarFn = func(_ context.Context, postID uint, tagIDs []uint, limit int) ([]models.Post, error) {
		gotPostID = postID
		gotTagIDs = tagIDs
		gotLimit = limit
		return []models.Post{{ID: 11}}, nil
	}

	svc := NewPostService(postRepo, noopTagRepo(), nil)
	posts, err := svc.SimilarPosts(context.Background(), "live", 0)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Equal(t, uint(4), gotPostID)
	assert.Equal(t, []uint{2, 5}, gotTagIDs)
	assert.Equal(t, SimilarPostsLimit, gotLimit)
}
