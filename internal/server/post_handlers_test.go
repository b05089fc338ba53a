package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPostRepository is a mock of the PostRepository interface
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) ListPublished(ctx context.Context, opts repository.PostListOptions) ([]models.Post, int64, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).([]models.Post), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostRepository) ListByAuthor(ctx context.Context, authorID uint, includeDrafts bool, limit, offset int) ([]models.Post, int64, error) {
	args := m.Called(ctx, authorID, includeDrafts, limit, offset)
	return args.Get(0).([]models.Post), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostRepository) Similar(ctx context.Context, postID uint, tagIDs []uint, limit int) ([]models.Post, error) {
	args := m.Called(ctx, postID, tagIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Post), args.Error(1)
}

func (m *MockPostRepository) SlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) IncrementViewCount(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post, oldSlug string) error {
	args := m.Called(ctx, post, oldSlug)
	return args.Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func postServer(postRepo *MockPostRepository, tagRepo *MockTagRepository, userRepo *MockUserRepository) *Server {
	s := &Server{
		config:   &config.Config{JWTSecret: "test_secret"},
		postRepo: postRepo,
		tagRepo:  tagRepo,
		userRepo: userRepo,
	}
	s.postService = service.NewPostService(postRepo, tagRepo, userRepo)
	return s
}

func TestGetPosts_PagesAtFixedSize(t *testing.T) {
	postRepo := new(MockPostRepository)
	s := postServer(postRepo, new(MockTagRepository), new(MockUserRepository))

	var captured repository.PostListOptions
	postRepo.On("ListPublished", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(1).(repository.PostListOptions)
	}).Return([]models.Post{}, int64(13), nil)

	app := fiber.New()
	app.Get("/api/posts", s.GetPosts)

	// page_size is ignored for the blog listing; six per page always.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts?page=2&page_size=50&tag=go&q=fiber", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "go", captured.Tag)
	assert.Equal(t, "fiber", captured.Query)
	assert.Equal(t, postsPerPage, captured.Limit)
	assert.Equal(t, postsPerPage, captured.Offset)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(13), body["count"])
	assert.Contains(t, body["next"], "page=3")
}

func TestGetPost(t *testing.T) {
	t.Run("published post bumps view count", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		s := postServer(postRepo, new(MockTagRepository), new(MockUserRepository))

		postRepo.On("GetBySlug", mock.Anything, "my-first-post").Return(&models.Post{
			ID: 3, Slug: "my-first-post", Title: "My First Post",
			Status: models.PostStatusPublished, AuthorID: 2, ViewCount: 41,
		}, nil)
		postRepo.On("IncrementViewCount", mock.Anything, uint(3)).Return(nil)

		app := fiber.New()
		app.Get("/api/posts/:slug", s.GetPost)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/my-first-post", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(42), body["view_count"])
		postRepo.AssertExpectations(t)
	})

	t.Run("draft invisible to other users", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		s := postServer(postRepo, new(MockTagRepository), new(MockUserRepository))

		postRepo.On("GetBySlug", mock.Anything, "unfinished").Return(&models.Post{
			ID: 9, Slug: "unfinished", Status: models.PostStatusDraft, AuthorID: 2,
		}, nil)

		app := fiber.New()
		app.Get("/api/posts/:slug", s.GetPost)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/unfinished", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("draft visible to its author without view bump", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		s := postServer(postRepo, new(MockTagRepository), new(MockUserRepository))

		postRepo.On("GetBySlug", mock.Anything, "unfinished").Return(&models.Post{
			ID: 9, Slug: "unfinished", Status: models.PostStatusDraft, AuthorID: 2,
		}, nil)

		token, err := s.generateToken(&models.User{ID: 2, Username: "wren"})
		require.NoError(t, err)

		app := fiber.New()
		app.Get("/api/posts/:slug", s.GetPost)

		req := httptest.NewRequest(http.MethodGet, "/api/posts/unfinished", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
		postRepo.AssertNotCalled(t, "IncrementViewCount", mock.Anything, mock.Anything)
	})
}

func TestGetSimilarPosts(t *testing.T) {
	postRepo := new(MockPostRepository)
	s := postServer(postRepo, new(MockTagRepository), new(MockUserRepository))

	postRepo.On("GetBySlug", mock.Anything, "my-first-post").Return(&models.Post{
		ID: 3, Slug: "my-first-post", Status: models.PostStatusPublished, AuthorID: 2,
		Tags: []models.Tag{{ID: 1, Name: "go"}, {ID: 2, Name: "fiber"}},
	}, nil)
	postRepo.On("Similar", mock.Anything, uint(3), []uint{1, 2}, service.SimilarPostsLimit).
		Return([]models.Post{{ID: 4, Slug: "another-post"}}, nil)

	app := fiber.New()
	app.Get("/api/posts/:slug/similar", s.GetSimilarPosts)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/posts/my-first-post/similar", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var posts []map[string]interface{}
	decodeInto(t, resp, &posts)
	require.Len(t, posts, 1)
	assert.Equal(t, "another-post", posts[0]["slug"])
}

func TestCreatePost(t *testing.T) {
	t.Run("published post gets slug and excerpt", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		tagRepo := new(MockTagRepository)
		s := postServer(postRepo, tagRepo, new(MockUserRepository))

		postRepo.On("SlugTaken", mock.Anything, "shipping-my-side-project", uint(0)).Return(false, nil)
		tagRepo.On("FindOrCreate", mock.Anything, []string{"go", "indie"}).
			Return([]models.Tag{{ID: 1, Name: "go"}, {ID: 2, Name: "indie"}}, nil)
		postRepo.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			post := args.Get(1).(*models.Post)
			assert.Equal(t, "shipping-my-side-project", post.Slug)
			assert.NotNil(t, post.PublishedAt)
			assert.Len(t, post.Tags, 2)
			post.ID = 21
		}).Return(nil)
		postRepo.On("GetBySlug", mock.Anything, "shipping-my-side-project").Return(&models.Post{
			ID: 21, Slug: "shipping-my-side-project", Title: "Shipping My Side Project",
			Status: models.PostStatusPublished, AuthorID: 1,
		}, nil)

		app := fiber.New()
		app.Post("/api/posts", asUser(1, s.CreatePost))

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/posts", map[string]interface{}{
			"title":   "Shipping My Side Project",
			"content": "After three months of evenings and weekends it finally runs.",
			"status":  "published",
			"tags":    []string{"go", "indie"},
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "shipping-my-side-project", body["slug"])
	})

	t.Run("slug collision appends suffix", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		tagRepo := new(MockTagRepository)
		s := postServer(postRepo, tagRepo, new(MockUserRepository))

		postRepo.On("SlugTaken", mock.Anything, "shipping-my-side-project", uint(0)).Return(true, nil)
		postRepo.On("SlugTaken", mock.Anything, "shipping-my-side-project-1", uint(0)).Return(false, nil)
		tagRepo.On("FindOrCreate", mock.Anything, mock.Anything).Return([]models.Tag{}, nil)
		postRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
		postRepo.On("GetBySlug", mock.Anything, "shipping-my-side-project-1").Return(&models.Post{
			ID: 22, Slug: "shipping-my-side-project-1",
		}, nil)

		app := fiber.New()
		app.Post("/api/posts", asUser(1, s.CreatePost))

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/posts", map[string]interface{}{
			"title":   "Shipping My Side Project",
			"content": "Same title, different story entirely this time.",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "shipping-my-side-project-1", body["slug"])
	})

	t.Run("validation failures itemized", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		s := postServer(postRepo, new(MockTagRepository), new(MockUserRepository))

		app := fiber.New()
		app.Post("/api/posts", asUser(1, s.CreatePost))

		resp, err := app.Test(jsonRequest(http.MethodPost, "/api/posts", map[string]interface{}{
			"title": "Hi", "content": "x", "status": "pending",
		}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		errs := body["errors"].(map[string]interface{})
		assert.Contains(t, errs, "title")
		assert.Contains(t, errs, "content")
		assert.Contains(t, errs, "status")
	})
}

func TestUpdatePost_AuthorOnly(t *testing.T) {
	postRepo := new(MockPostRepository)
	s := postServer(postRepo, new(MockTagRepository), new(MockUserRepository))

	postRepo.On("GetBySlug", mock.Anything, "my-first-post").Return(&models.Post{
		ID: 3, Slug: "my-first-post", Title: "My First Post",
		Status: models.PostStatusPublished, AuthorID: 2,
	}, nil)

	app := fiber.New()
	app.Put("/api/posts/:slug", asUser(8, s.UpdatePost))

	resp, err := app.Test(jsonRequest(http.MethodPut, "/api/posts/my-first-post", map[string]interface{}{
		"title": "Someone Else's Post Now", "content": "Valid content, wrong author though.",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "You can only edit your own posts", body["error"])
}

func TestDeletePost(t *testing.T) {
	postRepo := new(MockPostRepository)
	s := postServer(postRepo, new(MockTagRepository), new(MockUserRepository))

	post := &models.Post{ID: 3, Slug: "my-first-post", AuthorID: 1}
	postRepo.On("GetBySlug", mock.Anything, "my-first-post").Return(post, nil)
	postRepo.On("Delete", mock.Anything, post).Return(nil)

	app := fiber.New()
	app.Delete("/api/posts/:slug", asUser(1, s.DeletePost))

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/posts/my-first-post", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()
	postRepo.AssertExpectations(t)
}

func TestGetUserPosts(t *testing.T) {
	t.Run("published posts only", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		userRepo := new(MockUserRepository)
		s := postServer(postRepo, new(MockTagRepository), userRepo)

		userRepo.On("GetByUsername", mock.Anything, "wren").Return(&models.User{ID: 2, Username: "wren"}, nil)
		postRepo.On("ListByAuthor", mock.Anything, uint(2), false, postsPerPage, 0).
			Return([]models.Post{{ID: 3, Slug: "my-first-post"}}, int64(1), nil)

		app := fiber.New()
		app.Get("/api/users/:username/posts", s.GetUserPosts)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/wren/posts", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("unknown user", func(t *testing.T) {
		postRepo := new(MockPostRepository)
		userRepo := new(MockUserRepository)
		s := postServer(postRepo, new(MockTagRepository), userRepo)

		userRepo.On("GetByUsername", mock.Anything, "nobody").Return(nil, nil)

		app := fiber.New()
		app.Get("/api/users/:username/posts", s.GetUserPosts)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/nobody/posts", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestGetMyPosts_IncludesDrafts(t *testing.T) {
	postRepo := new(MockPostRepository)
	s := postServer(postRepo, new(MockTagRepository), new(MockUserRepository))

	postRepo.On("ListByAuthor", mock.Anything, uint(1), true, postsPerPage, 0).
		Return([]models.Post{
			{ID: 3, Slug: "my-first-post", Status: models.PostStatusPublished},
			{ID: 9, Slug: "unfinished", Status: models.PostStatusDraft},
		}, int64(2), nil)

	app := fiber.New()
	app.Get("/api/users/me/posts", asUser(1, s.GetMyPosts))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/me/posts", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["count"])
	postRepo.AssertExpectations(t)
}
