package server

import (
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List published posts
// @Description Published posts newest first, optionally narrowed by ?tag= or ?q=
// @Tags posts
// @Produce json
// @Param page query int false "Page number"
// @Param tag query string false "Exact tag name"
// @Param q query string false "Search over title, content, excerpt and tags"
// @Success 200 {object} models.Page
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()

	// Post listings page at a fixed size; page_size is not honored here.
	params := parsePageParams(c, postsPerPage, postsPerPage)
	params.PageSize = postsPerPage

	posts, count, err := s.postService.ListPosts(ctx, repository.PostListOptions{
		Tag:    c.Query("tag"),
		Query:  c.Query("q"),
		Limit:  params.PageSize,
		Offset: params.Offset(),
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(s.buildPage(c, count, params, posts))
}

// GetPost handles GET /api/posts/:slug
// @Summary Get a post
// @Description Published post with author, tags and comment count; drafts are visible to their author only
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	viewerID, _ := s.optionalUserID(c)

	post, err := s.postService.GetPost(ctx, c.Params("slug"), viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(post)
}

// GetSimilarPosts handles GET /api/posts/:slug/similar
// @Summary Similar posts
// @Description Up to four published posts sharing the most tags with this one
// @Tags posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {array} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug}/similar [get]
func (s *Server) GetSimilarPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	viewerID, _ := s.optionalUserID(c)

	posts, err := s.postService.SimilarPosts(ctx, c.Params("slug"), viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Description Create a draft or published post; the slug is derived from the title
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{title=string,content=string,excerpt=string,status=string,tags=[]string} true "Post fields"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ValidationErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var req struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Excerpt string   `json:"excerpt"`
		Status  string   `json:"status"`
		Tags    []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(ctx, service.CreatePostInput{
		AuthorID: userID,
		Title:    req.Title,
		Content:  req.Content,
		Excerpt:  req.Excerpt,
		Status:   req.Status,
		Tags:     req.Tags,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:slug
// @Summary Update a post
// @Description Author-only edit; renaming the title re-derives the slug
// @Tags posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param request body object{title=string,content=string,excerpt=string,status=string,tags=[]string} true "Post fields"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var req struct {
		Title   string   `json:"title"`
		Content string   `json:"content"`
		Excerpt string   `json:"excerpt"`
		Status  string   `json:"status"`
		Tags    []string `json:"tags"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(ctx, service.UpdatePostInput{
		UserID:  userID,
		Slug:    c.Params("slug"),
		Title:   req.Title,
		Content: req.Content,
		Excerpt: req.Excerpt,
		Status:  req.Status,
		Tags:    req.Tags,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:slug
// @Summary Delete a post
// @Description Author-only; comments and likes cascade
// @Tags posts
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{slug} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	if err := s.postService.DeletePost(ctx, c.Params("slug"), userID); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyPosts handles GET /api/users/me/posts
// @Summary Own posts
// @Description The authenticated user's posts including drafts, newest first
// @Tags posts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Success 200 {object} models.Page
// @Router /users/me/posts [get]
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	params := parsePageParams(c, postsPerPage, postsPerPage)
	params.PageSize = postsPerPage

	posts, count, err := s.postService.ListMyPosts(ctx, userID, params.PageSize, params.Offset())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(s.buildPage(c, count, params, posts))
}

// GetUserPosts handles GET /api/users/:username/posts
// @Summary Posts by user
// @Description Published posts authored by the given username
// @Tags posts
// @Produce json
// @Param username path string true "Username"
// @Param page query int false "Page number"
// @Success 200 {object} models.Page
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()

	params := parsePageParams(c, postsPerPage, postsPerPage)
	params.PageSize = postsPerPage

	posts, count, err := s.postService.ListUserPosts(ctx, c.Params("username"), params.PageSize, params.Offset())
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(s.buildPage(c, count, params, posts))
}
