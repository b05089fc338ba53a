package server

import (
	"inkwell/internal/models"
	"inkwell/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// GetAuthors handles GET /api/authors
// @Summary List authors
// @Description Searchable, orderable author list with per-author book counts
// @Tags authors
// @Produce json
// @Param search query string false "Name substring"
// @Param ordering query string false "Field to order by, - prefix for descending"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size, 100 maximum"
// @Success 200 {object} models.Page
// @Router /authors [get]
func (s *Server) GetAuthors(c *fiber.Ctx) error {
	ctx := c.UserContext()
	params := parsePageParams(c, defaultPageSize, maxPageSize)

	authors, count, err := s.authorService.ListAuthors(ctx, repository.AuthorListOptions{
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
		Limit:    params.PageSize,
		Offset:   params.Offset(),
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(s.buildPage(c, count, params, authors))
}

// GetAuthor handles GET /api/authors/:id
// @Summary Get an author
// @Description Author detail with their books nested
// @Tags authors
// @Produce json
// @Param id path int true "Author ID"
// @Success 200 {object} models.Author
// @Failure 404 {object} models.ErrorResponse
// @Router /authors/{id} [get]
func (s *Server) GetAuthor(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	author, err := s.authorService.GetAuthor(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(author)
}

// CreateAuthor handles POST /api/authors
// @Summary Create an author
// @Tags authors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{name=string} true "Author name"
// @Success 201 {object} models.Author
// @Failure 400 {object} models.ValidationErrorResponse
// @Router /authors [post]
func (s *Server) CreateAuthor(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	author, err := s.authorService.CreateAuthor(ctx, req.Name)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(author)
}

// UpdateAuthor handles PUT /api/authors/:id
// @Summary Rename an author
// @Tags authors
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Param request body object{name=string} true "Author name"
// @Success 200 {object} models.Author
// @Failure 400 {object} models.ValidationErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /authors/{id} [put]
func (s *Server) UpdateAuthor(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Name string `json:"name"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	author, err := s.authorService.UpdateAuthor(ctx, id, req.Name)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(author)
}

// DeleteAuthor handles DELETE /api/authors/:id
// @Summary Delete an author
// @Description Deleting an author also removes their books
// @Tags authors
// @Security BearerAuth
// @Param id path int true "Author ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /authors/{id} [delete]
func (s *Server) DeleteAuthor(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.authorService.DeleteAuthor(ctx, id); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
