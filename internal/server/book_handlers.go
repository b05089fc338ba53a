package server

import (
	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetBooks handles GET /api/books
// @Summary List books
// @Description Filterable, searchable, orderable book list in the standard envelope
// @Tags books
// @Produce json
// @Param title query string false "Exact title"
// @Param author query int false "Author ID"
// @Param publication_year query int false "Exact publication year"
// @Param title_contains query string false "Title substring"
// @Param author_name query string false "Author name substring"
// @Param year_from query int false "Publication year lower bound"
// @Param year_to query int false "Publication year upper bound"
// @Param search query string false "Search over title and author name"
// @Param ordering query string false "Field to order by, - prefix for descending"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size, 100 maximum"
// @Success 200 {object} models.Page
// @Router /books [get]
func (s *Server) GetBooks(c *fiber.Ctx) error {
	ctx := c.UserContext()
	params := parsePageParams(c, defaultPageSize, maxPageSize)

	// Non-numeric values for numeric filters fall back to zero, which the
	// repository treats as the filter being absent.
	authorID := c.QueryInt("author", 0)
	if authorID < 0 {
		authorID = 0
	}

	books, count, err := s.bookService.ListBooks(ctx, repository.BookListOptions{
		Title:           c.Query("title"),
		AuthorID:        uint(authorID),
		PublicationYear: c.QueryInt("publication_year", 0),
		TitleContains:   c.Query("title_contains"),
		AuthorName:      c.Query("author_name"),
		YearFrom:        c.QueryInt("year_from", 0),
		YearTo:          c.QueryInt("year_to", 0),
		Search:          c.Query("search"),
		Ordering:        c.Query("ordering"),
		Limit:           params.PageSize,
		Offset:          params.Offset(),
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(s.buildPage(c, count, params, books))
}

// GetBook handles GET /api/books/:id
// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path int true "Book ID"
// @Success 200 {object} models.Book
// @Failure 404 {object} models.ErrorResponse
// @Router /books/{id} [get]
func (s *Server) GetBook(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	book, err := s.bookService.GetBook(ctx, id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(book)
}

// CreateBook handles POST /api/books
// @Summary Create a book
// @Description Title must be unique per author; publication year is bounded to [1000, current year]
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.BookInput true "Book fields"
// @Success 201 {object} models.Book
// @Failure 400 {object} models.ValidationErrorResponse
// @Router /books [post]
func (s *Server) CreateBook(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req service.BookInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	book, err := s.bookService.CreateBook(ctx, req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(book)
}

// UpdateBook handles PUT /api/books/:id
// @Summary Update a book
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Param request body service.BookInput true "Book fields"
// @Success 200 {object} models.Book
// @Failure 400 {object} models.ValidationErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /books/{id} [put]
func (s *Server) UpdateBook(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req service.BookInput
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	book, err := s.bookService.UpdateBook(ctx, id, req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(book)
}

// DeleteBook handles DELETE /api/books/:id
// @Summary Delete a book
// @Tags books
// @Security BearerAuth
// @Param id path int true "Book ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /books/{id} [delete]
func (s *Server) DeleteBook(c *fiber.Ctx) error {
	ctx := c.UserContext()

	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.bookService.DeleteBook(ctx, id); err != nil {
		return respondServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// BulkCreateBooks handles POST /api/books/bulk
// @Summary Bulk import books
// @Description Validates each row independently. All rows pass -> 201; a mix -> 207 with itemized errors; a missing, empty or oversized batch -> 400
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{books=[]service.BookInput} true "Rows to import"
// @Success 201 {object} models.BulkBookResult
// @Success 207 {object} models.BulkBookResult
// @Failure 400 {object} models.ValidationErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /books/bulk [post]
func (s *Server) BulkCreateBooks(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	if !s.featureFlags.EnabledDefault(featureflags.FlagBookBulkCreate, userID, true) {
		return models.RespondWithError(c, fiber.StatusForbidden, &models.AppError{
			Code:    "FEATURE_DISABLED",
			Message: "Bulk create is not enabled",
		})
	}

	var req struct {
		Books []service.BookInput `json:"books"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result, err := s.bookService.BulkCreateBooks(ctx, req.Books)
	if err != nil {
		return respondServiceError(c, err)
	}

	status := fiber.StatusMultiStatus
	if result.AllCreated() {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}
