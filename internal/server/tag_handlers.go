package server

import (
	"github.com/gofiber/fiber/v2"
)

// AutocompleteTags handles GET /api/tags/autocomplete
// @Summary Tag autocomplete
// @Description Case-insensitive substring suggestions; queries shorter than two characters return an empty list
// @Tags tags
// @Produce json
// @Param q query string true "Search text, two characters minimum"
// @Success 200 {array} models.TagSuggestion
// @Router /tags/autocomplete [get]
func (s *Server) AutocompleteTags(c *fiber.Ctx) error {
	ctx := c.UserContext()

	suggestions, err := s.tagService.Autocomplete(ctx, c.Query("q"))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(suggestions)
}

// GetPopularTags handles GET /api/tags/popular
// @Summary Popular tags
// @Description Top ten tags by published post count
// @Tags tags
// @Produce json
// @Success 200 {array} models.Tag
// @Router /tags/popular [get]
func (s *Server) GetPopularTags(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tags, err := s.tagService.Popular(ctx)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(tags)
}

// GetTags handles GET /api/tags
// @Summary All tags
// @Description Every tag with its published post count, name ascending
// @Tags tags
// @Produce json
// @Success 200 {array} models.Tag
// @Router /tags [get]
func (s *Server) GetTags(c *fiber.Ctx) error {
	ctx := c.UserContext()

	tags, err := s.tagService.List(ctx)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(tags)
}
