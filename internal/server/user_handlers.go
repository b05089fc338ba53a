package server

import (
	"io"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/users/profile
// @Summary Own profile
// @Description Return the authenticated user together with the profile and avatar URL
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/profile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	user, err := s.userService.GetProfile(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// UpdateProfile handles PUT /api/users/profile
// @Summary Update profile
// @Description Update account and profile fields atomically; omitted fields keep their values
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string,email=string,first_name=string,last_name=string,bio=string,location=string,birth_date=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ValidationErrorResponse
// @Router /users/profile [put]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	var req struct {
		Username  *string `json:"username"`
		Email     *string `json:"email"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Bio       *string `json:"bio"`
		Location  *string `json:"location"`
		BirthDate *string `json:"birth_date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.UpdateProfileInput{
		UserID:    userID,
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Location:  req.Location,
	}

	if req.BirthDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.BirthDate)
		if err != nil {
			fields := models.FieldErrors{}
			fields.Add("birth_date", "Date has wrong format. Use YYYY-MM-DD.")
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewFieldValidationError(fields))
		}
		in.BirthDate = &parsed
	}

	user, err := s.userService.UpdateProfile(ctx, in)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// UpdateAvatar handles PUT /api/users/profile/avatar
// @Summary Upload avatar
// @Description Accept a JPEG/PNG/WebP image, downscale to fit 300x300 and store it
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} object{avatar_url=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/profile/avatar [put]
func (s *Server) UpdateAvatar(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Avatar file is required"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}

	url, err := s.avatarService.UpdateAvatar(ctx, service.UpdateAvatarInput{
		UserID:  userID,
		Content: content,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{"avatar_url": url})
}
