package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// Register handles POST /api/users/register
// @Summary Register a new account
// @Description Create a user account with an empty profile. Does not log the user in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string,first_name=string,last_name=string} true "Registration request"
// @Success 201 {object} object{message=string,user=models.User}
// @Failure 400 {object} models.ValidationErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /users/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if !s.featureFlags.EnabledDefault(featureflags.FlagRegistrationOpen, 0, true) {
		return models.RespondWithError(c, fiber.StatusForbidden, &models.AppError{
			Code:    "REGISTRATION_CLOSED",
			Message: "Registration is currently closed",
		})
	}

	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	fields := models.FieldErrors{}

	if username == "" {
		fields.Add("username", "This field is required.")
	} else if err := validation.ValidateUsername(username); err != nil {
		fields.Add("username", err.Error())
	} else if taken, err := s.userRepo.UsernameTaken(ctx, username, 0); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	} else if taken {
		fields.Add("username", "A user with that username already exists.")
	}

	if email == "" {
		fields.Add("email", "This field is required.")
	} else if err := validation.ValidateEmail(email); err != nil {
		fields.Add("email", err.Error())
	} else if taken, err := s.userRepo.EmailTaken(ctx, email, 0); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	} else if taken {
		fields.Add("email", "A user with that email already exists.")
	}

	if req.Password == "" {
		fields.Add("password", "This field is required.")
	} else if err := validation.ValidatePassword(req.Password); err != nil {
		fields.Add("password", err.Error())
	}

	if len(req.FirstName) > 150 {
		fields.Add("first_name", "First name must not exceed 150 characters")
	}
	if len(req.LastName) > 150 {
		fields.Add("last_name", "Last name must not exceed 150 characters")
	}

	if fields.HasErrors() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(fields))
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	// The empty profile rides along in the same insert transaction.
	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Profile:   &models.Profile{},
	}

	if createErr := s.userRepo.Create(ctx, user); createErr != nil {
		var appErr *models.AppError
		if errors.As(createErr, &appErr) && appErr.Code == "CONFLICT" {
			// Lost a registration race; attribute the collision precisely.
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewFieldValidationError(s.registrationConflictFields(c, username, email)))
		}
		return models.RespondWithError(c, fiber.StatusInternalServerError, createErr)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created. Please log in.",
		"user":    user,
	})
}

// registrationConflictFields re-checks uniqueness after a constraint
// violation so the losing request still reports the offending field.
func (s *Server) registrationConflictFields(c *fiber.Ctx, username, email string) models.FieldErrors {
	ctx := c.UserContext()
	fields := models.FieldErrors{}
	if taken, err := s.userRepo.UsernameTaken(ctx, username, 0); err == nil && taken {
		fields.Add("username", "A user with that username already exists.")
	}
	if taken, err := s.userRepo.EmailTaken(ctx, email, 0); err == nil && taken {
		fields.Add("email", "A user with that email already exists.")
	}
	if !fields.HasErrors() {
		fields.Add("username", "A user with that username already exists.")
	}
	return fields
}

// Login handles POST /api/users/login
// @Summary User login
// @Description Authenticate with username and password, returning a JWT
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string,user=models.User}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /users/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// Logout handles POST /api/users/logout
// @Summary Log out
// @Description Revoke the presented token by blacklisting its jti until expiry
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, err := s.bearerClaims(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	jti, expiry, err := s.revocableToken(c, claims)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	if err := s.blacklistJTI(c, jti, expiry); err != nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"message": "Logged out successfully."})
}

// Refresh handles POST /api/users/refresh
// @Summary Refresh token
// @Description Issue a fresh 7-day token and revoke the one presented
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{token=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /users/refresh [post]
func (s *Server) Refresh(c *fiber.Ctx) error {
	ctx := c.UserContext()

	claims, err := s.bearerClaims(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	jti, expiry, err := s.revocableToken(c, claims)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	sub, _ := claims["sub"].(string)
	user, err := s.userFromSubject(ctx, sub)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	// Rotate: the old token stops working the moment the new one exists.
	if err := s.blacklistJTI(c, jti, expiry); err != nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{"token": token})
}

// GetCurrentUser handles GET /api/users/me
// @Summary Current user
// @Description Return the authenticated user with profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/me [get]
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	user, err := s.userService.GetProfile(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(user)
}

// revocableToken extracts the jti and expiry from validated claims and
// rejects tokens that were already revoked.
func (s *Server) revocableToken(c *fiber.Ctx, claims map[string]interface{}) (string, time.Time, error) {
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return "", time.Time{}, models.NewUnauthorizedError("Invalid token claims")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return "", time.Time{}, models.NewUnauthorizedError("Invalid token claims")
	}

	if s.redis != nil {
		revoked, err := s.redis.Exists(c.Context(), cache.BlacklistKey(jti)).Result()
		if err == nil && revoked > 0 {
			return "", time.Time{}, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	return jti, time.Unix(int64(exp), 0), nil
}

// blacklistJTI stores the jti in Redis until the token would have expired.
func (s *Server) blacklistJTI(c *fiber.Ctx, jti string, expiry time.Time) error {
	if s.redis == nil {
		return fmt.Errorf("token revocation store unavailable")
	}
	ttl := time.Until(expiry)
	if ttl <= 0 {
		// Already expired; nothing to revoke.
		return nil
	}
	return s.redis.Set(c.Context(), cache.BlacklistKey(jti), "1", ttl).Err()
}

// userFromSubject resolves the sub claim to a live account. A token whose
// account disappeared no longer refreshes.
func (s *Server) userFromSubject(ctx context.Context, sub string) (*models.User, error) {
	id, err := strconv.ParseUint(sub, 10, 32)
	if err != nil {
		return nil, models.NewUnauthorizedError("Invalid subject claim")
	}
	user, err := s.userRepo.GetByID(ctx, uint(id))
	if err != nil || user == nil {
		return nil, models.NewUnauthorizedError("Invalid or expired token")
	}
	return user, nil
}
