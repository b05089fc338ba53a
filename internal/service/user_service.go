// Package service contains the application's business logic, sitting between
// HTTP handlers and repositories.
package service

import (
	"context"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

type UserService struct {
	userRepo  repository.UserRepository
	avatarURL func(path string) string
}

// UpdateProfileInput carries the editable account and profile fields. Nil
// pointers mean "leave unchanged"; empty strings clear the field.
type UpdateProfileInput struct {
	UserID    uint
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Bio       *string
	Location  *string
	BirthDate *time.Time
}

func NewUserService(userRepo repository.UserRepository, avatarURL func(path string) string) *UserService {
	if avatarURL == nil {
		avatarURL = func(string) string { return "" }
	}
	return &UserService{userRepo: userRepo, avatarURL: avatarURL}
}

// GetProfile returns the user with their profile, the avatar URL resolved.
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByIDWithProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.resolveAvatar(user)
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile validates every submitted field, collecting per-field messages
// so a form can render all of them at once, then saves user and profile
// atomically.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByIDWithProfile(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	fields := models.FieldErrors{}

	if in.Username != nil {
		username := validation.NormalizeUsername(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			fields.Add("username", err.Error())
		} else if username != user.Username {
			taken, err := s.userRepo.UsernameTaken(ctx, username, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				fields.Add("username", "A user with that username already exists.")
			}
		}
		user.Username = username
	}

	if in.Email != nil {
		email := validation.NormalizeEmail(*in.Email)
		if err := validation.ValidateEmail(email); err != nil {
			fields.Add("email", err.Error())
		} else if email != user.Email {
			taken, err := s.userRepo.EmailTaken(ctx, email, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				fields.Add("email", "A user with that email already exists.")
			}
		}
		user.Email = email
	}

	if in.FirstName != nil {
		if len(*in.FirstName) > 150 {
			fields.Add("first_name", "First name must not exceed 150 characters")
		}
		user.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		if len(*in.LastName) > 150 {
			fields.Add("last_name", "Last name must not exceed 150 characters")
		}
		user.LastName = *in.LastName
	}

	if user.Profile == nil {
		return nil, models.NewNotFoundError("Profile", in.UserID)
	}

	if in.Bio != nil {
		if err := validation.ValidateBio(*in.Bio); err != nil {
			fields.Add("bio", err.Error())
		}
		user.Profile.Bio = *in.Bio
	}
	if in.Location != nil {
		if err := validation.ValidateLocation(*in.Location); err != nil {
			fields.Add("location", err.Error())
		}
		user.Profile.Location = *in.Location
	}
	if in.BirthDate != nil {
		if err := validation.ValidateBirthDate(*in.BirthDate); err != nil {
			fields.Add("birth_date", err.Error())
		}
		user.Profile.BirthDate = in.BirthDate
	}

	if fields.HasErrors() {
		return nil, models.NewFieldValidationError(fields)
	}

	if err := s.userRepo.UpdateWithProfile(ctx, user); err != nil {
		return nil, err
	}

	updated, err := s.userRepo.GetByIDWithProfile(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	s.resolveAvatar(updated)
	return updated, nil
}

func (s *UserService) resolveAvatar(user *models.User) {
	if user.Profile != nil && user.Profile.AvatarPath != "" {
		user.Profile.AvatarURL = s.avatarURL(user.Profile.AvatarPath)
	}
}
