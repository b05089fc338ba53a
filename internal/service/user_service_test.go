package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	createFn             func(context.Context, *models.User) error
	getByIDFn            func(context.Context, uint) (*models.User, error)
	getByIDWithProfileFn func(context.Context, uint) (*models.User, error)
	getByEmailFn         func(context.Context, string) (*models.User, error)
	getByUsernameFn      func(context.Context, string) (*models.User, error)
	usernameTakenFn      func(context.Context, string, uint) (bool, error)
	emailTakenFn         func(context.Context, string, uint) (bool, error)
	updateFn             func(context.Context, *models.User) error
	updateWithProfileFn  func(context.Context, *models.User) error
	updateProfileFn      func(context.Context, *models.Profile) error
	updateAvatarPathFn   func(context.Context, uint, string) error
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByIDWithProfile(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDWithProfileFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	return s.usernameTakenFn(ctx, username, excludeID)
}
func (s *userRepoStub) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	return s.emailTakenFn(ctx, email, excludeID)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) UpdateWithProfile(ctx context.Context, user *models.User) error {
	return s.updateWithProfileFn(ctx, user)
}
func (s *userRepoStub) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return s.updateProfileFn(ctx, profile)
}
func (s *userRepoStub) UpdateAvatarPath(ctx context.Context, userID uint, path string) error {
	return s.updateAvatarPathFn(ctx, userID, path)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		createFn:             func(_ context.Context, _ *models.User) error { return nil },
		getByIDFn:            func(_ context.Context, _ uint) (*models.User, error) { return &models.User{}, nil },
		getByIDWithProfileFn: func(_ context.Context, _ uint) (*models.User, error) { return &models.User{}, nil },
		getByEmailFn:         func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByUsernameFn:      func(_ context.Context, _ string) (*models.User, error) { return &models.User{}, nil },
		usernameTakenFn:      func(_ context.Context, _ string, _ uint) (bool, error) { return false, nil },
		emailTakenFn:         func(_ context.Context, _ string, _ uint) (bool, error) { return false, nil },
		updateFn:             func(_ context.Context, _ *models.User) error { return nil },
		updateWithProfileFn:  func(_ context.Context, _ *models.User) error { return nil },
		updateProfileFn:      func(_ context.Context, _ *models.Profile) error { return nil },
		updateAvatarPathFn:   func(_ context.Context, _ uint, _ string) error { return nil },
	}
}

func ptr[T any](v T) *T { return &v }

func profileUser() *models.User {
	return &models.User{
		ID:       3,
		Username: "wren",
		Email:    "wren@example.com",
		Profile:  &models.Profile{ID: 30, UserID: 3, Bio: "hi", Location: "Oslo"},
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()

	t.Run("saves user and profile together", func(t *testing.T) {
		t.Parallel()
		current := profileUser()
		var saved *models.User
		userRepo := noopUserRepo()
		userRepo.getByIDWithProfileFn = func(_ context.Context, _ uint) (*models.User, error) {
			if saved != nil {
				return saved, nil
			}
			return current, nil
		}
		userRepo.updateWithProfileFn = func(_ context.Context, u *models.User) error { saved = u; return nil }

		svc := NewUserService(userRepo, nil)
		birth := time.Date(1990, 4, 2, 0, 0, 0, 0, time.UTC)
		user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:    3,
			FirstName: ptr("Wren"),
			Bio:       ptr("gardener, occasional writer"),
			BirthDate: ptr(birth),
		})
		require.NoError(t, err)
		assert.Equal(t, "Wren", user.FirstName)
		assert.Equal(t, "gardener, occasional writer", user.Profile.Bio)
		require.NotNil(t, user.Profile.BirthDate)
		assert.True(t, user.Profile.BirthDate.Equal(birth))
		// untouched fields keep their values
		assert.Equal(t, "wren", user.Username)
		assert.Equal(t, "Oslo", user.Profile.Location)
	})

	t.Run("taken username is a field error", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByIDWithProfileFn = func(_ context.Context, _ uint) (*models.User, error) { return profileUser(), nil }
		userRepo.usernameTakenFn = func(_ context.Context, username string, excludeID uint) (bool, error) {
			assert.Equal(t, "finch", username)
			assert.Equal(t, uint(3), excludeID)
			return true, nil
		}
		saved := false
		userRepo.updateWithProfileFn = func(_ context.Context, _ *models.User) error { saved = true; return nil }

		svc := NewUserService(userRepo, nil)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 3, Username: ptr("finch")})
		assertFieldError(t, err, "username")
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Contains(t, appErr.Fields["username"], "A user with that username already exists.")
		assert.False(t, saved)
	})

	t.Run("unchanged username skips the taken check", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByIDWithProfileFn = func(_ context.Context, _ uint) (*models.User, error) { return profileUser(), nil }
		checked := false
		userRepo.usernameTakenFn = func(_ context.Context, _ string, _ uint) (bool, error) { checked = true; return true, nil }

		svc := NewUserService(userRepo, nil)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 3, Username: ptr(" wren ")})
		require.NoError(t, err)
		assert.False(t, checked)
	})

	t.Run("email is normalized before the taken check", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByIDWithProfileFn = func(_ context.Context, _ uint) (*models.User, error) { return profileUser(), nil }
		var checkedEmail string
		userRepo.emailTakenFn = func(_ context.Context, email string, _ uint) (bool, error) {
			checkedEmail = email
			return true, nil
		}

		svc := NewUserService(userRepo, nil)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 3, Email: ptr("  Wren@New.Example.COM ")})
		assertFieldError(t, err, "email")
		assert.Equal(t, "wren@new.example.com", checkedEmail)
	})

	t.Run("collects every invalid field at once", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByIDWithProfileFn = func(_ context.Context, _ uint) (*models.User, error) { return profileUser(), nil }

		svc := NewUserService(userRepo, nil)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:    3,
			Username:  ptr("x"),
			Email:     ptr("not-an-email"),
			Bio:       ptr(strings.Repeat("b", 501)),
			BirthDate: ptr(time.Now().Add(48 * time.Hour)),
		})
		require.Error(t, err)
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
		for _, field := range []string{"username", "email", "bio", "birth_date"} {
			assert.NotEmpty(t, appErr.Fields[field], "missing message for %q", field)
		}
	})

	t.Run("missing profile row is a 404", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByIDWithProfileFn = func(_ context.Context, _ uint) (*models.User, error) {
			return &models.User{ID: 3, Username: "wren", Email: "wren@example.com"}, nil
		}
		svc := NewUserService(userRepo, nil)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 3, Bio: ptr("hello")})
		assertNotFoundError(t, err)
	})
}

func TestUserService_GetProfile_ResolvesAvatarURL(t *testing.T) {
	t.Parallel()

	userRepo := noopUserRepo()
	userRepo.getByIDWithProfileFn = func(_ context.Context, _ uint) (*models.User, error) {
		u := profileUser()
		u.Profile.AvatarPath = "ab12cd34ef56ab12/avatar.jpg"
		return u, nil
	}
	svc := NewUserService(userRepo, func(path string) string { return "/media/avatars/" + path })

	user, err := svc.GetProfile(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "/media/avatars/ab12cd34ef56ab12/avatar.jpg", user.Profile.AvatarURL)
}
