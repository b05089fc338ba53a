package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkwell/internal/config"
	"inkwell/internal/featureflags"
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockNotificationRepository is a mock of the NotificationRepository interface
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByRecipient(ctx context.Context, recipientID uint, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	args := m.Called(ctx, recipientID, unreadOnly, limit, offset)
	return args.Get(0).([]models.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) MarkRead(ctx context.Context, id, recipientID uint) error {
	args := m.Called(ctx, id, recipientID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) UnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	args := m.Called(ctx, recipientID)
	return args.Get(0).(int64), args.Error(1)
}

func notificationServer(repo *MockNotificationRepository) *Server {
	s := &Server{
		config:           &config.Config{JWTSecret: "test_secret"},
		notificationRepo: repo,
	}
	s.notificationService = service.NewNotificationService(repo)
	return s
}

func TestGetNotifications(t *testing.T) {
	t.Run("full list", func(t *testing.T) {
		repo := new(MockNotificationRepository)
		s := notificationServer(repo)

		repo.On("ListByRecipient", mock.Anything, uint(1), false, defaultPageSize, 0).
			Return([]models.Notification{
				{ID: 2, RecipientID: 1, ActorID: 5, Verb: models.VerbCommented, Unread: true},
				{ID: 1, RecipientID: 1, ActorID: 6, Verb: models.VerbLikedComment, Unread: false},
			}, int64(2), nil)

		app := fiber.New()
		app.Get("/api/notifications", asUser(1, s.GetNotifications))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(2), body["count"])
		results := body["results"].([]interface{})
		require.Len(t, results, 2)
		first := results[0].(map[string]interface{})
		assert.Equal(t, models.VerbCommented, first["verb"])
		assert.Equal(t, true, first["unread"])
	})

	t.Run("unread filter", func(t *testing.T) {
		repo := new(MockNotificationRepository)
		s := notificationServer(repo)

		repo.On("ListByRecipient", mock.Anything, uint(1), true, defaultPageSize, 0).
			Return([]models.Notification{
				{ID: 2, RecipientID: 1, ActorID: 5, Verb: models.VerbCommented, Unread: true},
			}, int64(1), nil)

		app := fiber.New()
		app.Get("/api/notifications", asUser(1, s.GetNotifications))

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/notifications?unread=1", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, float64(1), body["count"])
		repo.AssertExpectations(t)
	})
}

func TestGetUnreadCount(t *testing.T) {
	repo := new(MockNotificationRepository)
	s := notificationServer(repo)

	repo.On("UnreadCount", mock.Anything, uint(1)).Return(int64(4), nil)

	app := fiber.New()
	app.Get("/api/notifications/unread-count", asUser(1, s.GetUnreadCount))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/notifications/unread-count", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(4), body["count"])
}

func TestMarkNotificationRead(t *testing.T) {
	t.Run("own notification", func(t *testing.T) {
		repo := new(MockNotificationRepository)
		s := notificationServer(repo)

		repo.On("MarkRead", mock.Anything, uint(2), uint(1)).Return(nil)

		app := fiber.New()
		app.Post("/api/notifications/:id/read", asUser(1, s.MarkNotificationRead))

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/notifications/2/read", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, true, body["success"])
		repo.AssertExpectations(t)
	})

	t.Run("someone else's notification", func(t *testing.T) {
		repo := new(MockNotificationRepository)
		s := notificationServer(repo)

		repo.On("MarkRead", mock.Anything, uint(2), uint(8)).
			Return(models.NewNotFoundError("Notification", uint(2)))

		app := fiber.New()
		app.Post("/api/notifications/:id/read", asUser(8, s.MarkNotificationRead))

		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/notifications/2/read", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestMarkAllNotificationsRead(t *testing.T) {
	repo := new(MockNotificationRepository)
	s := notificationServer(repo)

	repo.On("MarkAllRead", mock.Anything, uint(1)).Return(int64(3), nil)

	app := fiber.New()
	app.Post("/api/notifications/read-all", asUser(1, s.MarkAllNotificationsRead))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/notifications/read-all", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(3), body["marked"])
}

func TestGetFeatureFlags(t *testing.T) {
	s := &Server{
		config:       &config.Config{JWTSecret: "test_secret"},
		featureFlags: featureflags.NewManager("registration_open=on,book_bulk_create=25%"),
	}

	app := fiber.New()
	app.Get("/api/admin/flags", asUser(1, s.GetFeatureFlags))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/admin/flags", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	flags := body["flags"].(map[string]interface{})
	assert.Equal(t, true, flags["registration_open"])
	assert.Contains(t, body["raw"], "book_bulk_create")
}
