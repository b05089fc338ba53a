package service

import (
	"context"
	"log/slog"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
)

type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// Dispatch records a notification best-effort. Self-actions are dropped, and
// a failed insert only logs: the comment or like that triggered it has
// already happened and must not be rolled back over fan-out trouble.
func (s *NotificationService) Dispatch(ctx context.Context, n *models.Notification) {
	if n == nil || n.RecipientID == 0 || n.RecipientID == n.ActorID {
		return
	}
	n.Unread = true

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		middleware.Logger.WarnContext(ctx, "notification dispatch failed",
			slog.String("verb", n.Verb),
			slog.Any("recipient_id", n.RecipientID),
			slog.String("error", err.Error()))
		return
	}
	observability.NotificationsCreated.WithLabelValues(n.Verb).Inc()
}

func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, int64, error) {
	return s.notificationRepo.ListByRecipient(ctx, userID, unreadOnly, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

// MarkAllRead returns how many notifications were flipped.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.UnreadCount(ctx, userID)
}
