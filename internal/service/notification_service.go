package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// NotificationService exposes the recipient-facing side of notifications.
// Creation happens inside transition transactions; this service only lists
// and acknowledges.
type NotificationService struct {
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(notifications repository.NotificationRepository, logger *zap.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger}
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, user *domain.User, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	result, err := s.notifications.ListByUser(ctx, user.ID, unreadOnly, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return result, nil
}

// UnreadCount returns how many notifications the caller has not read.
func (s *NotificationService) UnreadCount(ctx context.Context, user *domain.User) (int64, error) {
	count, err := s.notifications.UnreadCount(ctx, user.ID)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

// MarkRead acknowledges one notification owned by the caller.
func (s *NotificationService) MarkRead(ctx context.Context, user *domain.User, notificationID int64) error {
	err := s.notifications.MarkRead(ctx, user.ID, notificationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("notification", map[string]any{"notification_id": notificationID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// MarkAllRead acknowledges every unread notification of the caller.
func (s *NotificationService) MarkAllRead(ctx context.Context, user *domain.User) error {
	if err := s.notifications.MarkAllRead(ctx, user.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
