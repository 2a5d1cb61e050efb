package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tuition_market/internal/metrics"
	"github.com/Freeeeeet/tuition_market/internal/model"
	"go.uber.org/zap"
)

type NotificationService struct {
	notificationRepo NotificationStore
	relay            NotificationRelay
	logger           *zap.Logger
}

func NewNotificationService(notificationRepo NotificationStore, relay NotificationRelay, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		relay:            relay,
		logger:           logger,
	}
}

// Notify сохраняет уведомление. Ошибка только логируется: доставка
// уведомлений не влияет на результат операции, которая его вызвала.
func (s *NotificationService) Notify(ctx context.Context, userID int64, typ model.NotificationType, message, link string) {
	n := &model.Notification{
		UserID:  userID,
		Type:    typ,
		Message: message,
		Link:    link,
	}

	if err := s.notificationRepo.Create(ctx, n); err != nil {
		metrics.NotificationFailures.WithLabelValues(string(typ)).Inc()
		s.logger.Error("Failed to create notification",
			zap.Int64("user_id", userID),
			zap.String("type", string(typ)),
			zap.Error(err),
		)
		return
	}

	metrics.NotificationsCreated.WithLabelValues(string(typ)).Inc()
	s.logger.Debug("Notification created",
		zap.Int64("notification_id", n.ID),
		zap.Int64("user_id", userID),
		zap.String("type", string(typ)),
	)

	if s.relay != nil {
		s.relay.Enqueue(n)
	}
}

// List уведомления пользователя
func (s *NotificationService) List(ctx context.Context, filter model.NotificationFilter) ([]*model.Notification, model.Pagination, error) {
	items, total, err := s.notificationRepo.List(ctx, filter)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("list notifications: %w", err)
	}
	return items, filter.Page.Result(total), nil
}

// MarkRead отмечает уведомление прочитанным, только владелец
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID int64) (*model.Notification, error) {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if n == nil {
		return nil, notFound("Notification not found")
	}
	if n.UserID != userID {
		return nil, forbidden("Not authorized to update this notification")
	}

	if err := s.notificationRepo.MarkRead(ctx, notificationID); err != nil {
		return nil, fmt.Errorf("mark notification read: %w", err)
	}
	n.Read = true

	return n, nil
}

// MarkAllRead отмечает все непрочитанные уведомления пользователя
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	count, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}

	s.logger.Info("Notifications marked read",
		zap.Int64("user_id", userID),
		zap.Int64("count", count),
	)
	return nil
}
