// Package notify пересылает сохранённые уведомления в Telegram.
package notify

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tuition_market/internal/metrics"
	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const DefaultQueueSize = 256

// Sender часть *bot.Bot, которая нужна реле
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// TelegramRelay очередь доставки уведомлений в чаты пользователей.
// Enqueue не блокирует: при переполненной очереди уведомление только
// остаётся в базе.
type TelegramRelay struct {
	sender   Sender
	userRepo service.UserStore
	queue    chan *model.Notification
	logger   *zap.Logger
}

// NewBot создаёт клиента Telegram без обращения к getMe при старте
func NewBot(token string) (*bot.Bot, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

func NewTelegramRelay(sender Sender, userRepo service.UserStore, queueSize int, logger *zap.Logger) *TelegramRelay {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &TelegramRelay{
		sender:   sender,
		userRepo: userRepo,
		queue:    make(chan *model.Notification, queueSize),
		logger:   logger,
	}
}

func (r *TelegramRelay) Enqueue(n *model.Notification) {
	select {
	case r.queue <- n:
	default:
		metrics.RelayDeliveries.WithLabelValues("dropped").Inc()
		r.logger.Warn("Relay queue full, notification dropped",
			zap.Int64("notification_id", n.ID),
			zap.Int64("user_id", n.UserID),
		)
	}
}

// Run разбирает очередь до отмены ctx
func (r *TelegramRelay) Run(ctx context.Context) {
	r.logger.Info("Notification relay started")
	for {
		select {
		case n := <-r.queue:
			r.deliver(ctx, n)
		case <-ctx.Done():
			r.logger.Info("Notification relay stopped", zap.Int("pending", len(r.queue)))
			return
		}
	}
}

func (r *TelegramRelay) deliver(ctx context.Context, n *model.Notification) {
	user, err := r.userRepo.GetByID(ctx, n.UserID)
	if err != nil {
		metrics.RelayDeliveries.WithLabelValues("failed").Inc()
		r.logger.Error("Failed to load relay recipient", zap.Int64("user_id", n.UserID), zap.Error(err))
		return
	}
	if user == nil || user.TelegramChatID == nil {
		metrics.RelayDeliveries.WithLabelValues("skipped").Inc()
		return
	}

	_, err = r.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *user.TelegramChatID,
		Text:   formatText(n),
	})
	if err != nil {
		metrics.RelayDeliveries.WithLabelValues("failed").Inc()
		r.logger.Error("Failed to relay notification",
			zap.Int64("notification_id", n.ID),
			zap.Int64("chat_id", *user.TelegramChatID),
			zap.Error(err),
		)
		return
	}

	metrics.RelayDeliveries.WithLabelValues("sent").Inc()
	r.logger.Debug("Notification relayed", zap.Int64("notification_id", n.ID))
}

func formatText(n *model.Notification) string {
	if n.Link == "" {
		return n.Message
	}
	return n.Message + "\n" + n.Link
}
