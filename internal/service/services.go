package service

import "go.uber.org/zap"

// Adapters внешние зависимости сервисов, любая может быть nil
type Adapters struct {
	Identity  IdentityVerifier
	Sessions  SessionIssuer
	Processor PaymentProcessor
	Relay     NotificationRelay
	Currency  string
}

// Services все сервисы приложения поверх одного хранилища
type Services struct {
	Users         *UserService
	Tuitions      *TuitionService
	Applications  *ApplicationService
	Payments      *PaymentService
	Reviews       *ReviewService
	Messages      *MessageService
	Notifications *NotificationService
	Bookmarks     *BookmarkService
}

func NewServices(store *Store, adapters Adapters, logger *zap.Logger) *Services {
	notifier := NewNotificationService(store.Notifications, adapters.Relay, logger)

	return &Services{
		Users:         NewUserService(store.Users, adapters.Identity, adapters.Sessions, logger),
		Tuitions:      NewTuitionService(store.Tx, store.Users, store.Tuitions, store.Applications, store.Payments, notifier, logger),
		Applications:  NewApplicationService(store.Tx, store.Users, store.Tuitions, store.Applications, notifier, logger),
		Payments:      NewPaymentService(store.Tx, store.Tuitions, store.Applications, store.Payments, adapters.Processor, adapters.Currency, notifier, logger),
		Reviews:       NewReviewService(store.Tx, store.Users, store.Tuitions, store.Applications, store.Reviews, notifier, logger),
		Messages:      NewMessageService(store.Users, store.Tuitions, store.Applications, store.Messages, notifier, logger),
		Notifications: notifier,
		Bookmarks:     NewBookmarkService(store.Users, store.Tuitions, store.Bookmarks, logger),
	}
}
