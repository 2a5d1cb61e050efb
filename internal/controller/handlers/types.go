package handlers

import (
	"github.com/Freeeeeet/tuition_market/internal/identity"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"go.uber.org/zap"
)

// SessionParser разбирает токен сессии из заголовка Authorization
type SessionParser interface {
	Parse(raw string) (*identity.Claims, error)
}

// Handlers содержит все зависимости для обработки запросов
type Handlers struct {
	userService         *service.UserService
	tuitionService      *service.TuitionService
	applicationService  *service.ApplicationService
	paymentService      *service.PaymentService
	reviewService       *service.ReviewService
	messageService      *service.MessageService
	notificationService *service.NotificationService
	bookmarkService     *service.BookmarkService
	sessions            SessionParser
	logger              *zap.Logger
}

// NewHandlers создаёт обработчики поверх набора сервисов
func NewHandlers(services *service.Services, sessions SessionParser, logger *zap.Logger) *Handlers {
	return &Handlers{
		userService:         services.Users,
		tuitionService:      services.Tuitions,
		applicationService:  services.Applications,
		paymentService:      services.Payments,
		reviewService:       services.Reviews,
		messageService:      services.Messages,
		notificationService: services.Notifications,
		bookmarkService:     services.Bookmarks,
		sessions:            sessions,
		logger:              logger,
	}
}
