package repository

import (
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewStore собирает все postgres-репозитории на одном пуле
func NewStore(pool *pgxpool.Pool) *service.Store {
	return &service.Store{
		Tx:            base.NewTxManager(pool),
		Users:         NewUserRepository(pool),
		Tuitions:      NewTuitionRepository(pool),
		Applications:  NewApplicationRepository(pool),
		Payments:      NewPaymentRepository(pool),
		Reviews:       NewReviewRepository(pool),
		Notifications: NewNotificationRepository(pool),
		Messages:      NewMessageRepository(pool),
		Bookmarks:     NewBookmarkRepository(pool),
	}
}
