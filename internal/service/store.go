package service

import (
	"context"

	"github.com/Freeeeeet/tuition_market/internal/model"
)

// Transactor выполняет fn в одной транзакции хранилища. Репозитории,
// вызванные с переданным ctx, работают внутри неё.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdateRating(ctx context.Context, id int64, average float64, count int) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter model.UserFilter) ([]*model.User, int, error)
}

type TuitionStore interface {
	Create(ctx context.Context, tuition *model.Tuition) error
	GetByID(ctx context.Context, id int64) (*model.Tuition, error)
	// GetByIDForUpdate блокирует строку объявления до конца транзакции
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Tuition, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*model.Tuition, error)
	Update(ctx context.Context, tuition *model.Tuition) error
	UpdateStatus(ctx context.Context, id int64, status model.TuitionStatus) error
	// AdjustApplicationCount меняет счётчик заявок, не опуская его ниже нуля
	AdjustApplicationCount(ctx context.Context, id int64, delta int) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter model.TuitionFilter) ([]*model.Tuition, int, error)
}

type ApplicationStore interface {
	Create(ctx context.Context, app *model.Application) error
	GetByID(ctx context.Context, id int64) (*model.Application, error)
	GetByTuitionAndTutor(ctx context.Context, tuitionID, tutorID int64) (*model.Application, error)
	Update(ctx context.Context, app *model.Application) error
	UpdateStatus(ctx context.Context, id int64, status model.ApplicationStatus) error
	// RejectSiblings отклоняет все Pending/Approved заявки объявления кроме keepID
	RejectSiblings(ctx context.Context, tuitionID, keepID int64) ([]*model.Application, error)
	CountByTuition(ctx context.Context, tuitionID int64) (int, error)
	Delete(ctx context.Context, id int64) error
	DeleteByTuition(ctx context.Context, tuitionID int64) error
	ListByTutor(ctx context.Context, tutorID int64) ([]*model.Application, error)
	// ListByStudent заявки на объявления студента
	ListByStudent(ctx context.Context, studentID int64) ([]*model.Application, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id int64) (*model.Payment, error)
	GetByExternalRef(ctx context.Context, ref string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) error
	DeleteByTuition(ctx context.Context, tuitionID int64) error
	List(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, int, error)
}

type ReviewStore interface {
	Create(ctx context.Context, review *model.Review) error
	Exists(ctx context.Context, tutorID, studentID, tuitionID int64) (bool, error)
	SummaryByTutor(ctx context.Context, tutorID int64) (model.RatingSummary, error)
	ListByTutor(ctx context.Context, tutorID int64, page model.Page) ([]*model.Review, int, error)
}

type NotificationStore interface {
	Create(ctx context.Context, n *model.Notification) error
	GetByID(ctx context.Context, id int64) (*model.Notification, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	List(ctx context.Context, filter model.NotificationFilter) ([]*model.Notification, int, error)
}

type MessageStore interface {
	Create(ctx context.Context, msg *model.Message) error
	GetByID(ctx context.Context, id int64) (*model.Message, error)
	MarkRead(ctx context.Context, id int64) error
	// ListByConversation страница от новых к старым
	ListByConversation(ctx context.Context, conversationID string, page model.Page) ([]*model.Message, int, error)
}

type BookmarkStore interface {
	Create(ctx context.Context, b *model.Bookmark) error
	GetByID(ctx context.Context, id int64) (*model.Bookmark, error)
	Delete(ctx context.Context, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]*model.Bookmark, error)
}

// Store набор всех хранилищ, собирается в main (postgres или memory)
type Store struct {
	Tx            Transactor
	Users         UserStore
	Tuitions      TuitionStore
	Applications  ApplicationStore
	Payments      PaymentStore
	Reviews       ReviewStore
	Notifications NotificationStore
	Messages      MessageStore
	Bookmarks     BookmarkStore
}

// IdentityVerifier проверяет внешний ID-токен и возвращает uid пользователя у провайдера
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (string, error)
}

// SessionIssuer выпускает собственный токен сессии после входа
type SessionIssuer interface {
	Issue(userID int64, role model.Role) (string, error)
}

// PaymentProcessor внешний процессор платежей. Суммы в основных единицах валюты.
type PaymentProcessor interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*model.PaymentIntent, error)
	VerifyEvent(payload []byte, signature string) (*model.PaymentEvent, error)
}

// NotificationRelay дополнительная доставка уже сохранённого уведомления
type NotificationRelay interface {
	Enqueue(n *model.Notification)
}
