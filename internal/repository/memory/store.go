// Package memory хранилище в памяти процесса с теми же контрактами, что и postgres.
// Транзакции сериализуются, при ошибке состояние откатывается к снимку.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
)

type txKey struct{}

type state struct {
	seq           int64
	users         map[int64]*model.User
	tuitions      map[int64]*model.Tuition
	applications  map[int64]*model.Application
	payments      map[int64]*model.Payment
	reviews       map[int64]*model.Review
	notifications map[int64]*model.Notification
	messages      map[int64]*model.Message
	bookmarks     map[int64]*model.Bookmark
}

func newState() *state {
	return &state{
		users:         map[int64]*model.User{},
		tuitions:      map[int64]*model.Tuition{},
		applications:  map[int64]*model.Application{},
		payments:      map[int64]*model.Payment{},
		reviews:       map[int64]*model.Review{},
		notifications: map[int64]*model.Notification{},
		messages:      map[int64]*model.Message{},
		bookmarks:     map[int64]*model.Bookmark{},
	}
}

// snapshot глубокая копия для отката
func (s *state) snapshot() *state {
	c := newState()
	c.seq = s.seq
	for id, v := range s.users {
		c.users[id] = copyUser(v)
	}
	for id, v := range s.tuitions {
		c.tuitions[id] = copyTuition(v)
	}
	for id, v := range s.applications {
		c.applications[id] = copyApplication(v)
	}
	for id, v := range s.payments {
		p := *v
		c.payments[id] = &p
	}
	for id, v := range s.reviews {
		r := *v
		c.reviews[id] = &r
	}
	for id, v := range s.notifications {
		n := *v
		c.notifications[id] = &n
	}
	for id, v := range s.messages {
		m := *v
		c.messages[id] = &m
	}
	for id, v := range s.bookmarks {
		b := *v
		c.bookmarks[id] = &b
	}
	return c
}

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

func New() *Store {
	return &Store{
		data: newState(),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Service набор хранилищ для сервисного слоя
func (s *Store) Service() *service.Store {
	return &service.Store{
		Tx:            s,
		Users:         &userStore{s},
		Tuitions:      &tuitionStore{s},
		Applications:  &applicationStore{s},
		Payments:      &paymentStore{s},
		Reviews:       &reviewStore{s},
		Notifications: &notificationStore{s},
		Messages:      &messageStore{s},
		Bookmarks:     &bookmarkStore{s},
	}
}

// InTx выполняет fn под эксклюзивной блокировкой транзакций.
// Вложенный вызов переиспользует внешнюю транзакцию.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := s.data.snapshot()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.mu.Lock()
		s.data = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) nextID() int64 {
	s.data.seq++
	return s.data.seq
}

// lock доступ к данным. Вне транзакции ждёт её завершения, иначе
// откат к снимку затёр бы чужую запись.
func (s *Store) lock(ctx context.Context) func() {
	outside := !s.inTx(ctx)
	if outside {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if outside {
			s.txMu.Unlock()
		}
	}
}

func copyUser(u *model.User) *model.User {
	c := *u
	c.Subjects = append([]string{}, u.Subjects...)
	c.ClassLevels = append([]string{}, u.ClassLevels...)
	if u.ExperienceYears != nil {
		v := *u.ExperienceYears
		c.ExperienceYears = &v
	}
	if u.TelegramChatID != nil {
		v := *u.TelegramChatID
		c.TelegramChatID = &v
	}
	return &c
}

func copyTuition(t *model.Tuition) *model.Tuition {
	c := *t
	c.Student = nil
	return &c
}

func copyApplication(a *model.Application) *model.Application {
	c := *a
	c.Tuition = nil
	c.Tutor = nil
	return &c
}

func paginate[T any](items []T, page model.Page) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if page.Limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
