package memory

import (
	"context"
	"sort"

	"github.com/Freeeeeet/tuition_market/internal/model"
)

type notificationStore struct{ s *Store }

func (r *notificationStore) Create(ctx context.Context, n *model.Notification) error {
	defer r.s.lock(ctx)()
	n.ID = r.s.nextID()
	n.Read = false
	n.CreatedAt = r.s.now()
	stored := *n
	r.s.data.notifications[n.ID] = &stored
	return nil
}

func (r *notificationStore) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	defer r.s.lock(ctx)()
	if n, ok := r.s.data.notifications[id]; ok {
		c := *n
		return &c, nil
	}
	return nil, nil
}

func (r *notificationStore) MarkRead(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()
	if n, ok := r.s.data.notifications[id]; ok {
		n.Read = true
	}
	return nil
}

func (r *notificationStore) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	defer r.s.lock(ctx)()
	var affected int64
	for _, n := range r.s.data.notifications {
		if n.UserID == userID && !n.Read {
			n.Read = true
			affected++
		}
	}
	return affected, nil
}

func (r *notificationStore) List(ctx context.Context, filter model.NotificationFilter) ([]*model.Notification, int, error) {
	defer r.s.lock(ctx)()
	notifications := []*model.Notification{}
	for _, n := range r.s.data.notifications {
		if n.UserID != filter.UserID || (filter.Read != nil && n.Read != *filter.Read) {
			continue
		}
		c := *n
		notifications = append(notifications, &c)
	}
	sort.Slice(notifications, func(i, j int) bool {
		if notifications[i].CreatedAt.Equal(notifications[j].CreatedAt) {
			return notifications[i].ID > notifications[j].ID
		}
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	return paginate(notifications, filter.Page), len(notifications), nil
}
