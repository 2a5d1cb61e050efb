package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{Repository: base.NewRepository(pool)}
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, message, link)
		VALUES ($1, $2, $3, $4)
		RETURNING id, read, created_at
	`

	err := r.QueryRow(ctx, query, n.UserID, n.Type, n.Message, n.Link).Scan(&n.ID, &n.Read, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	var n model.Notification
	err := r.QueryRow(ctx,
		`SELECT id, user_id, type, message, link, read, created_at FROM notifications WHERE id = $1`, id,
	).Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Link, &n.Read, &n.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get notification by id: %w", err)
	}
	return &n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead возвращает количество помеченных
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return affected, nil
}

func (r *NotificationRepository) List(ctx context.Context, filter model.NotificationFilter) ([]*model.Notification, int, error) {
	var w where
	w.add("user_id = ?", filter.UserID)
	if filter.Read != nil {
		w.add("read = ?", *filter.Read)
	}

	var total int
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM notifications `+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := `SELECT id, user_id, type, message, link, read, created_at FROM notifications ` + w.String() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + w.arg(filter.Page.Limit) + ` OFFSET ` + w.arg(filter.Page.Offset())

	rows, err := r.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*model.Notification{}
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate notifications: %w", err)
	}

	return notifications, total, nil
}
