package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookmarkRepository struct {
	*base.Repository
}

func NewBookmarkRepository(pool *pgxpool.Pool) *BookmarkRepository {
	return &BookmarkRepository{Repository: base.NewRepository(pool)}
}

// Create сохраняет закладку, повтор даёт base.ErrDuplicate
func (r *BookmarkRepository) Create(ctx context.Context, b *model.Bookmark) error {
	err := r.QueryRow(ctx, `
		INSERT INTO bookmarks (user_id, target_kind, target_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, b.UserID, b.Target.Kind, b.Target.ID).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create bookmark: %w", base.MapError(err))
	}
	return nil
}

func (r *BookmarkRepository) GetByID(ctx context.Context, id int64) (*model.Bookmark, error) {
	var b model.Bookmark
	err := r.QueryRow(ctx,
		`SELECT id, user_id, target_kind, target_id, created_at FROM bookmarks WHERE id = $1`, id,
	).Scan(&b.ID, &b.UserID, &b.Target.Kind, &b.Target.ID, &b.CreatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get bookmark by id: %w", err)
	}
	return &b, nil
}

func (r *BookmarkRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM bookmarks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

func (r *BookmarkRepository) ListByUser(ctx context.Context, userID int64) ([]*model.Bookmark, error) {
	rows, err := r.Query(ctx, `
		SELECT id, user_id, target_kind, target_id, created_at
		FROM bookmarks
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := []*model.Bookmark{}
	for rows.Next() {
		var b model.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.Target.Kind, &b.Target.ID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}

	return bookmarks, nil
}
