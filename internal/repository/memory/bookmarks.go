package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
)

type bookmarkStore struct{ s *Store }

func (r *bookmarkStore) Create(ctx context.Context, b *model.Bookmark) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.data.bookmarks {
		if existing.UserID == b.UserID && existing.Target == b.Target {
			return fmt.Errorf("create bookmark: %w", base.ErrDuplicate)
		}
	}
	b.ID = r.s.nextID()
	b.CreatedAt = r.s.now()
	r.s.data.bookmarks[b.ID] = &model.Bookmark{ID: b.ID, UserID: b.UserID, Target: b.Target, CreatedAt: b.CreatedAt}
	return nil
}

func (r *bookmarkStore) GetByID(ctx context.Context, id int64) (*model.Bookmark, error) {
	defer r.s.lock(ctx)()
	if b, ok := r.s.data.bookmarks[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, nil
}

func (r *bookmarkStore) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()
	delete(r.s.data.bookmarks, id)
	return nil
}

func (r *bookmarkStore) ListByUser(ctx context.Context, userID int64) ([]*model.Bookmark, error) {
	defer r.s.lock(ctx)()
	bookmarks := []*model.Bookmark{}
	for _, b := range r.s.data.bookmarks {
		if b.UserID == userID {
			c := *b
			bookmarks = append(bookmarks, &c)
		}
	}
	sort.Slice(bookmarks, func(i, j int) bool {
		if bookmarks[i].CreatedAt.Equal(bookmarks[j].CreatedAt) {
			return bookmarks[i].ID > bookmarks[j].ID
		}
		return bookmarks[i].CreatedAt.After(bookmarks[j].CreatedAt)
	})
	return bookmarks, nil
}
