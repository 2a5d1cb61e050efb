package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
)

type userStore struct{ s *Store }

func (r *userStore) Create(ctx context.Context, user *model.User) error {
	defer r.s.lock(ctx)()

	user.Email = strings.ToLower(user.Email)
	for _, u := range r.s.data.users {
		if u.ExternalID == user.ExternalID || u.Email == user.Email {
			return fmt.Errorf("create user: %w", base.ErrDuplicate)
		}
	}

	user.ID = r.s.nextID()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	if user.Subjects == nil {
		user.Subjects = []string{}
	}
	if user.ClassLevels == nil {
		user.ClassLevels = []string{}
	}
	r.s.data.users[user.ID] = copyUser(user)
	return nil
}

func (r *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	defer r.s.lock(ctx)()
	if u, ok := r.s.data.users[id]; ok {
		return copyUser(u), nil
	}
	return nil, nil
}

func (r *userStore) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	defer r.s.lock(ctx)()
	for _, u := range r.s.data.users {
		if u.ExternalID == externalID {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	defer r.s.lock(ctx)()
	email = strings.ToLower(email)
	for _, u := range r.s.data.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *userStore) GetByIDs(ctx context.Context, ids []int64) ([]*model.User, error) {
	defer r.s.lock(ctx)()
	users := []*model.User{}
	for _, id := range ids {
		if u, ok := r.s.data.users[id]; ok {
			users = append(users, copyUser(u))
		}
	}
	return users, nil
}

func (r *userStore) Update(ctx context.Context, user *model.User) error {
	defer r.s.lock(ctx)()
	if _, ok := r.s.data.users[user.ID]; !ok {
		return fmt.Errorf("user %d not found", user.ID)
	}

	user.Email = strings.ToLower(user.Email)
	for _, u := range r.s.data.users {
		if u.ID != user.ID && u.Email == user.Email {
			return fmt.Errorf("update user: %w", base.ErrDuplicate)
		}
	}

	user.UpdatedAt = r.s.now()
	r.s.data.users[user.ID] = copyUser(user)
	return nil
}

func (r *userStore) UpdateRating(ctx context.Context, id int64, average float64, count int) error {
	defer r.s.lock(ctx)()
	u, ok := r.s.data.users[id]
	if !ok {
		return fmt.Errorf("user %d not found", id)
	}
	u.AverageRating = average
	u.ReviewCount = count
	u.UpdatedAt = r.s.now()
	return nil
}

func (r *userStore) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()
	delete(r.s.data.users, id)
	return nil
}

func (r *userStore) List(ctx context.Context, filter model.UserFilter) ([]*model.User, int, error) {
	defer r.s.lock(ctx)()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	users := []*model.User{}
	for _, u := range r.s.data.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Name), search) && !strings.Contains(u.Email, search) {
			continue
		}
		users = append(users, copyUser(u))
	}

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	return paginate(users, filter.Page), len(users), nil
}
