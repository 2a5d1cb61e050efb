package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/Freeeeeet/tuition_market/internal/model"
)

type tuitionStore struct{ s *Store }

func (r *tuitionStore) Create(ctx context.Context, t *model.Tuition) error {
	defer r.s.lock(ctx)()
	t.ID = r.s.nextID()
	t.ApplicationCount = 0
	t.CreatedAt = r.s.now()
	t.UpdatedAt = t.CreatedAt
	r.s.data.tuitions[t.ID] = copyTuition(t)
	return nil
}

func (r *tuitionStore) GetByID(ctx context.Context, id int64) (*model.Tuition, error) {
	defer r.s.lock(ctx)()
	if t, ok := r.s.data.tuitions[id]; ok {
		return copyTuition(t), nil
	}
	return nil, nil
}

// GetByIDForUpdate блокировка не нужна: транзакции и так сериализованы
func (r *tuitionStore) GetByIDForUpdate(ctx context.Context, id int64) (*model.Tuition, error) {
	return r.GetByID(ctx, id)
}

func (r *tuitionStore) GetByIDs(ctx context.Context, ids []int64) ([]*model.Tuition, error) {
	defer r.s.lock(ctx)()
	tuitions := []*model.Tuition{}
	for _, id := range ids {
		if t, ok := r.s.data.tuitions[id]; ok {
			tuitions = append(tuitions, copyTuition(t))
		}
	}
	return tuitions, nil
}

func (r *tuitionStore) Update(ctx context.Context, t *model.Tuition) error {
	defer r.s.lock(ctx)()
	stored, ok := r.s.data.tuitions[t.ID]
	if !ok {
		return fmt.Errorf("tuition %d not found", t.ID)
	}
	stored.Subject = t.Subject
	stored.ClassLevel = t.ClassLevel
	stored.Location = t.Location
	stored.Budget = t.Budget
	stored.Schedule = t.Schedule
	stored.Mode = t.Mode
	stored.Description = t.Description
	stored.UpdatedAt = r.s.now()
	t.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *tuitionStore) UpdateStatus(ctx context.Context, id int64, status model.TuitionStatus) error {
	defer r.s.lock(ctx)()
	t, ok := r.s.data.tuitions[id]
	if !ok {
		return fmt.Errorf("tuition %d not found", id)
	}
	t.Status = status
	t.UpdatedAt = r.s.now()
	return nil
}

func (r *tuitionStore) AdjustApplicationCount(ctx context.Context, id int64, delta int) error {
	defer r.s.lock(ctx)()
	if t, ok := r.s.data.tuitions[id]; ok {
		t.ApplicationCount = max(t.ApplicationCount+delta, 0)
	}
	return nil
}

func (r *tuitionStore) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()
	delete(r.s.data.tuitions, id)
	return nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}

func (r *tuitionStore) List(ctx context.Context, filter model.TuitionFilter) ([]*model.Tuition, int, error) {
	defer r.s.lock(ctx)()

	subject := strings.ToLower(filter.Subject)
	location := strings.ToLower(filter.Location)
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	tuitions := []*model.Tuition{}
	for _, t := range r.s.data.tuitions {
		switch {
		case len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, t.Status):
			continue
		case filter.StudentID != nil && t.StudentID != *filter.StudentID:
			continue
		case filter.ClassLevel != "" && t.ClassLevel != filter.ClassLevel:
			continue
		case subject != "" && !containsFold(t.Subject, subject):
			continue
		case location != "" && !containsFold(t.Location, location):
			continue
		case query != "" && !containsFold(t.Subject, query) && !containsFold(t.Location, query) && !containsFold(t.Description, query):
			continue
		case search != "" && !containsFold(t.Subject, search) && !containsFold(t.Location, search):
			continue
		}
		tuitions = append(tuitions, copyTuition(t))
	}

	newest := func(a, b *model.Tuition) bool {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID > b.ID
		}
		return a.CreatedAt.After(b.CreatedAt)
	}

	sort.Slice(tuitions, func(i, j int) bool {
		a, b := tuitions[i], tuitions[j]
		switch filter.Sort {
		case model.TuitionSortDateAsc:
			return newest(b, a)
		case model.TuitionSortBudgetAsc:
			if a.Budget != b.Budget {
				return a.Budget < b.Budget
			}
		case model.TuitionSortBudgetDesc:
			if a.Budget != b.Budget {
				return a.Budget > b.Budget
			}
		}
		return newest(a, b)
	})

	return paginate(tuitions, filter.Page), len(tuitions), nil
}
