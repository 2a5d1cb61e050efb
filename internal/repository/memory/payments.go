package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
)

type paymentStore struct{ s *Store }

func (r *paymentStore) Create(ctx context.Context, p *model.Payment) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.data.payments {
		if existing.ExternalRef == p.ExternalRef {
			return fmt.Errorf("create payment: %w", base.ErrDuplicate)
		}
	}
	p.ID = r.s.nextID()
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	r.s.data.payments[p.ID] = &stored
	return nil
}

func (r *paymentStore) GetByID(ctx context.Context, id int64) (*model.Payment, error) {
	defer r.s.lock(ctx)()
	if p, ok := r.s.data.payments[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (r *paymentStore) GetByExternalRef(ctx context.Context, ref string) (*model.Payment, error) {
	defer r.s.lock(ctx)()
	for _, p := range r.s.data.payments {
		if p.ExternalRef == ref {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r *paymentStore) UpdateStatus(ctx context.Context, id int64, status model.PaymentStatus) error {
	defer r.s.lock(ctx)()
	p, ok := r.s.data.payments[id]
	if !ok {
		return fmt.Errorf("payment %d not found", id)
	}
	p.Status = status
	p.UpdatedAt = r.s.now()
	return nil
}

func (r *paymentStore) DeleteByTuition(ctx context.Context, tuitionID int64) error {
	defer r.s.lock(ctx)()
	for id, p := range r.s.data.payments {
		if p.TuitionID == tuitionID {
			delete(r.s.data.payments, id)
		}
	}
	return nil
}

func (r *paymentStore) List(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, int, error) {
	defer r.s.lock(ctx)()

	payments := []*model.Payment{}
	for _, p := range r.s.data.payments {
		switch {
		case filter.StudentID != nil && p.StudentID != *filter.StudentID:
			continue
		case filter.TutorID != nil && p.TutorID != *filter.TutorID:
			continue
		case len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, p.Status):
			continue
		case filter.From != nil && p.CreatedAt.Before(*filter.From):
			continue
		case filter.To != nil && p.CreatedAt.After(*filter.To):
			continue
		}
		c := *p
		payments = append(payments, &c)
	}

	sort.Slice(payments, func(i, j int) bool {
		if payments[i].CreatedAt.Equal(payments[j].CreatedAt) {
			return payments[i].ID > payments[j].ID
		}
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})

	return paginate(payments, filter.Page), len(payments), nil
}
