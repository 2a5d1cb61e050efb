package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
)

type reviewStore struct{ s *Store }

func (r *reviewStore) Create(ctx context.Context, review *model.Review) error {
	defer r.s.lock(ctx)()
	for _, existing := range r.s.data.reviews {
		if existing.TutorID == review.TutorID && existing.StudentID == review.StudentID && existing.TuitionID == review.TuitionID {
			return fmt.Errorf("create review: %w", base.ErrDuplicate)
		}
	}
	review.ID = r.s.nextID()
	review.CreatedAt = r.s.now()
	stored := *review
	stored.Student = nil
	r.s.data.reviews[review.ID] = &stored
	return nil
}

func (r *reviewStore) Exists(ctx context.Context, tutorID, studentID, tuitionID int64) (bool, error) {
	defer r.s.lock(ctx)()
	for _, review := range r.s.data.reviews {
		if review.TutorID == tutorID && review.StudentID == studentID && review.TuitionID == tuitionID {
			return true, nil
		}
	}
	return false, nil
}

func (r *reviewStore) SummaryByTutor(ctx context.Context, tutorID int64) (model.RatingSummary, error) {
	defer r.s.lock(ctx)()
	var summary model.RatingSummary
	for _, review := range r.s.data.reviews {
		if review.TutorID == tutorID {
			summary.Sum += int64(review.Rating)
			summary.Count++
		}
	}
	return summary, nil
}

func (r *reviewStore) ListByTutor(ctx context.Context, tutorID int64, page model.Page) ([]*model.Review, int, error) {
	defer r.s.lock(ctx)()
	reviews := []*model.Review{}
	for _, review := range r.s.data.reviews {
		if review.TutorID == tutorID {
			c := *review
			reviews = append(reviews, &c)
		}
	}
	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].ID > reviews[j].ID
		}
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return paginate(reviews, page), len(reviews), nil
}
