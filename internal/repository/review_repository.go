package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReviewRepository struct {
	*base.Repository
}

func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт отзыв, повтор по тройке даёт base.ErrDuplicate
func (r *ReviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (tutor_id, student_id, tuition_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.QueryRow(
		ctx, query,
		review.TutorID,
		review.StudentID,
		review.TuitionID,
		review.Rating,
		review.Comment,
	).Scan(&review.ID, &review.CreatedAt)

	if err != nil {
		return fmt.Errorf("create review: %w", base.MapError(err))
	}

	return nil
}

func (r *ReviewRepository) Exists(ctx context.Context, tutorID, studentID, tuitionID int64) (bool, error) {
	var exists bool
	err := r.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM reviews WHERE tutor_id = $1 AND student_id = $2 AND tuition_id = $3)`,
		tutorID, studentID, tuitionID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check review exists: %w", err)
	}
	return exists, nil
}

// SummaryByTutor сумма и количество оценок по всем отзывам репетитора
func (r *ReviewRepository) SummaryByTutor(ctx context.Context, tutorID int64) (model.RatingSummary, error) {
	var summary model.RatingSummary
	err := r.QueryRow(ctx,
		`SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE tutor_id = $1`, tutorID,
	).Scan(&summary.Sum, &summary.Count)
	if err != nil {
		return model.RatingSummary{}, fmt.Errorf("summarize reviews: %w", err)
	}
	return summary, nil
}

func (r *ReviewRepository) ListByTutor(ctx context.Context, tutorID int64, page model.Page) ([]*model.Review, int, error) {
	var total int
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE tutor_id = $1`, tutorID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	query := `
		SELECT id, tutor_id, student_id, tuition_id, rating, comment, created_at
		FROM reviews
		WHERE tutor_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.Query(ctx, query, tutorID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*model.Review{}
	for rows.Next() {
		var review model.Review
		err := rows.Scan(
			&review.ID,
			&review.TutorID,
			&review.StudentID,
			&review.TuitionID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, &review)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}

	return reviews, total, nil
}
