package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"go.uber.org/zap"
)

type ReviewService struct {
	tx              Transactor
	userRepo        UserStore
	tuitionRepo     TuitionStore
	applicationRepo ApplicationStore
	reviewRepo      ReviewStore
	notifier        *NotificationService
	logger          *zap.Logger
}

func NewReviewService(
	tx Transactor,
	userRepo UserStore,
	tuitionRepo TuitionStore,
	applicationRepo ApplicationStore,
	reviewRepo ReviewStore,
	notifier *NotificationService,
	logger *zap.Logger,
) *ReviewService {
	return &ReviewService{
		tx:              tx,
		userRepo:        userRepo,
		tuitionRepo:     tuitionRepo,
		applicationRepo: applicationRepo,
		reviewRepo:      reviewRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

type ReviewInput struct {
	TutorID   int64
	TuitionID int64
	Rating    int
	Comment   string
}

// Create оставляет отзыв и пересчитывает рейтинг репетитора.
// Нужна одобренная заявка репетитора на объявление этого студента.
func (s *ReviewService) Create(ctx context.Context, studentID int64, in ReviewInput) (*model.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, validation("Rating must be between 1 and 5")
	}

	var (
		review  *model.Review
		summary model.RatingSummary
	)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		tuition, err := s.tuitionRepo.GetByID(ctx, in.TuitionID)
		if err != nil {
			return fmt.Errorf("get tuition: %w", err)
		}
		if tuition == nil {
			return notFound("Tuition not found")
		}
		if tuition.StudentID != studentID {
			return forbidden("You can only review tutors of your own tuitions")
		}

		app, err := s.applicationRepo.GetByTuitionAndTutor(ctx, in.TuitionID, in.TutorID)
		if err != nil {
			return fmt.Errorf("get application: %w", err)
		}
		if app == nil || !app.IsApproved() {
			return forbidden("You can only review tutors you have worked with")
		}

		exists, err := s.reviewRepo.Exists(ctx, in.TutorID, studentID, in.TuitionID)
		if err != nil {
			return fmt.Errorf("check review: %w", err)
		}
		if exists {
			return conflict("You have already reviewed this tutor for this tuition")
		}

		review = &model.Review{
			TutorID:   in.TutorID,
			StudentID: studentID,
			TuitionID: in.TuitionID,
			Rating:    in.Rating,
			Comment:   strings.TrimSpace(in.Comment),
		}
		if err := s.reviewRepo.Create(ctx, review); err != nil {
			return fromDuplicate(fmt.Errorf("create review: %w", err), "You have already reviewed this tutor for this tuition")
		}

		summary, err = s.reviewRepo.SummaryByTutor(ctx, in.TutorID)
		if err != nil {
			return fmt.Errorf("summarize reviews: %w", err)
		}
		if err := s.userRepo.UpdateRating(ctx, in.TutorID, summary.Average(), summary.Count); err != nil {
			return fmt.Errorf("update tutor rating: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Review created",
		zap.Int64("review_id", review.ID),
		zap.Int64("tutor_id", in.TutorID),
		zap.Float64("average_rating", summary.Average()),
		zap.Int("review_count", summary.Count),
	)

	s.notifier.Notify(ctx, in.TutorID, model.NotificationReviewReceived,
		fmt.Sprintf("You received a new %d-star review", in.Rating),
		"/dashboard/tutor/reviews",
	)

	return review, nil
}

// ListForTutor отзывы о репетиторе с авторами
func (s *ReviewService) ListForTutor(ctx context.Context, tutorID int64, page model.Page) ([]*model.Review, model.Pagination, error) {
	reviews, total, err := s.reviewRepo.ListByTutor(ctx, tutorID, page)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("list reviews: %w", err)
	}

	if len(reviews) > 0 {
		ids := make([]int64, 0, len(reviews))
		for _, r := range reviews {
			ids = append(ids, r.StudentID)
		}
		students, err := s.userRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, model.Pagination{}, fmt.Errorf("get review authors: %w", err)
		}
		byID := make(map[int64]*model.User, len(students))
		for _, u := range students {
			byID[u.ID] = u
		}
		for _, r := range reviews {
			r.Student = byID[r.StudentID]
		}
	}

	return reviews, page.Result(total), nil
}
