package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"go.uber.org/zap"
)

type BookmarkService struct {
	userRepo     UserStore
	tuitionRepo  TuitionStore
	bookmarkRepo BookmarkStore
	logger       *zap.Logger
}

func NewBookmarkService(userRepo UserStore, tuitionRepo TuitionStore, bookmarkRepo BookmarkStore, logger *zap.Logger) *BookmarkService {
	return &BookmarkService{
		userRepo:     userRepo,
		tuitionRepo:  tuitionRepo,
		bookmarkRepo: bookmarkRepo,
		logger:       logger,
	}
}

// Create сохраняет закладку на репетитора или объявление
func (s *BookmarkService) Create(ctx context.Context, userID int64, target model.BookmarkTarget) (*model.Bookmark, error) {
	b := &model.Bookmark{UserID: userID, Target: target}
	if err := s.resolve(ctx, b); err != nil {
		return nil, err
	}

	if err := s.bookmarkRepo.Create(ctx, b); err != nil {
		return nil, fromDuplicate(fmt.Errorf("create bookmark: %w", err), "Already bookmarked")
	}

	s.logger.Debug("Bookmark created",
		zap.Int64("bookmark_id", b.ID),
		zap.String("type", string(target.Kind)),
		zap.Int64("target_id", target.ID),
	)
	return b, nil
}

// resolve подставляет цель закладки, NotFound если цели нет
func (s *BookmarkService) resolve(ctx context.Context, b *model.Bookmark) error {
	switch b.Target.Kind {
	case model.BookmarkKindTutor:
		tutor, err := s.userRepo.GetByID(ctx, b.Target.ID)
		if err != nil {
			return fmt.Errorf("get tutor: %w", err)
		}
		if tutor == nil || !tutor.IsTutor() {
			return notFound("Tutor not found")
		}
		b.Tutor = tutor
	case model.BookmarkKindTuition:
		tuition, err := s.tuitionRepo.GetByID(ctx, b.Target.ID)
		if err != nil {
			return fmt.Errorf("get tuition: %w", err)
		}
		if tuition == nil {
			return notFound("Tuition not found")
		}
		b.Tuition = tuition
	default:
		return validation("Invalid bookmark type")
	}
	return nil
}

// List закладки пользователя с разрешёнными целями, удалённые цели пропускаются
func (s *BookmarkService) List(ctx context.Context, userID int64) ([]*model.Bookmark, error) {
	bookmarks, err := s.bookmarkRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	resolved := make([]*model.Bookmark, 0, len(bookmarks))
	for _, b := range bookmarks {
		if err := s.resolve(ctx, b); err != nil {
			if KindOf(err) == KindNotFound {
				continue
			}
			return nil, err
		}
		resolved = append(resolved, b)
	}
	return resolved, nil
}

// Delete удаляет закладку, только владелец
func (s *BookmarkService) Delete(ctx context.Context, id, userID int64) error {
	b, err := s.bookmarkRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get bookmark: %w", err)
	}
	if b == nil {
		return notFound("Bookmark not found")
	}
	if b.UserID != userID {
		return forbidden("Not authorized to delete this bookmark")
	}

	if err := s.bookmarkRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}
