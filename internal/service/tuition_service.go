package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"go.uber.org/zap"
)

type TuitionService struct {
	tx              Transactor
	userRepo        UserStore
	tuitionRepo     TuitionStore
	applicationRepo ApplicationStore
	paymentRepo     PaymentStore
	notifier        *NotificationService
	logger          *zap.Logger
}

func NewTuitionService(
	tx Transactor,
	userRepo UserStore,
	tuitionRepo TuitionStore,
	applicationRepo ApplicationStore,
	paymentRepo PaymentStore,
	notifier *NotificationService,
	logger *zap.Logger,
) *TuitionService {
	return &TuitionService{
		tx:              tx,
		userRepo:        userRepo,
		tuitionRepo:     tuitionRepo,
		applicationRepo: applicationRepo,
		paymentRepo:     paymentRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

type TuitionInput struct {
	Subject     string
	ClassLevel  string
	Location    string
	Budget      int64
	Schedule    string
	Mode        model.TuitionMode
	Description string
}

// UpdateTuitionInput частичное обновление, nil поля не меняются
type UpdateTuitionInput struct {
	Subject     *string
	ClassLevel  *string
	Location    *string
	Budget      *int64
	Schedule    *string
	Mode        *model.TuitionMode
	Description *string
}

func validMode(m model.TuitionMode) bool {
	switch m {
	case model.TuitionModeOnline, model.TuitionModeOffline, model.TuitionModeHybrid:
		return true
	}
	return false
}

// Create публикует объявление, до модерации оно в статусе Pending
func (s *TuitionService) Create(ctx context.Context, studentID int64, in TuitionInput) (*model.Tuition, error) {
	if in.Budget < model.MinAmount {
		return nil, validation("Budget must be at least %d", model.MinAmount)
	}
	if !validMode(in.Mode) {
		return nil, validation("Invalid tuition mode")
	}

	t := &model.Tuition{
		StudentID:   studentID,
		Subject:     strings.TrimSpace(in.Subject),
		ClassLevel:  strings.TrimSpace(in.ClassLevel),
		Location:    strings.TrimSpace(in.Location),
		Budget:      in.Budget,
		Schedule:    strings.TrimSpace(in.Schedule),
		Mode:        in.Mode,
		Description: strings.TrimSpace(in.Description),
		Status:      model.TuitionStatusPending,
	}
	if err := s.tuitionRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tuition: %w", err)
	}

	s.logger.Info("Tuition created",
		zap.Int64("tuition_id", t.ID),
		zap.Int64("student_id", studentID),
		zap.String("subject", t.Subject),
	)
	return t, nil
}

// Get объявление с владельцем и живым счётчиком заявок
func (s *TuitionService) Get(ctx context.Context, id int64) (*model.Tuition, error) {
	t, err := s.tuitionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tuition: %w", err)
	}
	if t == nil {
		return nil, notFound("Tuition not found")
	}

	count, err := s.applicationRepo.CountByTuition(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count applications: %w", err)
	}
	t.ApplicationCount = count

	if err := s.populate(ctx, []*model.Tuition{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// Update правит поля объявления, только владелец
func (s *TuitionService) Update(ctx context.Context, id, studentID int64, in UpdateTuitionInput) (*model.Tuition, error) {
	t, err := s.tuitionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get tuition: %w", err)
	}
	if t == nil {
		return nil, notFound("Tuition not found")
	}
	if t.StudentID != studentID {
		return nil, forbidden("Not authorized to update this tuition")
	}

	if in.Subject != nil {
		t.Subject = strings.TrimSpace(*in.Subject)
	}
	if in.ClassLevel != nil {
		t.ClassLevel = strings.TrimSpace(*in.ClassLevel)
	}
	if in.Location != nil {
		t.Location = strings.TrimSpace(*in.Location)
	}
	if in.Budget != nil {
		if *in.Budget < model.MinAmount {
			return nil, validation("Budget must be at least %d", model.MinAmount)
		}
		t.Budget = *in.Budget
	}
	if in.Schedule != nil {
		t.Schedule = strings.TrimSpace(*in.Schedule)
	}
	if in.Mode != nil {
		if !validMode(*in.Mode) {
			return nil, validation("Invalid tuition mode")
		}
		t.Mode = *in.Mode
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}

	if err := s.tuitionRepo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update tuition: %w", err)
	}

	s.logger.Info("Tuition updated", zap.Int64("tuition_id", id))
	return t, nil
}

// Delete удаляет объявление вместе с его платежами и заявками
func (s *TuitionService) Delete(ctx context.Context, id int64, caller *model.User) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		t, err := s.tuitionRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("lock tuition: %w", err)
		}
		if t == nil {
			return notFound("Tuition not found")
		}
		if t.StudentID != caller.ID && !caller.IsAdmin() {
			return forbidden("Not authorized to delete this tuition")
		}

		if err := s.paymentRepo.DeleteByTuition(ctx, id); err != nil {
			return fmt.Errorf("delete tuition payments: %w", err)
		}
		if err := s.applicationRepo.DeleteByTuition(ctx, id); err != nil {
			return fmt.Errorf("delete tuition applications: %w", err)
		}
		if err := s.tuitionRepo.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete tuition: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Tuition deleted",
		zap.Int64("tuition_id", id),
		zap.Int64("deleted_by", caller.ID),
	)
	return nil
}

// ListPublic одобренные и открытые объявления
func (s *TuitionService) ListPublic(ctx context.Context, filter model.TuitionFilter) ([]*model.Tuition, model.Pagination, error) {
	filter.Statuses = []model.TuitionStatus{model.TuitionStatusApproved, model.TuitionStatusOpen}
	filter.StudentID = nil
	filter.Search = ""
	return s.list(ctx, filter)
}

// ListForStudent объявления студента, опционально по статусу
func (s *TuitionService) ListForStudent(ctx context.Context, studentID int64, status model.TuitionStatus, page model.Page) ([]*model.Tuition, model.Pagination, error) {
	filter := model.TuitionFilter{StudentID: &studentID, Page: page}
	if status != "" {
		if !status.Valid() {
			return nil, model.Pagination{}, validation("Invalid status")
		}
		filter.Statuses = []model.TuitionStatus{status}
	}
	return s.list(ctx, filter)
}

// ListAll админский список с фильтром по статусу и поиском
func (s *TuitionService) ListAll(ctx context.Context, status model.TuitionStatus, search string, page model.Page) ([]*model.Tuition, model.Pagination, error) {
	filter := model.TuitionFilter{Search: search, Page: page}
	if status != "" {
		if !status.Valid() {
			return nil, model.Pagination{}, validation("Invalid status")
		}
		filter.Statuses = []model.TuitionStatus{status}
	}
	return s.list(ctx, filter)
}

func (s *TuitionService) list(ctx context.Context, filter model.TuitionFilter) ([]*model.Tuition, model.Pagination, error) {
	tuitions, total, err := s.tuitionRepo.List(ctx, filter)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("list tuitions: %w", err)
	}
	if err := s.populate(ctx, tuitions); err != nil {
		return nil, model.Pagination{}, err
	}
	return tuitions, filter.Page.Result(total), nil
}

// Approve модерация: объявление начинает принимать заявки
func (s *TuitionService) Approve(ctx context.Context, id int64) (*model.Tuition, error) {
	return s.moderate(ctx, id, model.TuitionStatusApproved)
}

// Reject модерация: объявление отклонено
func (s *TuitionService) Reject(ctx context.Context, id int64) (*model.Tuition, error) {
	return s.moderate(ctx, id, model.TuitionStatusRejected)
}

func (s *TuitionService) moderate(ctx context.Context, id int64, to model.TuitionStatus) (*model.Tuition, error) {
	var t *model.Tuition

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.tuitionRepo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("lock tuition: %w", err)
		}
		if t == nil {
			return notFound("Tuition not found")
		}

		next, err := t.Status.Transition(to)
		if err != nil {
			return fromTransition(err, fmt.Sprintf("Tuition in status %s cannot be %s", t.Status, strings.ToLower(string(to))))
		}
		if err := s.tuitionRepo.UpdateStatus(ctx, id, next); err != nil {
			return fmt.Errorf("update tuition status: %w", err)
		}
		t.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Tuition moderated",
		zap.Int64("tuition_id", id),
		zap.String("status", string(t.Status)),
	)

	notificationType := model.NotificationTuitionApproved
	if to == model.TuitionStatusRejected {
		notificationType = model.NotificationTuitionRejected
	}
	s.notifier.Notify(ctx, t.StudentID, notificationType,
		fmt.Sprintf("Your tuition post for %s has been %s", t.Subject, strings.ToLower(string(t.Status))),
		"/dashboard/student/my-tuitions",
	)

	return t, nil
}

func (s *TuitionService) populate(ctx context.Context, tuitions []*model.Tuition) error {
	if len(tuitions) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(tuitions))
	for _, t := range tuitions {
		ids = append(ids, t.StudentID)
	}

	students, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("get tuition owners: %w", err)
	}

	byID := make(map[int64]*model.User, len(students))
	for _, u := range students {
		byID[u.ID] = u
	}
	for _, t := range tuitions {
		t.Student = byID[t.StudentID]
	}
	return nil
}
