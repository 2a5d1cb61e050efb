package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tuition_market/internal/metrics"
	"github.com/Freeeeeet/tuition_market/internal/model"
	"go.uber.org/zap"
)

type ApplicationService struct {
	tx              Transactor
	userRepo        UserStore
	tuitionRepo     TuitionStore
	applicationRepo ApplicationStore
	notifier        *NotificationService
	logger          *zap.Logger
}

func NewApplicationService(
	tx Transactor,
	userRepo UserStore,
	tuitionRepo TuitionStore,
	applicationRepo ApplicationStore,
	notifier *NotificationService,
	logger *zap.Logger,
) *ApplicationService {
	return &ApplicationService{
		tx:              tx,
		userRepo:        userRepo,
		tuitionRepo:     tuitionRepo,
		applicationRepo: applicationRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

type ApplyInput struct {
	TuitionID      int64
	Qualifications string
	Experience     string
	ExpectedSalary int64
}

// UpdateApplicationInput частичное обновление, nil/пустые поля не меняются
type UpdateApplicationInput struct {
	Qualifications string
	Experience     string
	ExpectedSalary *int64
}

// Apply создаёт заявку репетитора на объявление
func (s *ApplicationService) Apply(ctx context.Context, tutorID int64, in ApplyInput) (*model.Application, error) {
	if in.ExpectedSalary < model.MinAmount {
		return nil, validation("Expected salary must be at least %d", model.MinAmount)
	}

	var (
		app     *model.Application
		tuition *model.Tuition
	)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		tuition, err = s.tuitionRepo.GetByIDForUpdate(ctx, in.TuitionID)
		if err != nil {
			return fmt.Errorf("get tuition: %w", err)
		}
		if tuition == nil {
			return notFound("Tuition not found")
		}

		if !tuition.Status.AcceptsApplications() {
			return conflict("This tuition is not accepting applications")
		}

		// Уникальный индекс (tuition_id, tutor_id) остаётся источником истины
		existing, err := s.applicationRepo.GetByTuitionAndTutor(ctx, in.TuitionID, tutorID)
		if err != nil {
			return fmt.Errorf("check existing application: %w", err)
		}
		if existing != nil {
			return conflict("You have already applied to this tuition")
		}

		app = &model.Application{
			TuitionID:      in.TuitionID,
			TutorID:        tutorID,
			Qualifications: strings.TrimSpace(in.Qualifications),
			Experience:     strings.TrimSpace(in.Experience),
			ExpectedSalary: in.ExpectedSalary,
			Status:         model.ApplicationStatusPending,
		}
		if err := s.applicationRepo.Create(ctx, app); err != nil {
			return fromDuplicate(fmt.Errorf("create application: %w", err), "You have already applied to this tuition")
		}

		if err := s.tuitionRepo.AdjustApplicationCount(ctx, tuition.ID, 1); err != nil {
			return fmt.Errorf("increment application count: %w", err)
		}
		tuition.ApplicationCount++

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationTransitions.WithLabelValues(string(model.ApplicationStatusPending)).Inc()
	s.logger.Info("Application submitted",
		zap.Int64("application_id", app.ID),
		zap.Int64("tuition_id", tuition.ID),
		zap.Int64("tutor_id", tutorID),
	)

	s.notifier.Notify(ctx, tuition.StudentID, model.NotificationApplicationReceived,
		fmt.Sprintf("New application received for %s tuition", tuition.Subject),
		"/dashboard/student/applied-tutors",
	)

	app.Tuition = tuition
	return app, nil
}

// UpdateStatus одобряет или отклоняет заявку, только владелец объявления.
// Одобрение переводит объявление в Ongoing и отклоняет остальные заявки
// в той же транзакции.
func (s *ApplicationService) UpdateStatus(ctx context.Context, applicationID, ownerID int64, status model.ApplicationStatus) (*model.Application, error) {
	if status != model.ApplicationStatusApproved && status != model.ApplicationStatusRejected {
		return nil, validation("Invalid status")
	}

	var (
		app     *model.Application
		tuition *model.Tuition
	)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		app, err = s.applicationRepo.GetByID(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("get application: %w", err)
		}
		if app == nil {
			return notFound("Application not found")
		}

		tuition, err = s.tuitionRepo.GetByIDForUpdate(ctx, app.TuitionID)
		if err != nil {
			return fmt.Errorf("lock tuition: %w", err)
		}
		if tuition == nil {
			return notFound("Tuition not found")
		}
		if tuition.StudentID != ownerID {
			return forbidden("Not authorized to update this application")
		}

		// Перечитываем под блокировкой объявления
		app, err = s.applicationRepo.GetByID(ctx, applicationID)
		if err != nil {
			return fmt.Errorf("reload application: %w", err)
		}
		if app == nil {
			return notFound("Application not found")
		}
		if !app.IsPending() {
			return conflict("Application has already been processed")
		}

		if status == model.ApplicationStatusApproved {
			_, err := approveCascade(ctx, s.tuitionRepo, s.applicationRepo, app, tuition)
			return err
		}

		next, err := app.Status.Transition(model.ApplicationStatusRejected)
		if err != nil {
			return fromTransition(err, "Application has already been processed")
		}
		if err := s.applicationRepo.UpdateStatus(ctx, app.ID, next); err != nil {
			return fmt.Errorf("update application status: %w", err)
		}
		app.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationTransitions.WithLabelValues(string(app.Status)).Inc()
	s.logger.Info("Application status updated",
		zap.Int64("application_id", app.ID),
		zap.Int64("tuition_id", tuition.ID),
		zap.String("status", string(app.Status)),
	)

	notificationType := model.NotificationApplicationRejected
	if app.IsApproved() {
		notificationType = model.NotificationApplicationApproved
	}
	s.notifier.Notify(ctx, app.TutorID, notificationType,
		fmt.Sprintf("Your application for %s has been %s", tuition.Subject, strings.ToLower(string(app.Status))),
		"/dashboard/tutor/my-applications",
	)

	app.Tuition = tuition
	return app, nil
}

// approveCascade переводит заявку в Approved, объявление в Ongoing и отклоняет
// остальные активные заявки. Вызывается только внутри транзакции с заблокированным объявлением.
func approveCascade(
	ctx context.Context,
	tuitionRepo TuitionStore,
	applicationRepo ApplicationStore,
	app *model.Application,
	tuition *model.Tuition,
) ([]*model.Application, error) {
	next, err := app.Status.Transition(model.ApplicationStatusApproved)
	if err != nil {
		return nil, fromTransition(err, "Application has already been processed")
	}

	tuitionStatus, err := tuition.Status.Transition(model.TuitionStatusOngoing)
	if err != nil {
		return nil, fromTransition(err, fmt.Sprintf("Tuition in status %s cannot start", tuition.Status))
	}

	if next != app.Status {
		if err := applicationRepo.UpdateStatus(ctx, app.ID, next); err != nil {
			return nil, fmt.Errorf("approve application: %w", err)
		}
		app.Status = next
	}

	if tuitionStatus != tuition.Status {
		if err := tuitionRepo.UpdateStatus(ctx, tuition.ID, tuitionStatus); err != nil {
			return nil, fmt.Errorf("update tuition status: %w", err)
		}
		tuition.Status = tuitionStatus
	}

	rejected, err := applicationRepo.RejectSiblings(ctx, tuition.ID, app.ID)
	if err != nil {
		return nil, fmt.Errorf("reject sibling applications: %w", err)
	}

	return rejected, nil
}

// Update правит заявку, только автор и только пока она Pending
func (s *ApplicationService) Update(ctx context.Context, applicationID, tutorID int64, in UpdateApplicationInput) (*model.Application, error) {
	if in.ExpectedSalary != nil && *in.ExpectedSalary < model.MinAmount {
		return nil, validation("Expected salary must be at least %d", model.MinAmount)
	}

	var app *model.Application
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		app, err = s.lockApplication(ctx, applicationID)
		if err != nil {
			return err
		}
		if app.TutorID != tutorID {
			return forbidden("Not authorized to update this application")
		}
		if !app.IsPending() {
			return conflict("Cannot update application after it has been processed")
		}

		if q := strings.TrimSpace(in.Qualifications); q != "" {
			app.Qualifications = q
		}
		if e := strings.TrimSpace(in.Experience); e != "" {
			app.Experience = e
		}
		if in.ExpectedSalary != nil {
			app.ExpectedSalary = *in.ExpectedSalary
		}

		if err := s.applicationRepo.Update(ctx, app); err != nil {
			return fromStale(fmt.Errorf("update application: %w", err),
				"Cannot update application after it has been processed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Application updated",
		zap.Int64("application_id", app.ID),
		zap.Int64("tutor_id", tutorID),
	)

	return app, nil
}

// Delete удаляет Pending заявку. Удалить может автор или владелец объявления.
func (s *ApplicationService) Delete(ctx context.Context, applicationID int64, user *model.User) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		app, err := s.lockApplication(ctx, applicationID)
		if err != nil {
			return err
		}

		tuition, err := s.tuitionRepo.GetByID(ctx, app.TuitionID)
		if err != nil {
			return fmt.Errorf("get tuition: %w", err)
		}

		isOwner := tuition != nil && tuition.StudentID == user.ID
		if app.TutorID != user.ID && !isOwner {
			return forbidden("Not authorized to delete this application")
		}
		if !app.IsPending() {
			return conflict("Cannot delete application after it has been processed")
		}

		if err := s.applicationRepo.Delete(ctx, app.ID); err != nil {
			return fmt.Errorf("delete application: %w", err)
		}

		if tuition != nil {
			if err := s.tuitionRepo.AdjustApplicationCount(ctx, tuition.ID, -1); err != nil {
				return fmt.Errorf("decrement application count: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Application deleted",
		zap.Int64("application_id", applicationID),
		zap.Int64("user_id", user.ID),
	)
	return nil
}

// lockApplication берёт блокировку объявления и перечитывает заявку под ней.
// Вызывается только внутри транзакции.
func (s *ApplicationService) lockApplication(ctx context.Context, applicationID int64) (*model.Application, error) {
	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, notFound("Application not found")
	}

	if _, err := s.tuitionRepo.GetByIDForUpdate(ctx, app.TuitionID); err != nil {
		return nil, fmt.Errorf("lock tuition: %w", err)
	}

	app, err = s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, notFound("Application not found")
	}
	return app, nil
}

// GetByID заявка по id
func (s *ApplicationService) GetByID(ctx context.Context, id int64) (*model.Application, error) {
	app, err := s.applicationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, notFound("Application not found")
	}
	return app, nil
}

// ListForTutor заявки репетитора с объявлениями
func (s *ApplicationService) ListForTutor(ctx context.Context, tutorID int64) ([]*model.Application, error) {
	apps, err := s.applicationRepo.ListByTutor(ctx, tutorID)
	if err != nil {
		return nil, fmt.Errorf("list tutor applications: %w", err)
	}
	if err := s.populate(ctx, apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ListForStudent заявки на объявления студента с объявлениями и репетиторами
func (s *ApplicationService) ListForStudent(ctx context.Context, studentID int64) ([]*model.Application, error) {
	apps, err := s.applicationRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list student applications: %w", err)
	}
	if err := s.populate(ctx, apps); err != nil {
		return nil, err
	}
	return apps, nil
}

func (s *ApplicationService) populate(ctx context.Context, apps []*model.Application) error {
	if len(apps) == 0 {
		return nil
	}

	tuitionIDs := make([]int64, 0, len(apps))
	tutorIDs := make([]int64, 0, len(apps))
	for _, app := range apps {
		tuitionIDs = append(tuitionIDs, app.TuitionID)
		tutorIDs = append(tutorIDs, app.TutorID)
	}

	tuitions, err := s.tuitionRepo.GetByIDs(ctx, tuitionIDs)
	if err != nil {
		return fmt.Errorf("get tuitions: %w", err)
	}
	tutors, err := s.userRepo.GetByIDs(ctx, tutorIDs)
	if err != nil {
		return fmt.Errorf("get tutors: %w", err)
	}

	tuitionMap := make(map[int64]*model.Tuition, len(tuitions))
	for _, t := range tuitions {
		tuitionMap[t.ID] = t
	}
	tutorMap := make(map[int64]*model.User, len(tutors))
	for _, u := range tutors {
		tutorMap[u.ID] = u
	}

	for _, app := range apps {
		app.Tuition = tuitionMap[app.TuitionID]
		app.Tutor = tutorMap[app.TutorID]
	}
	return nil
}
