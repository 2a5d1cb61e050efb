package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Freeeeeet/tuition_market/internal/metrics"
	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/base"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	settlementProcessor = "processor"
	settlementManual    = "manual"
)

type PaymentService struct {
	tx              Transactor
	tuitionRepo     TuitionStore
	applicationRepo ApplicationStore
	paymentRepo     PaymentStore
	processor       PaymentProcessor
	currency        string
	notifier        *NotificationService
	logger          *zap.Logger
}

// NewPaymentService processor может быть nil, тогда доступен только ручной путь
func NewPaymentService(
	tx Transactor,
	tuitionRepo TuitionStore,
	applicationRepo ApplicationStore,
	paymentRepo PaymentStore,
	processor PaymentProcessor,
	currency string,
	notifier *NotificationService,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		tx:              tx,
		tuitionRepo:     tuitionRepo,
		applicationRepo: applicationRepo,
		paymentRepo:     paymentRepo,
		processor:       processor,
		currency:        currency,
		notifier:        notifier,
		logger:          logger,
	}
}

// loadOwned заявка и объявление с проверкой, что платит владелец объявления
func (s *PaymentService) loadOwned(ctx context.Context, applicationID, studentID int64, lock bool) (*model.Application, *model.Tuition, error) {
	app, err := s.applicationRepo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, nil, fmt.Errorf("get application: %w", err)
	}
	if app == nil {
		return nil, nil, notFound("Application not found")
	}

	var tuition *model.Tuition
	if lock {
		tuition, err = s.tuitionRepo.GetByIDForUpdate(ctx, app.TuitionID)
	} else {
		tuition, err = s.tuitionRepo.GetByID(ctx, app.TuitionID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get tuition: %w", err)
	}
	if tuition == nil {
		return nil, nil, notFound("Tuition not found")
	}
	if tuition.StudentID != studentID {
		return nil, nil, forbidden("Not authorized to pay for this application")
	}

	return app, tuition, nil
}

// CreateIntent создаёт intent у процессора для одобренной заявки
func (s *PaymentService) CreateIntent(ctx context.Context, applicationID, studentID int64) (*model.PaymentIntent, error) {
	if s.processor == nil {
		return nil, &Error{Kind: KindUnavailable, Message: "Payment processor is not configured"}
	}

	app, tuition, err := s.loadOwned(ctx, applicationID, studentID, false)
	if err != nil {
		return nil, err
	}
	if !app.IsApproved() {
		return nil, conflict("Application is not approved")
	}

	metadata := map[string]string{
		"applicationId": strconv.FormatInt(app.ID, 10),
		"tuitionId":     strconv.FormatInt(tuition.ID, 10),
		"tutorId":       strconv.FormatInt(app.TutorID, 10),
		"studentId":     strconv.FormatInt(studentID, 10),
	}

	intent, err := s.processor.CreateIntent(ctx, app.ExpectedSalary, s.currency, metadata)
	if err != nil {
		s.logger.Error("Failed to create payment intent",
			zap.Int64("application_id", app.ID),
			zap.Error(err),
		)
		return nil, &Error{Kind: KindUnavailable, Message: "Payment processor unavailable", Err: err}
	}

	s.logger.Info("Payment intent created",
		zap.String("intent_id", intent.IntentID),
		zap.Int64("application_id", app.ID),
		zap.Int64("amount", app.ExpectedSalary),
	)

	return intent, nil
}

// HandleWebhook проверяет и применяет событие процессора. Повтор события не создаёт второй платёж.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.processor == nil {
		return &Error{Kind: KindUnavailable, Message: "Payment processor is not configured"}
	}

	event, err := s.processor.VerifyEvent(payload, signature)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("invalid_signature").Inc()
		s.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return &Error{Kind: KindInvalidSignature, Message: "Webhook signature verification failed", Err: err}
	}

	switch event.Type {
	case model.PaymentEventSucceeded:
		return s.settleSucceeded(ctx, event)
	case model.PaymentEventFailed:
		return s.settleFailed(ctx, event)
	default:
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		s.logger.Info("Unhandled webhook event", zap.String("type", event.RawType))
		return nil
	}
}

func (s *PaymentService) settleSucceeded(ctx context.Context, event *model.PaymentEvent) error {
	var (
		payment   *model.Payment
		app       *model.Application
		tuition   *model.Tuition
		duplicate bool
	)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		app, err = s.applicationRepo.GetByID(ctx, event.ApplicationID)
		if err != nil {
			return fmt.Errorf("get application: %w", err)
		}
		if app == nil {
			return nil
		}

		tuition, err = s.tuitionRepo.GetByIDForUpdate(ctx, app.TuitionID)
		if err != nil {
			return fmt.Errorf("lock tuition: %w", err)
		}
		if tuition == nil {
			app = nil
			return nil
		}

		payment, err = s.paymentRepo.GetByExternalRef(ctx, event.IntentID)
		if err != nil {
			return fmt.Errorf("get payment by intent: %w", err)
		}

		switch {
		case payment != nil && payment.Status == model.PaymentStatusSucceeded:
			duplicate = true
			return nil
		case payment != nil:
			next, err := payment.Status.Transition(model.PaymentStatusSucceeded)
			if err != nil {
				return fromTransition(err, "Payment has already been processed")
			}
			if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, next); err != nil {
				return fmt.Errorf("update payment status: %w", err)
			}
			payment.Status = next
		default:
			amount := event.Amount
			if amount <= 0 {
				amount = app.ExpectedSalary
			}
			payment = &model.Payment{
				StudentID:     tuition.StudentID,
				TutorID:       app.TutorID,
				TuitionID:     tuition.ID,
				ApplicationID: app.ID,
				Amount:        amount,
				ExternalRef:   event.IntentID,
				Status:        model.PaymentStatusSucceeded,
				Method:        model.PaymentMethodCard,
			}
			if err := s.paymentRepo.Create(ctx, payment); err != nil {
				return fmt.Errorf("create payment: %w", err)
			}
		}

		if app.Status == model.ApplicationStatusRejected {
			s.logger.Warn("Payment succeeded for rejected application",
				zap.Int64("application_id", app.ID),
				zap.String("intent_id", event.IntentID),
			)
			return nil
		}

		if _, err := approveCascade(ctx, s.tuitionRepo, s.applicationRepo, app, tuition); err != nil {
			if !errors.Is(err, ErrConflict) {
				return err
			}
			// Платёж уже проведён процессором, фиксируем его без смены статусов
			s.logger.Warn("Payment succeeded but tuition cannot start",
				zap.Int64("tuition_id", tuition.ID),
				zap.String("tuition_status", string(tuition.Status)),
				zap.Error(err),
			)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if app == nil {
		metrics.WebhookEvents.WithLabelValues("unknown_application").Inc()
		s.logger.Warn("Webhook references unknown application",
			zap.Int64("application_id", event.ApplicationID),
			zap.String("intent_id", event.IntentID),
		)
		return nil
	}

	if duplicate {
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		s.logger.Info("Duplicate payment event ignored", zap.String("intent_id", event.IntentID))
		return nil
	}

	metrics.WebhookEvents.WithLabelValues("succeeded").Inc()
	metrics.PaymentsSettled.WithLabelValues(settlementProcessor, string(model.PaymentStatusSucceeded)).Inc()
	s.logger.Info("Payment succeeded",
		zap.Int64("payment_id", payment.ID),
		zap.String("intent_id", event.IntentID),
		zap.Int64("application_id", app.ID),
	)

	s.notifier.Notify(ctx, payment.StudentID, model.NotificationPaymentSuccess,
		"Payment successful. Your tuition has started.", "/dashboard/student/my-tuitions")
	s.notifier.Notify(ctx, payment.TutorID, model.NotificationPaymentSuccess,
		"Payment received. Your tuition has started.", "/dashboard/tutor/ongoing-tuitions")

	return nil
}

// settleFailed записывает неуспешный платёж. Уведомлений нет.
func (s *PaymentService) settleFailed(ctx context.Context, event *model.PaymentEvent) error {
	var (
		payment *model.Payment
		known   bool
	)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		app, err := s.applicationRepo.GetByID(ctx, event.ApplicationID)
		if err != nil {
			return fmt.Errorf("get application: %w", err)
		}
		if app == nil {
			return nil
		}
		tuition, err := s.tuitionRepo.GetByIDForUpdate(ctx, app.TuitionID)
		if err != nil {
			return fmt.Errorf("lock tuition: %w", err)
		}
		if tuition == nil {
			return nil
		}

		existing, err := s.paymentRepo.GetByExternalRef(ctx, event.IntentID)
		if err != nil {
			return fmt.Errorf("get payment by intent: %w", err)
		}
		if existing != nil {
			known = true
			return nil
		}

		amount := event.Amount
		if amount <= 0 {
			amount = app.ExpectedSalary
		}
		payment = &model.Payment{
			StudentID:     tuition.StudentID,
			TutorID:       app.TutorID,
			TuitionID:     tuition.ID,
			ApplicationID: app.ID,
			Amount:        amount,
			ExternalRef:   event.IntentID,
			Status:        model.PaymentStatusFailed,
			Method:        model.PaymentMethodCard,
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		return nil
	})
	// Событие по тому же intent уже записано параллельным запросом
	if errors.Is(err, base.ErrDuplicate) {
		known = true
		err = nil
	}
	if err != nil {
		return err
	}

	switch {
	case known:
		metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		s.logger.Info("Duplicate payment event ignored", zap.String("intent_id", event.IntentID))
	case payment == nil:
		metrics.WebhookEvents.WithLabelValues("unknown_application").Inc()
		s.logger.Warn("Webhook references unknown application",
			zap.Int64("application_id", event.ApplicationID),
			zap.String("intent_id", event.IntentID),
		)
	default:
		metrics.WebhookEvents.WithLabelValues("failed").Inc()
		metrics.PaymentsSettled.WithLabelValues(settlementProcessor, string(model.PaymentStatusFailed)).Inc()
		s.logger.Info("Payment failed",
			zap.Int64("payment_id", payment.ID),
			zap.String("intent_id", event.IntentID),
		)
	}
	return nil
}

// CreateManual ручной платёж: сразу одобряет заявку и стартует объявление,
// сам платёж ждёт подтверждения админа. Уведомляется только студент.
func (s *PaymentService) CreateManual(ctx context.Context, applicationID, studentID int64, method model.PaymentMethod) (*model.Payment, error) {
	if method == "" {
		method = model.PaymentMethodManual
	}

	var payment *model.Payment

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		app, tuition, err := s.loadOwned(ctx, applicationID, studentID, true)
		if err != nil {
			return err
		}

		switch app.Status {
		case model.ApplicationStatusApproved:
			return conflict("Application already approved")
		case model.ApplicationStatusRejected:
			return conflict("Application has been rejected")
		}

		payment = &model.Payment{
			StudentID:     studentID,
			TutorID:       app.TutorID,
			TuitionID:     tuition.ID,
			ApplicationID: app.ID,
			Amount:        app.ExpectedSalary,
			ExternalRef:   "MANUAL_" + uuid.NewString(),
			Status:        model.PaymentStatusPendingApproval,
			Method:        method,
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		_, err = approveCascade(ctx, s.tuitionRepo, s.applicationRepo, app, tuition)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ApplicationTransitions.WithLabelValues(string(model.ApplicationStatusApproved)).Inc()
	metrics.PaymentsSettled.WithLabelValues(settlementManual, string(model.PaymentStatusPendingApproval)).Inc()
	s.logger.Info("Manual payment submitted",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("application_id", applicationID),
		zap.Int64("student_id", studentID),
	)

	s.notifier.Notify(ctx, studentID, model.NotificationPaymentSuccess,
		"Payment submitted. Waiting for Admin Approval.", "/dashboard/student/payments")

	return payment, nil
}

// Approve подтверждение ручного платежа админом, только здесь уведомляется репетитор
func (s *PaymentService) Approve(ctx context.Context, paymentID int64) (*model.Payment, error) {
	var payment *model.Payment

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.paymentRepo.GetByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("get payment: %w", err)
		}
		if payment == nil {
			return notFound("Payment not found")
		}
		if payment.Status != model.PaymentStatusPendingApproval {
			if payment.Status == model.PaymentStatusSucceeded {
				return conflict("Payment already approved")
			}
			return conflict("Payment in status %s cannot be approved", payment.Status)
		}

		next, err := payment.Status.Transition(model.PaymentStatusSucceeded)
		if err != nil {
			return fromTransition(err, "Payment already approved")
		}
		if err := s.paymentRepo.UpdateStatus(ctx, payment.ID, next); err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}
		payment.Status = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.PaymentsSettled.WithLabelValues(settlementManual, string(model.PaymentStatusSucceeded)).Inc()
	s.logger.Info("Payment approved",
		zap.Int64("payment_id", payment.ID),
		zap.Int64("tutor_id", payment.TutorID),
	)

	s.notifier.Notify(ctx, payment.StudentID, model.NotificationPaymentApproved,
		"Your payment has been approved by admin.", "/dashboard/student/payments")
	s.notifier.Notify(ctx, payment.TutorID, model.NotificationPaymentReceived,
		"Payment released by admin. Funds added to your account.", "/dashboard/tutor/revenue")

	return payment, nil
}

// ListForStudent успешные и ожидающие подтверждения платежи студента
func (s *PaymentService) ListForStudent(ctx context.Context, studentID int64, filter model.PaymentFilter) ([]*model.Payment, model.Pagination, error) {
	filter.StudentID = &studentID
	filter.TutorID = nil
	filter.Statuses = []model.PaymentStatus{model.PaymentStatusSucceeded, model.PaymentStatusPendingApproval}
	return s.list(ctx, filter)
}

// ListForTutor только подтверждённые платежи
func (s *PaymentService) ListForTutor(ctx context.Context, tutorID int64, filter model.PaymentFilter) ([]*model.Payment, model.Pagination, error) {
	filter.TutorID = &tutorID
	filter.StudentID = nil
	filter.Statuses = []model.PaymentStatus{model.PaymentStatusSucceeded}
	return s.list(ctx, filter)
}

// ListAll все платежи для админа
func (s *PaymentService) ListAll(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, model.Pagination, error) {
	filter.StudentID = nil
	filter.TutorID = nil
	filter.Statuses = nil
	return s.list(ctx, filter)
}

func (s *PaymentService) list(ctx context.Context, filter model.PaymentFilter) ([]*model.Payment, model.Pagination, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, model.Pagination{}, validation("'from' must not be after 'to'")
	}
	payments, total, err := s.paymentRepo.List(ctx, filter)
	if err != nil {
		return nil, model.Pagination{}, fmt.Errorf("list payments: %w", err)
	}
	return payments, filter.Page.Result(total), nil
}
