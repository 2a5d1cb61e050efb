package service_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type paymentScene struct {
	student *model.User
	tutors  []*model.User
	tuition *model.Tuition
	apps    []*model.Application
}

// newPaymentScene объявление студента с двумя Pending заявками
func newPaymentScene(t *testing.T, f *fixture) *paymentScene {
	t.Helper()
	sc := &paymentScene{student: f.user(t, model.RoleStudent)}
	sc.tuition = f.tuition(t, sc.student.ID, model.TuitionStatusApproved)
	for i := 0; i < 2; i++ {
		tutor := f.user(t, model.RoleTutor)
		sc.tutors = append(sc.tutors, tutor)
		sc.apps = append(sc.apps, f.apply(t, tutor.ID, sc.tuition.ID))
	}
	return sc
}

func succeededEvent(intentID string, app *model.Application) *model.PaymentEvent {
	return &model.PaymentEvent{
		Type:          model.PaymentEventSucceeded,
		RawType:       "payment_intent.succeeded",
		IntentID:      intentID,
		Amount:        app.ExpectedSalary,
		ApplicationID: app.ID,
		TuitionID:     app.TuitionID,
		TutorID:       app.TutorID,
	}
}

func TestCreateIntent(t *testing.T) {
	f := newFixture(t)
	sc := newPaymentScene(t, f)

	_, err := f.svc.Payments.CreateIntent(f.ctx, sc.apps[0].ID, sc.student.ID)
	assert.ErrorIs(t, err, service.ErrConflict, "pending application cannot be paid")

	_, err = f.svc.Applications.UpdateStatus(f.ctx, sc.apps[0].ID, sc.student.ID, model.ApplicationStatusApproved)
	require.NoError(t, err)

	_, err = f.svc.Payments.CreateIntent(f.ctx, sc.apps[0].ID, sc.tutors[1].ID)
	assert.ErrorIs(t, err, service.ErrForbidden)

	intent, err := f.svc.Payments.CreateIntent(f.ctx, sc.apps[0].ID, sc.student.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.IntentID)
	assert.NotEmpty(t, intent.ClientSecret)

	require.Len(t, f.processor.calls, 1)
	call := f.processor.calls[0]
	assert.Equal(t, int64(4000), call.Amount)
	assert.Equal(t, "bdt", call.Currency)
	assert.Equal(t, map[string]string{
		"applicationId": strconv.FormatInt(sc.apps[0].ID, 10),
		"tuitionId":     strconv.FormatInt(sc.tuition.ID, 10),
		"tutorId":       strconv.FormatInt(sc.tutors[0].ID, 10),
		"studentId":     strconv.FormatInt(sc.student.ID, 10),
	}, call.Metadata)

	// Создание intent ничего не пишет в хранилище
	assert.Empty(t, f.payments(t))
}

func TestCreateIntent_ProcessorUnavailable(t *testing.T) {
	f := newFixture(t)
	sc := newPaymentScene(t, f)
	_, err := f.svc.Applications.UpdateStatus(f.ctx, sc.apps[0].ID, sc.student.ID, model.ApplicationStatusApproved)
	require.NoError(t, err)

	f.processor.err = errors.New("connection refused")
	_, err = f.svc.Payments.CreateIntent(f.ctx, sc.apps[0].ID, sc.student.ID)
	assert.ErrorIs(t, err, service.ErrUnavailable)

	noProcessor := service.NewPaymentService(f.store.Tx, f.store.Tuitions, f.store.Applications, f.store.Payments,
		nil, "bdt", f.svc.Notifications, zaptest.NewLogger(t))
	_, err = noProcessor.CreateIntent(f.ctx, sc.apps[0].ID, sc.student.ID)
	assert.ErrorIs(t, err, service.ErrUnavailable)

	err = noProcessor.HandleWebhook(f.ctx, []byte("evt"), "valid")
	assert.ErrorIs(t, err, service.ErrUnavailable)
}

func TestWebhook_SucceededSettlesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	sc := newPaymentScene(t, f)
	f.processor.events["evt_ok"] = succeededEvent("pi_123", sc.apps[0])

	require.NoError(t, f.svc.Payments.HandleWebhook(f.ctx, []byte("evt_ok"), "valid"))

	payments := f.payments(t)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentStatusSucceeded, payments[0].Status)
	assert.Equal(t, "pi_123", payments[0].ExternalRef)
	assert.Equal(t, model.PaymentMethodCard, payments[0].Method)
	assert.Equal(t, sc.student.ID, payments[0].StudentID)
	assert.Equal(t, int64(4000), payments[0].Amount)

	assert.Equal(t, model.ApplicationStatusApproved, f.getApplication(t, sc.apps[0].ID).Status)
	assert.Equal(t, model.ApplicationStatusRejected, f.getApplication(t, sc.apps[1].ID).Status)
	assert.Equal(t, model.TuitionStatusOngoing, f.getTuition(t, sc.tuition.ID).Status)

	studentNotes := f.notifications(t, sc.student.ID)
	tutorNotes := f.notifications(t, sc.tutors[0].ID)

	// Повтор того же события
	require.NoError(t, f.svc.Payments.HandleWebhook(f.ctx, []byte("evt_ok"), "valid"))

	assert.Len(t, f.payments(t), 1)
	assert.Len(t, f.notifications(t, sc.student.ID), len(studentNotes))
	assert.Len(t, f.notifications(t, sc.tutors[0].ID), len(tutorNotes))
	assert.Contains(t, notificationTypes(tutorNotes), model.NotificationPaymentSuccess)
	assert.Contains(t, notificationTypes(studentNotes), model.NotificationPaymentSuccess)
}

func TestWebhook_InvalidSignatureChangesNothing(t *testing.T) {
	f := newFixture(t)
	sc := newPaymentScene(t, f)
	f.processor.events["evt_ok"] = succeededEvent("pi_123", sc.apps[0])

	err := f.svc.Payments.HandleWebhook(f.ctx, []byte("evt_ok"), "forged")
	assert.ErrorIs(t, err, service.ErrInvalidSignature)

	assert.Empty(t, f.payments(t))
	assert.Equal(t, model.ApplicationStatusPending, f.getApplication(t, sc.apps[0].ID).Status)
	assert.Equal(t, model.TuitionStatusApproved, f.getTuition(t, sc.tuition.ID).Status)
}

func TestWebhook_FailedThenRetriedIntent(t *testing.T) {
	f := newFixture(t)
	sc := newPaymentScene(t, f)
	failed := succeededEvent("pi_retry", sc.apps[0])
	failed.Type = model.PaymentEventFailed
	f.processor.events["evt_failed"] = failed
	f.processor.events["evt_ok"] = succeededEvent("pi_retry", sc.apps[0])

	require.NoError(t, f.svc.Payments.HandleWebhook(f.ctx, []byte("evt_failed"), "valid"))

	payments := f.payments(t)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentStatusFailed, payments[0].Status)
	assert.NotContains(t, notificationTypes(f.notifications(t, sc.tutors[0].ID)), model.NotificationPaymentSuccess)
	assert.Equal(t, model.ApplicationStatusPending, f.getApplication(t, sc.apps[0].ID).Status)

	require.NoError(t, f.svc.Payments.HandleWebhook(f.ctx, []byte("evt_ok"), "valid"))

	payments = f.payments(t)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentStatusSucceeded, payments[0].Status)
	assert.Equal(t, model.TuitionStatusOngoing, f.getTuition(t, sc.tuition.ID).Status)
}

func TestWebhook_ConcurrentFailedAndSucceededForSameIntent(t *testing.T) {
	f := newFixture(t)
	sc := newPaymentScene(t, f)
	failed := succeededEvent("pi_race", sc.apps[0])
	failed.Type = model.PaymentEventFailed
	f.processor.events["evt_failed"] = failed
	f.processor.events["evt_ok"] = succeededEvent("pi_race", sc.apps[0])

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, key := range []string{"evt_failed", "evt_ok"} {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			errs[i] = f.svc.Payments.HandleWebhook(f.ctx, []byte(key), "valid")
		}(i, key)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// В любом порядке остаётся один платёж, и он успешный
	payments := f.payments(t)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentStatusSucceeded, payments[0].Status)
	assert.Equal(t, model.TuitionStatusOngoing, f.getTuition(t, sc.tuition.ID).Status)
}

// staleRefStore не видит уже записанные платежи при поиске по intent
type staleRefStore struct {
	service.PaymentStore
}

func (staleRefStore) GetByExternalRef(context.Context, string) (*model.Payment, error) {
	return nil, nil
}

func TestWebhook_FailedEventHittingExistingRefIsDuplicate(t *testing.T) {
	f := newFixture(t)
	sc := newPaymentScene(t, f)
	f.processor.events["evt_ok"] = succeededEvent("pi_dup", sc.apps[0])
	failed := succeededEvent("pi_dup", sc.apps[0])
	failed.Type = model.PaymentEventFailed
	f.processor.events["evt_failed"] = failed

	require.NoError(t, f.svc.Payments.HandleWebhook(f.ctx, []byte("evt_ok"), "valid"))

	store := *f.store
	store.Payments = staleRefStore{f.store.Payments}
	svc := service.NewServices(&store, service.Adapters{Processor: f.processor, Currency: "bdt"}, zaptest.NewLogger(t))

	assert.NoError(t, svc.Payments.HandleWebhook(f.ctx, []byte("evt_failed"), "valid"))

	payments := f.payments(t)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentStatusSucceeded, payments[0].Status)
}

func TestWebhook_IgnoredAndUnknownEventsAreAcknowledged(t *testing.T) {
	f := newFixture(t)
	f.processor.events["evt_orphan"] = &model.PaymentEvent{
		Type:          model.PaymentEventSucceeded,
		IntentID:      "pi_orphan",
		ApplicationID: 424242,
	}

	assert.NoError(t, f.svc.Payments.HandleWebhook(f.ctx, []byte("charge.refunded"), "valid"))
	assert.NoError(t, f.svc.Payments.HandleWebhook(f.ctx, []byte("evt_orphan"), "valid"))
	assert.Empty(t, f.payments(t))
}

func TestManualPayment_OptimisticApprovalAndTwoPhaseNotification(t *testing.T) {
	f := newFixture(t)
	sc := newPaymentScene(t, f)
	payment, err := f.svc.Payments.CreateManual(f.ctx, sc.apps[0].ID, sc.student.ID, model.PaymentMethodBankTransfer)
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusPendingApproval, payment.Status)
	assert.True(t, strings.HasPrefix(payment.ExternalRef, "MANUAL_"))
	assert.Equal(t, model.PaymentMethodBankTransfer, payment.Method)
	assert.Equal(t, int64(4000), payment.Amount)

	assert.Equal(t, model.ApplicationStatusApproved, f.getApplication(t, sc.apps[0].ID).Status)
	assert.Equal(t, model.ApplicationStatusRejected, f.getApplication(t, sc.apps[1].ID).Status)
	assert.Equal(t, model.TuitionStatusOngoing, f.getTuition(t, sc.tuition.ID).Status)

	// До подтверждения админом репетитор ничего не получает
	assert.NotContains(t, notificationTypes(f.notifications(t, sc.tutors[0].ID)), model.NotificationPaymentReceived)
	studentNotes := f.notifications(t, sc.student.ID)
	require.NotEmpty(t, studentNotes)
	assert.Equal(t, model.NotificationPaymentSuccess, studentNotes[0].Type)
	assert.Equal(t, "Payment submitted. Waiting for Admin Approval.", studentNotes[0].Message)

	approved, err := f.svc.Payments.Approve(f.ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusSucceeded, approved.Status)

	assert.Contains(t, notificationTypes(f.notifications(t, sc.student.ID)), model.NotificationPaymentApproved)
	assert.Contains(t, notificationTypes(f.notifications(t, sc.tutors[0].ID)), model.NotificationPaymentReceived)

	_, err = f.svc.Payments.Approve(f.ctx, payment.ID)
	assert.ErrorIs(t, err, service.ErrConflict)

	_, err = f.svc.Payments.Approve(f.ctx, 999999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestManualPayment_Rejections(t *testing.T) {
	f := newFixture(t)
	sc := newPaymentScene(t, f)

	_, err := f.svc.Payments.CreateManual(f.ctx, sc.apps[0].ID, sc.tutors[0].ID, "")
	assert.ErrorIs(t, err, service.ErrForbidden)

	_, err = f.svc.Payments.CreateManual(f.ctx, sc.apps[0].ID, sc.student.ID, "")
	require.NoError(t, err)

	_, err = f.svc.Payments.CreateManual(f.ctx, sc.apps[0].ID, sc.student.ID, "")
	assert.ErrorIs(t, err, service.ErrConflict, "already approved")

	_, err = f.svc.Payments.CreateManual(f.ctx, sc.apps[1].ID, sc.student.ID, "")
	assert.ErrorIs(t, err, service.ErrConflict, "rejected by cascade")

	assert.Len(t, f.payments(t), 1)
}

func TestPaymentLists(t *testing.T) {
	f := newFixture(t)
	sc := newPaymentScene(t, f)

	failed := succeededEvent("pi_failed", sc.apps[1])
	failed.Type = model.PaymentEventFailed
	f.processor.events["evt_failed"] = failed
	require.NoError(t, f.svc.Payments.HandleWebhook(f.ctx, []byte("evt_failed"), "valid"))

	manual, err := f.svc.Payments.CreateManual(f.ctx, sc.apps[0].ID, sc.student.ID, "")
	require.NoError(t, err)

	page := model.NewPage(1, 10, 10)

	studentList, _, err := f.svc.Payments.ListForStudent(f.ctx, sc.student.ID, model.PaymentFilter{Page: page})
	require.NoError(t, err)
	require.Len(t, studentList, 1)
	assert.Equal(t, manual.ID, studentList[0].ID)

	tutorList, _, err := f.svc.Payments.ListForTutor(f.ctx, sc.tutors[0].ID, model.PaymentFilter{Page: page})
	require.NoError(t, err)
	assert.Empty(t, tutorList, "pending approval is not visible to the tutor")

	_, err = f.svc.Payments.Approve(f.ctx, manual.ID)
	require.NoError(t, err)

	tutorList, _, err = f.svc.Payments.ListForTutor(f.ctx, sc.tutors[0].ID, model.PaymentFilter{Page: page})
	require.NoError(t, err)
	assert.Len(t, tutorList, 1)

	all, pagination, err := f.svc.Payments.ListAll(f.ctx, model.PaymentFilter{Page: page})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 2, pagination.Total)

	from := time.Now().Add(time.Hour)
	to := time.Now()
	_, _, err = f.svc.Payments.ListAll(f.ctx, model.PaymentFilter{From: &from, To: &to, Page: page})
	assert.ErrorIs(t, err, service.ErrValidation)
}
