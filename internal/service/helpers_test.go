package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tuition_market/internal/identity"
	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/memory"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeVerifier struct {
	uids map[string]string
}

func (v *fakeVerifier) Verify(_ context.Context, idToken string) (string, error) {
	uid, ok := v.uids[idToken]
	if !ok {
		return "", errors.New("token rejected")
	}
	return uid, nil
}

type intentCall struct {
	Amount   int64
	Currency string
	Metadata map[string]string
}

type fakeProcessor struct {
	mu     sync.Mutex
	calls  []intentCall
	err    error
	events map[string]*model.PaymentEvent
}

func newFakeProcessor() *fakeProcessor {
	return &fakeProcessor{events: map[string]*model.PaymentEvent{}}
}

func (p *fakeProcessor) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*model.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.calls = append(p.calls, intentCall{Amount: amount, Currency: currency, Metadata: metadata})
	return &model.PaymentIntent{
		IntentID:     fmt.Sprintf("pi_%d", len(p.calls)),
		ClientSecret: fmt.Sprintf("pi_%d_secret", len(p.calls)),
	}, nil
}

// VerifyEvent подпись "valid" принимается, payload это ключ заранее заготовленного события
func (p *fakeProcessor) VerifyEvent(payload []byte, signature string) (*model.PaymentEvent, error) {
	if signature != "valid" {
		return nil, errors.New("signature mismatch")
	}
	event, ok := p.events[string(payload)]
	if !ok {
		return &model.PaymentEvent{Type: model.PaymentEventIgnored, RawType: string(payload)}, nil
	}
	return event, nil
}

type fixture struct {
	ctx       context.Context
	store     *service.Store
	svc       *service.Services
	verifier  *fakeVerifier
	processor *fakeProcessor
	sessions  *identity.TokenIssuer
	seq       int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sessions, err := identity.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	f := &fixture{
		ctx:       context.Background(),
		store:     memory.New().Service(),
		verifier:  &fakeVerifier{uids: map[string]string{}},
		processor: newFakeProcessor(),
		sessions:  sessions,
	}
	f.svc = service.NewServices(f.store, service.Adapters{
		Identity:  f.verifier,
		Sessions:  sessions,
		Processor: f.processor,
		Currency:  "bdt",
	}, zaptest.NewLogger(t))
	return f
}

func (f *fixture) user(t *testing.T, role model.Role) *model.User {
	t.Helper()
	f.seq++
	u := &model.User{
		ExternalID:  fmt.Sprintf("uid-%d", f.seq),
		Name:        fmt.Sprintf("%s %d", role, f.seq),
		Email:       fmt.Sprintf("%s%d@example.com", role, f.seq),
		Role:        role,
		IsAvailable: true,
	}
	require.NoError(t, f.store.Users.Create(f.ctx, u))
	return u
}

func (f *fixture) tuition(t *testing.T, studentID int64, status model.TuitionStatus) *model.Tuition {
	t.Helper()
	tuition := &model.Tuition{
		StudentID:  studentID,
		Subject:    "Physics",
		ClassLevel: "Class 10",
		Location:   "Dhaka",
		Budget:     5000,
		Schedule:   "Sun, Tue 6pm",
		Mode:       model.TuitionModeOffline,
		Status:     status,
	}
	require.NoError(t, f.store.Tuitions.Create(f.ctx, tuition))
	return tuition
}

func (f *fixture) apply(t *testing.T, tutorID, tuitionID int64) *model.Application {
	t.Helper()
	app, err := f.svc.Applications.Apply(f.ctx, tutorID, service.ApplyInput{
		TuitionID:      tuitionID,
		Qualifications: "BSc Physics",
		Experience:     "3 years",
		ExpectedSalary: 4000,
	})
	require.NoError(t, err)
	return app
}

func (f *fixture) getTuition(t *testing.T, id int64) *model.Tuition {
	t.Helper()
	tuition, err := f.store.Tuitions.GetByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, tuition)
	return tuition
}

func (f *fixture) getApplication(t *testing.T, id int64) *model.Application {
	t.Helper()
	app, err := f.store.Applications.GetByID(f.ctx, id)
	require.NoError(t, err)
	require.NotNil(t, app)
	return app
}

func (f *fixture) notifications(t *testing.T, userID int64) []*model.Notification {
	t.Helper()
	items, _, err := f.store.Notifications.List(f.ctx, model.NotificationFilter{
		UserID: userID,
		Page:   model.NewPage(1, model.MaxPageLimit, model.MaxPageLimit),
	})
	require.NoError(t, err)
	return items
}

func (f *fixture) payments(t *testing.T) []*model.Payment {
	t.Helper()
	items, _, err := f.store.Payments.List(f.ctx, model.PaymentFilter{
		Page: model.NewPage(1, model.MaxPageLimit, model.MaxPageLimit),
	})
	require.NoError(t, err)
	return items
}

func notificationTypes(items []*model.Notification) []model.NotificationType {
	types := make([]model.NotificationType, 0, len(items))
	for _, n := range items {
		types = append(types, n.Type)
	}
	return types
}
