package controller_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Freeeeeet/tuition_market/internal/controller"
	"github.com/Freeeeeet/tuition_market/internal/controller/handlers"
	"github.com/Freeeeeet/tuition_market/internal/identity"
	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/Freeeeeet/tuition_market/internal/repository/memory"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type rejectingProcessor struct{}

func (rejectingProcessor) CreateIntent(context.Context, int64, string, map[string]string) (*model.PaymentIntent, error) {
	return &model.PaymentIntent{IntentID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

func (rejectingProcessor) VerifyEvent([]byte, string) (*model.PaymentEvent, error) {
	return nil, errors.New("signature mismatch")
}

type response struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Errors     []struct {
		Field string `json:"field"`
		Tag   string `json:"tag"`
	} `json:"errors"`
}

type testServer struct {
	router   http.Handler
	store    *service.Store
	sessions *identity.TokenIssuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := zaptest.NewLogger(t)
	sessions, err := identity.NewTokenIssuer("router-test-secret", time.Hour)
	require.NoError(t, err)

	store := memory.New().Service()
	services := service.NewServices(store, service.Adapters{
		Sessions:  sessions,
		Processor: rejectingProcessor{},
		Currency:  "bdt",
	}, logger)

	router := controller.NewRouter(controller.Options{
		CORSOrigins:       []string{"http://localhost:5173"},
		RateLimitRequests: 1000,
		RateLimitWindow:   time.Minute,
	}, handlers.NewHandlers(services, sessions, logger), logger)

	return &testServer{router: router, store: store, sessions: sessions}
}

func (s *testServer) user(t *testing.T, role model.Role, email string) (*model.User, string) {
	t.Helper()
	u := &model.User{ExternalID: "uid-" + email, Name: "Test " + string(role), Email: email, Role: role}
	require.NoError(t, s.store.Users.Create(context.Background(), u))
	token, err := s.sessions.Issue(u.ID, u.Role)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	}
	return rec, resp
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)
	student, token := s.user(t, model.RoleStudent, "student@example.com")

	rec, resp := s.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "UNAUTHENTICATED", resp.Code)

	rec, resp = s.do(t, http.MethodGet, "/api/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", resp.Message)

	rec, resp = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	var me model.User
	require.NoError(t, json.Unmarshal(resp.Data, &me))
	assert.Equal(t, student.ID, me.ID)

	// Токен удалённого аккаунта больше не действует
	require.NoError(t, s.store.Users.Delete(context.Background(), student.ID))
	rec, _ = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRoleGuards(t *testing.T) {
	s := newTestServer(t)
	_, studentToken := s.user(t, model.RoleStudent, "student@example.com")
	_, tutorToken := s.user(t, model.RoleTutor, "tutor@example.com")
	_, adminToken := s.user(t, model.RoleAdmin, "admin@example.com")

	rec, resp := s.do(t, http.MethodGet, "/api/tuitions/admin/all", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", resp.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/tuitions/", tutorToken, map[string]any{"subject": "Math"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/api/users/", studentToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, resp = s.do(t, http.MethodGet, "/api/users/", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 3, resp.Pagination.Total)
}

func TestTuitionLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, studentToken := s.user(t, model.RoleStudent, "student@example.com")
	_, adminToken := s.user(t, model.RoleAdmin, "admin@example.com")

	rec, resp := s.do(t, http.MethodPost, "/api/tuitions/", studentToken, map[string]any{
		"subject":    "Physics",
		"classLevel": "Class 10",
		"location":   "Dhaka",
		"budget":     5000,
		"schedule":   "Sun, Tue 6pm",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created model.Tuition
	require.NoError(t, json.Unmarshal(resp.Data, &created))
	assert.Equal(t, model.TuitionStatusPending, created.Status)
	assert.Equal(t, model.TuitionModeOffline, created.Mode)

	// До модерации объявления нет в каталоге
	rec, resp = s.do(t, http.MethodGet, "/api/tuitions/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 0, resp.Pagination.Total)

	rec, _ = s.do(t, http.MethodPatch, "/api/tuitions/"+itoa(created.ID)+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, resp = s.do(t, http.MethodGet, "/api/tuitions/?subject=phys&sort=budgetDesc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, resp.Pagination.Total)

	rec, resp = s.do(t, http.MethodGet, "/api/tuitions/?sort=random", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)

	rec, resp = s.do(t, http.MethodPatch, "/api/tuitions/"+itoa(created.ID)+"/approve", adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", resp.Code)

	rec, resp = s.do(t, http.MethodGet, "/api/tuitions/999999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", resp.Code)
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)
	_, studentToken := s.user(t, model.RoleStudent, "student@example.com")

	rec, resp := s.do(t, http.MethodPost, "/api/tuitions/", studentToken, map[string]any{
		"subject": "Physics",
		"budget":  100,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)

	fields := map[string]string{}
	for _, e := range resp.Errors {
		fields[e.Field] = e.Tag
	}
	assert.Equal(t, "gte", fields["budget"])
	assert.Equal(t, "required", fields["classLevel"])
	assert.Equal(t, "required", fields["location"])

	req := httptest.NewRequest(http.MethodPost, "/api/tuitions/", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Authorization", "Bearer "+studentToken)
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = s.do(t, http.MethodPost, "/api/tuitions/", studentToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Request body is required", resp.Message)
}

func TestWebhookSignature(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader([]byte(`{"type":"payment_intent.succeeded"}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=forged")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_SIGNATURE", resp.Code)
}

func TestRegisterWithoutIdentityProvider(t *testing.T) {
	s := newTestServer(t)

	rec, resp := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"idToken": "token",
		"name":    "Rahim",
		"email":   "rahim@example.com",
		"phone":   "01700000000",
		"role":    "tutor",
		"city":    "Dhaka",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "UNAVAILABLE", resp.Code)

	rec, resp = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"idToken": "token",
		"name":    "Rahim",
		"email":   "rahim@example.com",
		"phone":   "01700000000",
		"role":    "admin",
		"city":    "Dhaka",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
