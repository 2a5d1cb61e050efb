package payment

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap/zaptest"
)

const testWebhookSecret = "whsec_test_secret"

func newTestProcessor(t *testing.T, handler http.HandlerFunc, cfg BreakerConfig) *StripeProcessor {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(srv.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})

	return NewStripeProcessor("sk_test_123", testWebhookSecret,
		&stripe.Backends{API: backend, Connect: backend, Uploads: backend},
		cfg, zaptest.NewLogger(t))
}

func TestCreateIntentConvertsToMinorUnits(t *testing.T) {
	var form map[string][]string
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_123","object":"payment_intent","client_secret":"pi_123_secret_abc"}`))
	}, DefaultBreakerConfig())

	intent, err := p.CreateIntent(context.Background(), 1500, "bdt", map[string]string{"applicationId": "7"})
	require.NoError(t, err)

	assert.Equal(t, "pi_123", intent.IntentID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, []string{"150000"}, form["amount"])
	assert.Equal(t, []string{"bdt"}, form["currency"])
	assert.Equal(t, []string{"7"}, form["metadata[applicationId]"])
}

func TestCreateIntentOpensCircuit(t *testing.T) {
	var calls atomic.Int32
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	}, BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 2})

	for i := 0; i < 2; i++ {
		_, err := p.CreateIntent(context.Background(), 500, "bdt", nil)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}

	_, err := p.CreateIntent(context.Background(), 500, "bdt", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, int32(2), calls.Load())
}

func signedPayload(t *testing.T, payload string) (string, []byte) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Header, signed.Payload
}

func TestVerifyEvent(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {}, DefaultBreakerConfig())

	succeeded := `{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_9","object":"payment_intent","amount":250000,"metadata":{"applicationId":"3","tuitionId":"2","tutorId":"5","studentId":"1"}}}}`

	t.Run("succeeded", func(t *testing.T) {
		header, body := signedPayload(t, succeeded)
		event, err := p.VerifyEvent(body, header)
		require.NoError(t, err)

		assert.Equal(t, model.PaymentEventSucceeded, event.Type)
		assert.Equal(t, "pi_9", event.IntentID)
		assert.Equal(t, int64(2500), event.Amount)
		assert.Equal(t, int64(3), event.ApplicationID)
		assert.Equal(t, int64(2), event.TuitionID)
		assert.Equal(t, int64(5), event.TutorID)
		assert.Equal(t, int64(1), event.StudentID)
	})

	t.Run("ignored type", func(t *testing.T) {
		header, body := signedPayload(t, `{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{}}}`)
		event, err := p.VerifyEvent(body, header)
		require.NoError(t, err)
		assert.Equal(t, model.PaymentEventIgnored, event.Type)
		assert.Equal(t, "charge.refunded", event.RawType)
	})

	t.Run("bad signature", func(t *testing.T) {
		_, err := p.VerifyEvent([]byte(succeeded), "t=1,v1=deadbeef")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidSignature))
	})
}
