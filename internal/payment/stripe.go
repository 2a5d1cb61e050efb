// Package payment адаптер Stripe: PaymentIntents и проверка подписи вебхуков.
// Суммы снаружи в основных единицах валюты, Stripe получает минорные (x100).
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Freeeeeet/tuition_market/internal/metrics"
	"github.com/Freeeeeet/tuition_market/internal/model"
	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const (
	eventSucceeded = "payment_intent.succeeded"
	eventFailed    = "payment_intent.payment_failed"

	minorUnits = 100
)

var (
	ErrCircuitOpen      = errors.New("payment processor circuit open")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

type StripeProcessor struct {
	api           *client.API
	webhookSecret string
	breaker       *gobreaker.CircuitBreaker[*stripe.PaymentIntent]
	logger        *zap.Logger
}

// NewStripeProcessor backends nil для боевого API Stripe
func NewStripeProcessor(secretKey, webhookSecret string, backends *stripe.Backends, cfg BreakerConfig, logger *zap.Logger) *StripeProcessor {
	api := &client.API{}
	api.Init(secretKey, backends)

	p := &StripeProcessor{
		api:           api,
		webhookSecret: webhookSecret,
		logger:        logger,
	}

	p.breaker = gobreaker.NewCircuitBreaker[*stripe.PaymentIntent](gobreaker.Settings{
		Name:        "stripe",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	metrics.CircuitBreakerState.WithLabelValues("stripe").Set(float64(gobreaker.StateClosed))

	return p
}

// CreateIntent создаёт PaymentIntent, amount в основных единицах
func (p *StripeProcessor) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*model.PaymentIntent, error) {
	pi, err := p.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		params := &stripe.PaymentIntentParams{
			Amount:   stripe.Int64(amount * minorUnits),
			Currency: stripe.String(currency),
		}
		params.Context = ctx
		for k, v := range metadata {
			params.AddMetadata(k, v)
		}
		return p.api.PaymentIntents.New(params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrCircuitOpen, err)
		}
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &model.PaymentIntent{
		IntentID:     pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

// VerifyEvent проверяет подпись Stripe-Signature и разбирает событие.
// Неизвестные типы событий возвращаются как PaymentEventIgnored.
func (p *StripeProcessor) VerifyEvent(payload []byte, signature string) (*model.PaymentEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	out := &model.PaymentEvent{
		Type:    model.PaymentEventIgnored,
		RawType: string(event.Type),
	}

	switch string(event.Type) {
	case eventSucceeded:
		out.Type = model.PaymentEventSucceeded
	case eventFailed:
		out.Type = model.PaymentEventFailed
	default:
		return out, nil
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("decode payment intent: %w", err)
	}

	out.IntentID = pi.ID
	out.Amount = pi.Amount / minorUnits
	out.ApplicationID = metadataID(pi.Metadata, "applicationId")
	out.TuitionID = metadataID(pi.Metadata, "tuitionId")
	out.TutorID = metadataID(pi.Metadata, "tutorId")
	out.StudentID = metadataID(pi.Metadata, "studentId")

	return out, nil
}

func metadataID(md map[string]string, key string) int64 {
	id, _ := strconv.ParseInt(md[key], 10, 64)
	return id
}
