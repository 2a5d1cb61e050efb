package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Freeeeeet/tuition_market/internal/app"
	"github.com/Freeeeeet/tuition_market/internal/config"
	"github.com/Freeeeeet/tuition_market/internal/controller"
	"github.com/Freeeeeet/tuition_market/internal/controller/handlers"
	"github.com/Freeeeeet/tuition_market/internal/identity"
	"github.com/Freeeeeet/tuition_market/internal/notify"
	"github.com/Freeeeeet/tuition_market/internal/payment"
	"github.com/Freeeeeet/tuition_market/internal/service"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting tuition market API",
		zap.String("environment", cfg.Environment),
		zap.String("storage", cfg.Storage),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
	logger.Info("Server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	sessions, err := identity.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}

	adapters := service.Adapters{
		Sessions: sessions,
		Currency: cfg.PaymentCurrency,
	}

	if cfg.FirebaseProjectID != "" {
		verifier, err := identity.NewFirebaseVerifier(ctx, cfg.FirebaseProjectID, cfg.FirebaseJWKSURL)
		if err != nil {
			return err
		}
		adapters.Identity = verifier
	} else {
		logger.Warn("FIREBASE_PROJECT_ID not set, registration and login are disabled")
	}

	if cfg.StripeSecretKey != "" {
		adapters.Processor = payment.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeWebhookSecret, nil,
			payment.DefaultBreakerConfig(), logger.Named("stripe"))
	} else {
		logger.Warn("STRIPE_SECRET_KEY not set, card payments are disabled")
	}

	var tasks []app.Task
	if cfg.TelegramToken != "" {
		b, err := notify.NewBot(cfg.TelegramToken)
		if err != nil {
			return err
		}
		relay := notify.NewTelegramRelay(b, store.Users, notify.DefaultQueueSize, logger.Named("relay"))
		adapters.Relay = relay
		tasks = append(tasks, app.Task{Name: "telegram-relay", Run: relay.Run})
	}

	services := service.NewServices(store, adapters, logger)

	scheduler := app.NewScheduler(logger, tasks...)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	server := controller.NewServer(controller.Options{
		Addr:              cfg.HTTPAddr,
		CORSOrigins:       cfg.CORSOrigins,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindow,
	}, handlers.NewHandlers(services, sessions, logger.Named("http")), logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
