package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Freeeeeet/tuition_market/internal/controller/handlers"
	"github.com/Freeeeeet/tuition_market/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Options параметры HTTP-сервера
type Options struct {
	Addr              string
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Server HTTP API маркетплейса
type Server struct {
	http   *http.Server
	logger *zap.Logger
}

func NewServer(opts Options, h *handlers.Handlers, logger *zap.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           NewRouter(opts, h, logger),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       2 * time.Minute,
		},
		logger: logger,
	}
}

// NewRouter собирает все маршруты API
func NewRouter(opts Options, h *handlers.Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.LimitByIP(opts.RateLimitRequests, opts.RateLimitWindow))
		r.Use(prometheusMetrics)

		r.Get("/health", health)

		r.Route("/auth", func(r chi.Router) {
			r.Use(httprate.LimitByIP(authLimit(opts.RateLimitRequests), opts.RateLimitWindow))
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.With(h.Authenticate).Get("/me", h.Me)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.Authenticate)
			r.With(h.RequireRole(model.RoleAdmin)).Get("/", h.ListUsers)
			r.Get("/{id}", h.GetUser)
			r.Put("/{id}", h.UpdateUser)
			r.Group(func(r chi.Router) {
				r.Use(h.RequireRole(model.RoleAdmin))
				r.Patch("/{id}/role", h.UpdateUserRole)
				r.Patch("/{id}/verify", h.ToggleUserVerified)
				r.Delete("/{id}", h.DeleteUser)
			})
		})

		r.Route("/tuitions", func(r chi.Router) {
			r.Get("/", h.ListTuitions)
			r.Get("/{id}", h.GetTuition)

			r.Group(func(r chi.Router) {
				r.Use(h.Authenticate)
				r.With(h.RequireRole(model.RoleStudent)).Post("/", h.CreateTuition)
				r.With(h.RequireRole(model.RoleStudent)).Get("/student/my-tuitions", h.ListMyTuitions)
				r.With(h.RequireRole(model.RoleStudent)).Put("/{id}", h.UpdateTuition)
				r.With(h.RequireRole(model.RoleStudent, model.RoleAdmin)).Delete("/{id}", h.DeleteTuition)
				r.With(h.RequireRole(model.RoleAdmin)).Get("/admin/all", h.ListAllTuitions)
				r.With(h.RequireRole(model.RoleAdmin)).Patch("/{id}/approve", h.ApproveTuition)
				r.With(h.RequireRole(model.RoleAdmin)).Patch("/{id}/reject", h.RejectTuition)
			})
		})

		r.Route("/applications", func(r chi.Router) {
			r.Use(h.Authenticate)
			r.With(h.RequireRole(model.RoleTutor)).Post("/", h.CreateApplication)
			r.With(h.RequireRole(model.RoleStudent)).Get("/student", h.ListStudentApplications)
			r.With(h.RequireRole(model.RoleTutor)).Get("/tutor", h.ListTutorApplications)
			r.With(h.RequireRole(model.RoleStudent)).Patch("/{id}", h.UpdateApplicationStatus)
			r.With(h.RequireRole(model.RoleTutor)).Put("/{id}", h.UpdateApplication)
			r.With(h.RequireRole(model.RoleTutor, model.RoleStudent)).Delete("/{id}", h.DeleteApplication)
		})

		r.Route("/payments", func(r chi.Router) {
			// Вебхук процессора: без сессии, проверяется подписью
			r.Post("/webhook", h.PaymentWebhook)

			r.Group(func(r chi.Router) {
				r.Use(h.Authenticate)
				r.With(h.RequireRole(model.RoleStudent)).Post("/create-intent", h.CreatePaymentIntent)
				r.With(h.RequireRole(model.RoleStudent)).Post("/manual", h.CreateManualPayment)
				r.With(h.RequireRole(model.RoleStudent)).Get("/student", h.ListStudentPayments)
				r.With(h.RequireRole(model.RoleTutor)).Get("/tutor", h.ListTutorPayments)
				r.With(h.RequireRole(model.RoleAdmin)).Get("/admin", h.ListAllPayments)
				r.With(h.RequireRole(model.RoleAdmin)).Put("/{id}/approve", h.ApprovePayment)
			})
		})

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/tutor/{tutorId}", h.ListTutorReviews)
			r.With(h.Authenticate, h.RequireRole(model.RoleStudent)).Post("/", h.CreateReview)
		})

		r.Route("/messages", func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Post("/", h.SendMessage)
			r.Get("/{conversationId}", h.GetConversation)
			r.Patch("/{id}/read", h.MarkMessageRead)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Get("/", h.ListNotifications)
			r.Patch("/read-all", h.MarkAllNotificationsRead)
			r.Patch("/{id}/read", h.MarkNotificationRead)
		})

		r.Route("/bookmarks", func(r chi.Router) {
			r.Use(h.Authenticate)
			r.Post("/", h.CreateBookmark)
			r.Get("/", h.ListBookmarks)
			r.Delete("/{id}", h.DeleteBookmark)
		})
	})

	return r
}

// authLimit на входе и регистрации лимит строже общего
func authLimit(requests int) int {
	return max(requests/5, 5)
}

// Start блокирует до остановки сервера
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown дожидается активных запросов в пределах ctx
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.http.Shutdown(ctx)
}
