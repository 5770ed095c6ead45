package api

import (
	"net/http"

	"github.com/dom/members-only/internal/api/handlers"
	"github.com/dom/members-only/internal/api/middleware"
	"github.com/dom/members-only/internal/config"
	"github.com/dom/members-only/internal/metrics"
	"github.com/dom/members-only/internal/service"
	"github.com/dom/members-only/internal/session"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

func NewRouter(services *service.Services, sessions *session.Manager, cfg *config.Config, m *metrics.Metrics, log *logrus.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	sessions.SetErrorFunc(func(w http.ResponseWriter, r *http.Request, err error) {
		log.WithError(err).
			WithField("request_id", chiMiddleware.GetReqID(r.Context())).
			Error("session store")
		http.Error(w, handlers.GenericErrorMessage, http.StatusInternalServerError)
	})

	dev := cfg.IsDevelopment()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, sessions, log, dev)
	membershipHandler := handlers.NewMembershipHandler(services.Auth, sessions, log, dev)
	messageHandler := handlers.NewMessageHandler(services.Message, sessions, log, dev)

	r.Group(func(r chi.Router) {
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), dev, cfg.Port), log))
		r.Use(sessions.LoadAndSave)
		r.Use(middleware.LoadPrincipal(sessions, log))

		// Public routes
		r.Get("/", authHandler.Page("home"))
		r.Get("/login", authHandler.Page("login"))
		r.Get("/register", authHandler.Page("register"))
		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
		r.Post("/logout", authHandler.Logout)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuthenticated(m))
			r.Get("/become-member", authHandler.Page("become-member"))
			r.Post("/become-member", membershipHandler.BecomeMember)
			r.Get("/messages", messageHandler.List)
		})

		r.With(middleware.RequireMember(sessions, m)).Post("/create-message", messageHandler.Create)
		r.With(middleware.RequireAdmin(m, log)).Post("/delete-message/{id}", messageHandler.Delete)
	})

	return r
}
