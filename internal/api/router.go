package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cenk2025/hardpath/internal/api/auth"
	"github.com/cenk2025/hardpath/internal/api/bloodpressure"
	"github.com/cenk2025/hardpath/internal/api/checkins"
	"github.com/cenk2025/hardpath/internal/api/clinician"
	"github.com/cenk2025/hardpath/internal/api/medications"
	"github.com/cenk2025/hardpath/internal/api/messages"
	"github.com/cenk2025/hardpath/internal/api/middleware"
	"github.com/cenk2025/hardpath/internal/api/programs"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/api/scoring"
	"github.com/cenk2025/hardpath/internal/api/symptoms"
	"github.com/cenk2025/hardpath/internal/api/users"
	"github.com/cenk2025/hardpath/internal/api/wearables"
)

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.PrometheusMiddleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recoverer)

	authHandler := auth.NewHandler(s.storage, s.jwt, s.lockout, s.config.RefreshTokenTTL)
	userHandler := users.NewHandler(s.storage, s.tokens)
	checkinHandler := checkins.NewHandler(s.storage)
	bpHandler := bloodpressure.NewHandler(s.storage)
	medHandler := medications.NewHandler(s.storage)
	programHandler := programs.NewHandler(s.storage)
	messageHandler := messages.NewHandler(s.storage, s.hub)
	wearableHandler := wearables.NewHandler(s.storage, s.connector, s.broker, s.ingester, s.config.WebhookSecret)
	clinicianHandler := clinician.NewHandler(s.storage, s.alerts)
	scoringHandler := scoring.NewHandler()

	var notify symptoms.Dispatcher
	if s.deps.Notifier != nil {
		notify = s.deps.Notifier
	}
	symptomHandler := symptoms.NewHandler(s.storage, notify, s.hub)

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes with IP rate limiting
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByIP(s.ipLimiter))
				r.Post("/register", authHandler.Register)
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)
			})
			r.With(middleware.JWTAuth(s.jwt)).Post("/logout", authHandler.Logout)
		})

		// Vendor webhook, authenticated by signature
		r.With(middleware.RateLimitByIP(s.hookLimiter)).Post("/webhooks/wearable", wearableHandler.Webhook)

		// Realtime events; browsers cannot set headers on the upgrade request
		r.With(middleware.JWTAuthOrQuery(s.jwt)).Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			s.hub.ServeWS(w, r, middleware.GetUserID(ctx), middleware.GetRole(ctx))
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(s.jwt))
			r.Use(middleware.RateLimitByUser(s.userLimiter))

			r.Get("/me", userHandler.GetCurrentUser)
			r.Put("/me", userHandler.UpdateCurrentUser)
			r.Post("/me/onboarding", userHandler.CompleteOnboarding)
			r.Put("/me/password", userHandler.ChangePassword)
			r.Delete("/me", userHandler.DeleteCurrentUser)

			r.Get("/messages", messageHandler.Conversation)
			r.Post("/messages", messageHandler.Send)
			r.Get("/contacts", messageHandler.Contacts)

			r.Post("/risk/readiness", scoringHandler.Readiness)
			r.Post("/risk/overexertion", scoringHandler.Overexertion)

			// Patient self-reporting
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePatient)

				r.Post("/checkins", checkinHandler.Create)
				r.Get("/checkins", checkinHandler.List)
				r.Get("/insight", checkinHandler.Insight)

				r.Post("/symptoms", symptomHandler.Create)
				r.Get("/symptoms", symptomHandler.List)

				r.Post("/blood-pressure", bpHandler.Create)
				r.Get("/blood-pressure", bpHandler.List)
				r.Delete("/blood-pressure/{id}", bpHandler.Delete)

				r.Get("/medications", medHandler.List)
				r.Post("/medications", medHandler.Create)
				r.Put("/medications/{id}", medHandler.Update)
				r.Delete("/medications/{id}", medHandler.Delete)

				r.Get("/program", programHandler.Plan)
				r.Post("/sessions/{id}/complete", programHandler.CompleteSession)

				r.Route("/wearables", func(r chi.Router) {
					r.Get("/", wearableHandler.List)
					r.Get("/providers", wearableHandler.Providers)
					r.Post("/connect", wearableHandler.Connect)
					r.Get("/{provider}/wait", wearableHandler.Wait)
					r.Delete("/{provider}", wearableHandler.Delete)
				})
			})

			// Care team
			r.Route("/clinician", func(r chi.Router) {
				r.Use(middleware.RequireCareTeam)

				r.Get("/patients", clinicianHandler.Patients)
				r.Get("/patients/{id}", clinicianHandler.Patient)
				r.Get("/patients/{id}/risk", clinicianHandler.Risk)

				r.Get("/alerts", clinicianHandler.Alerts)
				r.Post("/alerts/{key}/resolve", clinicianHandler.Resolve)
				r.Delete("/alerts/{key}/resolve", clinicianHandler.Reopen)

				r.Get("/programs", programHandler.ListPrograms)
				r.Post("/programs", programHandler.CreateProgram)
				r.Post("/programs/{id}/assign", programHandler.Assign)
			})

			// Administration
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/users", userHandler.List)
				r.Put("/users/{id}/role", userHandler.UpdateRole)
				r.Delete("/users/{id}", userHandler.Delete)
			})
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respond.NotFound(w, "route not found")
		})
	})

	// Health checks (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)

	return r
}
