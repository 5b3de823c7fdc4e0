package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/team-progress-api/internal/application/alerting"
	"github.com/team-progress-api/internal/application/member"
	"github.com/team-progress-api/internal/application/notifier"
	"github.com/team-progress-api/internal/application/progress"
	"github.com/team-progress-api/internal/application/session"
	"github.com/team-progress-api/internal/application/tasks"
	"github.com/team-progress-api/internal/config"
	"github.com/team-progress-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/team-progress-api/internal/infrastructure/jwt"
	s3infra "github.com/team-progress-api/internal/infrastructure/s3"
	"github.com/team-progress-api/internal/transport/http/handler"
	appmiddleware "github.com/team-progress-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	MemberRepo   *dynamo.MemberRepo
	ProgressRepo *dynamo.ProgressRepo
	S3Store      *s3infra.Store
	Dispatcher   notifier.Service
	AlertSvc     alerting.Service
	Orchestrator *tasks.Orchestrator
	JWTProvider  *jwtinfra.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10. Applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	memberSvc := member.NewService(deps.MemberRepo, deps.S3Store)
	progressSvc := progress.NewService(deps.ProgressRepo, deps.MemberRepo)
	sessionSvc := session.NewService(deps.MemberRepo, deps.JWTProvider)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	memberH := handler.NewMemberHandler(memberSvc)
	progressH := handler.NewProgressHandler(progressSvc)
	notifH := handler.NewNotificationHandler(memberSvc, deps.Dispatcher, deps.Orchestrator)
	alertH := handler.NewAlertHandler(deps.AlertSvc, deps.Orchestrator)
	taskH := handler.NewTaskHandler(deps.Orchestrator)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/test", healthH.Test)
		r.Post("/test", healthH.Test)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/members", memberH.Register)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/members", memberH.List)
			r.Get("/members/{id}", memberH.Get)
			r.Put("/members/{id}", memberH.Update)
			r.Delete("/members/{id}", memberH.Delete)
			r.Put("/members/{id}/tokens", memberH.UpdateTokens)
			r.Post("/members/{id}/symbols", memberH.UploadSymbol)
			r.Get("/members/{id}/symbols/{symbol}", memberH.DownloadSymbol)
			r.Delete("/members/{id}/symbols/{symbol}", memberH.DeleteSymbol)
			r.Get("/members/{id}/progress", progressH.ListByMember)

			r.Post("/progress", progressH.Create)
			r.Get("/progress", progressH.List)
			r.Get("/progress/{id}", progressH.Get)
			r.Put("/progress/{id}", progressH.Update)
			r.Delete("/progress/{id}", progressH.Delete)

			r.Get("/activity/status", progressH.ActivityStatus)

			r.Post("/notifications/send", notifH.Send)
			r.Post("/notifications/reminders", notifH.RunReminders)

			r.Get("/alerts", alertH.ListActive)
			r.Post("/alerts/{id}/deactivate", alertH.Deactivate)
			r.Post("/alerts/sweep", alertH.Sweep)

			r.Post("/tasks/{task}/run", taskH.Run)
			r.Get("/tasks/logs", taskH.Logs)
		})
	})

	return r
}
