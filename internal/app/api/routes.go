package api

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/idleforest/idleforest/internal/config"
	"github.com/idleforest/idleforest/internal/http/handlers/auth/login"
	"github.com/idleforest/idleforest/internal/http/handlers/auth/register"
	forestmetrics "github.com/idleforest/idleforest/internal/http/handlers/forest/metrics"
	"github.com/idleforest/idleforest/internal/http/handlers/health"
	"github.com/idleforest/idleforest/internal/http/handlers/node/link"
	profileread "github.com/idleforest/idleforest/internal/http/handlers/profile/read"
	profileupdate "github.com/idleforest/idleforest/internal/http/handlers/profile/update"
	referralcode "github.com/idleforest/idleforest/internal/http/handlers/referral/code"
	"github.com/idleforest/idleforest/internal/http/handlers/referral/generate"
	referralstats "github.com/idleforest/idleforest/internal/http/handlers/referral/stats"
	teamcreate "github.com/idleforest/idleforest/internal/http/handlers/team/create"
	"github.com/idleforest/idleforest/internal/http/handlers/team/join"
	"github.com/idleforest/idleforest/internal/http/handlers/team/leave"
	teamlist "github.com/idleforest/idleforest/internal/http/handlers/team/list"
	"github.com/idleforest/idleforest/internal/http/handlers/team/mine"
	teamremove "github.com/idleforest/idleforest/internal/http/handlers/team/remove"
	"github.com/idleforest/idleforest/internal/http/middlewarectx"
	"github.com/idleforest/idleforest/internal/services/linker"
	authservice "github.com/idleforest/idleforest/internal/services/auth"
	"github.com/idleforest/idleforest/internal/services/forest"
	profileservice "github.com/idleforest/idleforest/internal/services/profiles"
	referralservice "github.com/idleforest/idleforest/internal/services/referral"
	teamservice "github.com/idleforest/idleforest/internal/services/teams"

	// Сгенерированная swag документация.
	_ "github.com/idleforest/idleforest/docs"
)

// Services набор сервисов, которые обслуживает API.
type Services struct {
	Auth     *authservice.AuthService
	Linker   *linker.Linker
	Profiles *profileservice.ProfileService
	Teams    *teamservice.TeamService
	Referral *referralservice.ReferralService
	Forest   *forest.Service
	DB       health.Pinger
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg config.HTTPServer, s Services, gatherer prometheus.Gatherer) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RateLimit, cfg.RateBurst))

		// Открытые конечные точки
		r.Get("/health", health.New(logger, s.DB).ServeHTTP)
		r.Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)
		r.Get("/teams", teamlist.New(logger, s.Teams).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))

			r.Post("/nodes/link", link.New(logger, s.Linker).ServeHTTP)

			r.Get("/profile", profileread.New(logger, s.Profiles).ServeHTTP)
			r.Put("/profile", profileupdate.New(logger, s.Profiles).ServeHTTP)

			r.Get("/teams/mine", mine.New(logger, s.Teams).ServeHTTP)
			r.Post("/teams", teamcreate.New(logger, s.Teams).ServeHTTP)
			r.Post("/teams/{id}/join", join.New(logger, s.Teams).ServeHTTP)
			r.Post("/teams/{id}/leave", leave.New(logger, s.Teams).ServeHTTP)
			r.Delete("/teams/{id}", teamremove.New(logger, s.Teams).ServeHTTP)

			r.Get("/referral/code", referralcode.New(logger, s.Referral).ServeHTTP)
			r.Post("/referral/code", generate.New(logger, s.Referral).ServeHTTP)
			r.Get("/referral/stats", referralstats.New(logger, s.Referral).ServeHTTP)

			r.Get("/forest/metrics", forestmetrics.New(logger, s.Forest).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
