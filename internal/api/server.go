package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api/handler"
	mw "github.com/SalimBinYousuf1/openai-api-platform/internal/api/middleware"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/config"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/core"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/provider"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/ratelimit"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	pool     *pgxpool.Pool
	upstream provider.Client
	limiter  ratelimit.Limiter
	recorder *core.Recorder
	cfg      *config.Config
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, services *core.Services, upstream provider.Client, limiter ratelimit.Limiter, recorder *core.Recorder, cfg *config.Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		pool:     pool,
		upstream: upstream,
		limiter:  limiter,
		recorder: recorder,
		cfg:      cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	// OpenAI-compatible API surface, bearer-key authenticated.
	s.router.Route("/v1", func(r chi.Router) {
		r.Use(mw.Auth(s.services.APIKey, s.logger))
		r.Use(mw.RateLimit(s.limiter, s.logger))

		chat := handler.NewChat(s.upstream, s.recorder, s.cfg.UpstreamTimeout)
		r.Post("/chat/completions", chat.Create)

		images := handler.NewImages(s.upstream, s.recorder, s.cfg.UpstreamTimeout)
		r.Post("/images/generations", images.Create)

		embeddings := handler.NewEmbeddings(s.upstream, s.recorder, s.cfg.UpstreamTimeout)
		r.Post("/embeddings", embeddings.Create)

		moderations := handler.NewModerations(s.upstream, s.recorder, s.cfg.UpstreamTimeout)
		r.Post("/moderations", moderations.Create)

		fineTune := handler.NewFineTune(s.services.FineTune, s.recorder)
		r.Post("/fine-tuning/jobs", fineTune.Create)
		r.Get("/fine-tuning/jobs", fineTune.List)
		r.Get("/fine-tuning/jobs/{id}", fineTune.Get)
		r.Post("/fine-tuning/jobs/{id}/cancel", fineTune.Cancel)

		models := handler.NewModels()
		r.Get("/models", models.List)
		r.Get("/models/{model}", models.Get)
	})

	// Dashboard JSON endpoints, basic-auth against the users table.
	s.router.Route("/dashboard", func(r chi.Router) {
		users := handler.NewUsers(s.services.User, s.services.APIKey, s.cfg.DefaultRateLimit)
		r.Post("/register", users.Register)

		r.Group(func(r chi.Router) {
			r.Use(mw.DashboardAuth(s.services.User))

			keys := handler.NewKeys(s.services.APIKey, s.services.Usage, s.cfg.DefaultRateLimit)
			r.Get("/keys", keys.List)
			r.Post("/keys", keys.Create)
			r.Get("/keys/{id}", keys.Get)
			r.Patch("/keys/{id}", keys.Update)
			r.Delete("/keys/{id}", keys.Delete)
			r.Get("/keys/{id}/usage", keys.Usage)

			usage := handler.NewUsage(s.services.Usage)
			r.Get("/usage/overview", usage.Overview)
			r.Get("/usage/report", usage.Report)
		})
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
