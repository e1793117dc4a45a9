package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SalimBinYousuf1/openai-api-platform/internal/api"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/config"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/core"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/db"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/logging"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/metrics"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/provider"
	"github.com/SalimBinYousuf1/openai-api-platform/internal/ratelimit"
)

const (
	recorderBuffer  = 1024
	janitorInterval = 10 * time.Minute
)

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run database migrations before starting")
	migrateDirFlag := flag.String("migrate-dir", "migrations", "Migration files directory")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	if *migrateFlag {
		logger.Info().Str("dir", *migrateDirFlag).Msg("running database migrations")
		if err := db.RunMigrations(cfg.DatabaseURL, *migrateDirFlag); err != nil {
			logger.Fatal().Err(err).Msg("migration failed")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(pool)

	services := core.NewServices(pool, cfg.UsageCacheTTL)
	upstream := provider.New(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	recorder := core.NewRecorder(services.Usage, logger, recorderBuffer)
	runner := core.NewFineTuneRunner(services.FineTune, logger)

	var limiter ratelimit.Limiter
	var memLimiter *ratelimit.MemoryLimiter
	switch cfg.RateLimitBackend {
	case "redis":
		limiter, err = ratelimit.NewRedisLimiter(ctx, cfg.RedisURL, cfg.RateLimitWindow)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		logger.Info().Str("backend", "redis").Msg("rate limiter ready")
	default:
		memLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimitWindow)
		limiter = memLimiter
		logger.Info().Str("backend", "memory").Msg("rate limiter ready")
	}

	srv := api.NewServer(logger, pool, services, upstream, limiter, recorder, cfg)

	httpServer := &http.Server{
		Addr:         cfg.HTTPListenAddr,
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streaming responses are long-lived
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPListenAddr).Msg("starting gateway server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error { return recorder.Run(gctx) })
	g.Go(func() error { return runner.Run(gctx) })
	if memLimiter != nil {
		g.Go(func() error { return memLimiter.RunJanitor(gctx, janitorInterval) })
	}

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			logger.Info().Str("signal", sig.String()).Msg("shutting down")
		case <-gctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("gateway exited")
	}
	logger.Info().Msg("gateway stopped")
}
