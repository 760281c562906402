package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-stock/internal/app"
	"github.com/noah-isme/backend-stock/internal/catalog"
	"github.com/noah-isme/backend-stock/internal/client"
	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/config"
	"github.com/noah-isme/backend-stock/internal/db"
	"github.com/noah-isme/backend-stock/internal/discount"
	"github.com/noah-isme/backend-stock/internal/health"
	"github.com/noah-isme/backend-stock/internal/jobs"
	"github.com/noah-isme/backend-stock/internal/obs"
	"github.com/noah-isme/backend-stock/internal/order"
	"github.com/noah-isme/backend-stock/internal/payterm"
	"github.com/noah-isme/backend-stock/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("api exited")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		Enabled:       cfg.Obs.TracingEnabled,
		ServiceName:   "backend-stock-api",
		Endpoint:      cfg.Obs.OTLPEndpoint,
		SamplingRatio: cfg.Obs.SamplingRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	if cfg.MigrationsAuto {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		logger.Info().Msg("migrations applied")
	}

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := app.Open(startCtx, cfg, logger, "backend-stock-api")
	cancel()
	if err != nil {
		return err
	}
	defer deps.Close()

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}

	svcs := app.NewServices(deps)

	queueOpts, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return err
	}
	jobClient := jobs.NewClient(queueOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close job client")
		}
	}()
	inspector := asynq.NewInspector(queueOpts)
	defer func() { _ = inspector.Close() }()

	limitStore, err := ratelimit.NewRedisStore(deps.Redis, "stock:ratelimit")
	if err != nil {
		return err
	}
	limiter, err := ratelimit.New(limitStore, cfg.RateLimit)
	if err != nil {
		return err
	}
	limiter.OnError = func(err error) {
		logger.Warn().Err(err).Msg("rate limiter unavailable")
	}

	val := common.NewValidator()
	pageSize := cfg.DefaultPageSize
	router := app.NewRouter(app.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Production:     cfg.IsProduction(),
		Metrics:        httpMetrics,
		Tracing:        cfg.Obs.TracingEnabled,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		RateLimit:      limiter.Middleware,
		Idempotency:    common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}.Middleware,
		Handlers: app.Handlers{
			Products:  &catalog.Handler{Svc: svcs.Products, Validator: val, PageSize: pageSize},
			Discounts: &discount.Handler{Svc: svcs.Discounts, Validator: val, PageSize: pageSize},
			Terms:     &payterm.Handler{Svc: svcs.Terms, Validator: val},
			Clients:   &client.Handler{Svc: svcs.Clients, Validator: val, PageSize: pageSize},
			Orders:    &order.Handler{Svc: svcs.Orders, Validator: val, Jobs: jobClient, PageSize: pageSize},
			Jobs:      &jobs.AdminHandler{Inspector: inspector, PageSize: pageSize, Logger: logger},
			Health: health.Handler{Probes: map[string]health.Probe{
				"db":    health.PostgresProbe(deps.DB),
				"redis": health.RedisProbe(deps.Redis),
			}},
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err, ok := <-errCh; ok && err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
