package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-stock/internal/app"
	"github.com/noah-isme/backend-stock/internal/config"
	"github.com/noah-isme/backend-stock/internal/jobs"
	"github.com/noah-isme/backend-stock/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "worker").Logger()
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("worker exited")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		Enabled:       cfg.Obs.TracingEnabled,
		ServiceName:   "backend-stock-worker",
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

	if cfg.Obs.MetricsEnabled {
		obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	}

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := app.Open(startCtx, cfg, logger, "backend-stock-worker")
	cancel()
	if err != nil {
		return err
	}
	defer deps.Close()

	svcs := app.NewServices(deps)
	reconcile := &jobs.ReconcileJob{
		Orders:      svcs.Orders,
		Logger:      logger.With().Str("job", "reconcile").Logger(),
		Concurrency: cfg.ReconcileConcurrency,
		BatchSize:   cfg.ReconcileBatchSize,
	}

	queueOpts, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return err
	}
	sweepTask, err := jobs.NewSweepTask()
	if err != nil {
		return err
	}
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   queueOpts,
		Concurrency: cfg.WorkerConcurrency,
		Logger:      logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskOrderReconcile, Handler: reconcile.HandleReconcile},
			{Type: jobs.TaskOrderReconcileSweep, Handler: reconcile.HandleSweep},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.ReconcileCron, Task: sweepTask, Options: []asynq.Option{asynq.Unique(time.Minute)}},
		},
	})
	if err != nil {
		return err
	}
	return worker.Run(ctx)
}
