package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-stock/internal/config"
	"github.com/noah-isme/backend-stock/internal/db"
)

// Dependencies holds the connections shared by the API and the worker.
type Dependencies struct {
	Config *config.Config
	Logger zerolog.Logger
	DB     *pgxpool.Pool
	Redis  *redis.Client
}

// Open connects to PostgreSQL and Redis. The caller owns Close.
func Open(ctx context.Context, cfg *config.Config, logger zerolog.Logger, appName string) (*Dependencies, error) {
	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions{ApplicationName: appName})
	if err != nil {
		return nil, err
	}
	rdb, err := NewRedis(ctx, cfg.RedisURL, cfg.Obs.MetricsEnabled)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Dependencies{Config: cfg, Logger: logger, DB: pool, Redis: rdb}, nil
}

// NewRedis parses url, instruments the client with redisotel and pings it.
func NewRedis(ctx context.Context, url string, withMetrics bool) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}
	if withMetrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("instrument redis metrics: %w", err)
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Close releases both connections.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
