package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Unknown discount policies for order lines that reference a missing or inactive discount.
const (
	DiscountPolicyReject = "reject"
	DiscountPolicyIgnore = "ignore"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	CurrencyCode       string
	MigrationsAuto     bool

	ProductCacheTTL  time.Duration
	IdempotencyTTL   time.Duration
	OrderLockTTL     time.Duration
	LockRetryBackoff time.Duration
	UnknownDiscount  string
	DefaultPageSize  int

	RateLimit    string
	MaxBodyBytes int64

	ReconcileCron        string
	ReconcileConcurrency int
	ReconcileBatchSize   int
	WorkerConcurrency    int

	EventsWebhookURL     string
	EventsWebhookSecret  string
	EventsWebhookTimeout time.Duration

	Obs ObsConfig
}

// ObsConfig groups logging, metrics and tracing settings.
type ObsConfig struct {
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsEnabled   bool
	MetricsBuckets   string
	TracingEnabled   bool
	OTLPEndpoint     string
	SamplingRatio    float64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CurrencyCode:       strings.ToUpper(valueOrDefault(k.String("CURRENCY_CODE"), "USD")),
		MigrationsAuto:     parseBool(k.String("MIGRATIONS_AUTO"), true),

		ProductCacheTTL:  parseDuration(k.String("PRODUCT_CACHE_TTL"), "5m"),
		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		OrderLockTTL:     parseDuration(k.String("ORDER_LOCK_TTL"), "10s"),
		LockRetryBackoff: parseDuration(k.String("LOCK_RETRY_BACKOFF"), "50ms"),
		UnknownDiscount:  strings.ToLower(valueOrDefault(k.String("ORDER_UNKNOWN_DISCOUNT"), DiscountPolicyReject)),
		DefaultPageSize:  parseInt(k.String("DEFAULT_PAGE_SIZE"), 20),

		RateLimit:    valueOrDefault(k.String("RATE_LIMIT"), "300-M"),
		MaxBodyBytes: int64(parseInt(k.String("REQUEST_MAX_BODY_BYTES"), 1<<20)),

		ReconcileCron:        valueOrDefault(k.String("RECONCILE_CRON"), "*/15 * * * *"),
		ReconcileConcurrency: parseInt(k.String("RECONCILE_CONCURRENCY"), 4),
		ReconcileBatchSize:   parseInt(k.String("RECONCILE_BATCH_SIZE"), 500),
		WorkerConcurrency:    parseInt(k.String("WORKER_CONCURRENCY"), 5),

		EventsWebhookURL:     strings.TrimSpace(k.String("EVENTS_WEBHOOK_URL")),
		EventsWebhookSecret:  k.String("EVENTS_WEBHOOK_SECRET"),
		EventsWebhookTimeout: parseDuration(k.String("EVENTS_WEBHOOK_TIMEOUT"), "5s"),

		Obs: ObsConfig{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "stock"),
			MetricsEnabled:   parseBool(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
			TracingEnabled:   parseBool(k.String("OBS_ENABLE_TRACING"), false),
			OTLPEndpoint:     k.String("OBS_OTLP_ENDPOINT"),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	switch cfg.UnknownDiscount {
	case DiscountPolicyReject, DiscountPolicyIgnore:
	default:
		return nil, fmt.Errorf("ORDER_UNKNOWN_DISCOUNT must be %q or %q, got %q", DiscountPolicyReject, DiscountPolicyIgnore, cfg.UnknownDiscount)
	}
	if cfg.ReconcileConcurrency <= 0 {
		cfg.ReconcileConcurrency = 1
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
