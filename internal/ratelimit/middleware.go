package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-stock/internal/common"
)

// NewRedisStore wires a limiter store backed by Redis.
func NewRedisStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix})
}

// Handler enforces a fixed-window rate before delegating to the next handler.
type Handler struct {
	Limiter *limiter.Limiter
	Key     func(*http.Request) string
	OnError func(error)
}

// New builds a Handler from a formatted rate such as "300-M".
func New(store limiter.Store, formatted string) (*Handler, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	return &Handler{Limiter: limiter.New(store, rate), Key: common.ClientIP}, nil
}

// Middleware implements the http.Handler middleware interface.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h == nil || h.Limiter == nil || h.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		lctx, err := h.Limiter.Get(r.Context(), h.Key(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

		if lctx.Reached {
			retryAfter := int(time.Until(time.Unix(lctx.Reset, 0)).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
