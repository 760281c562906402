package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-stock/internal/health"
)

func ok(context.Context) error { return nil }

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestReadyWithRedisProbe(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	handler := health.Handler{Probes: map[string]health.Probe{
		"db":    ok,
		"redis": health.RedisProbe(client),
	}}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var status map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	require.Equal(t, map[string]string{"db": "ok", "redis": "ok"}, status)
}

func TestReadyFailure(t *testing.T) {
	handler := health.Handler{Timeout: 10 * time.Millisecond, Probes: map[string]health.Probe{
		"db":    func(context.Context) error { return errors.New("db down") },
		"redis": ok,
	}}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, rr.Body.String(), "db down")
}

func TestReadyHonoursTimeout(t *testing.T) {
	handler := health.Handler{Timeout: 5 * time.Millisecond, Probes: map[string]health.Probe{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}}
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, rr.Body.String(), "deadline")
}
