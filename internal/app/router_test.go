package app_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/noah-isme/backend-stock/internal/app"
	"github.com/noah-isme/backend-stock/internal/config"
	"github.com/noah-isme/backend-stock/internal/events"
	"github.com/noah-isme/backend-stock/internal/health"
	"github.com/noah-isme/backend-stock/internal/jobs"
	"github.com/noah-isme/backend-stock/internal/obs"
	"github.com/noah-isme/backend-stock/internal/ratelimit"
)

type queueInfo struct{}

func (queueInfo) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 2}, nil
}

func (queueInfo) ListArchivedTasks(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return nil, nil
}

func (queueInfo) RunTask(string, string) error { return asynq.ErrTaskNotFound }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	limit, err := ratelimit.New(memory.NewStore(), "2-M")
	require.NoError(t, err)
	return app.NewRouter(app.RouterConfig{
		Logger:       zerolog.Nop(),
		Metrics:      obs.NewHTTPMetrics("router_test", nil, prometheus.NewRegistry()),
		RateLimit:    limit.Middleware,
		MaxBodyBytes: 64,
		Handlers: app.Handlers{
			Jobs: &jobs.AdminHandler{Inspector: queueInfo{}, Logger: zerolog.Nop()},
			Health: health.Handler{Probes: map[string]health.Probe{
				"db": func(context.Context) error { return nil },
			}},
		},
	})
}

func TestRouterServesHealthWithSecurityHeaders(t *testing.T) {
	router := newTestRouter(t)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterJSONNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestRouterRateLimitsAPIOnly(t *testing.T) {
	router := newTestRouter(t)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/jobs/stats", nil))
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterRejectsOversizedAPIBodies(t *testing.T) {
	rec := httptest.NewRecorder()
	body := strings.NewReader(strings.Repeat("x", 100))
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/jobs/archived/abc/retry", body))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	require.Contains(t, rec.Body.String(), `"code":"PAYLOAD_TOO_LARGE"`)
}

func TestNotifiersAddWebhookWhenConfigured(t *testing.T) {
	cfg := &config.Config{}
	require.Len(t, app.Notifiers(cfg, zerolog.Nop()), 1)

	cfg.EventsWebhookURL = "https://hooks.example.test/stock"
	notifiers := app.Notifiers(cfg, zerolog.Nop())
	require.Len(t, notifiers, 2)
	_, ok := notifiers[1].(*events.WebhookNotifier)
	require.True(t, ok)
}
