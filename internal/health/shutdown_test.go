package health_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-stock/internal/health"
)

func TestReadinessAfterShutdown(t *testing.T) {
	handler := health.Handler{Probes: map[string]health.Probe{"db": ok}}
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)

	health.SetReady(true)
	resp := httptest.NewRecorder()
	handler.Ready(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	health.SetReady(false)
	t.Cleanup(func() { health.SetReady(true) })
	resp2 := httptest.NewRecorder()
	handler.Ready(resp2, req)
	require.Equal(t, http.StatusServiceUnavailable, resp2.Code)
	require.Contains(t, resp2.Body.String(), "draining")
}
