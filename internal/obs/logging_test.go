package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestRequestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", "info")
	mw := RequestLogger{Logger: logger, SkipPaths: []string{"/health"}}

	for _, tc := range []struct {
		path   string
		status int
	}{
		{"/health/live", http.StatusOK},
		{"/api/v1/orders", http.StatusUnprocessableEntity},
		{"/api/v1/orders", http.StatusCreated},
	} {
		h := mw.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		req := httptest.NewRequest(http.MethodPost, tc.path, nil)
		req.Header.Set("Idempotency-Key", "k-1")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2, "health probe is logged at debug only")
	require.Equal(t, "warn", lines[0]["level"])
	require.EqualValues(t, 422, lines[0]["status"])
	require.Equal(t, "info", lines[1]["level"])
	require.Equal(t, "k-1", lines[1]["idempotency_key"])
	require.Equal(t, "backend-stock", lines[1]["service"])
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "json", "chatty")
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	require.Equal(t, "shown", lines[0]["message"])
}

func TestContextLoggerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")

	logX := ContextLogger(ctx, base)
	logX.Info().Msg("x")
	logY := ContextLogger(context.Background(), base)
	logY.Info().Msg("y")

	lines := decodeLines(t, &buf)
	require.Equal(t, "req-42", lines[0]["request_id"])
	require.NotContains(t, lines[1], "request_id")
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 12.5}, ParseBucketsCSV(" 5, x, -1, 12.5 ,"))
	require.Nil(t, ParseBucketsCSV(""))
}

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), TracingConfig{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
