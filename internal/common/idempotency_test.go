package common_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-stock/internal/common"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestIdemRejectsReplay(t *testing.T) {
	idem := common.Idem{R: newRedis(t), TTL: time.Minute}
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusCreated, send("/api/v1/orders").Code)
	replay := send("/api/v1/orders")
	require.Equal(t, http.StatusConflict, replay.Code)
	require.True(t, strings.Contains(replay.Body.String(), "IDEMPOTENT_REPLAY"))
	require.Equal(t, http.StatusCreated, send("/api/v1/clients").Code)
	require.Equal(t, 2, calls)
}

func TestIdemReleasesKeyOnServerError(t *testing.T) {
	idem := common.Idem{R: newRedis(t), TTL: time.Minute}
	fail := true
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req.Header.Set("Idempotency-Key", "retry-me")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	fail = false
	retry := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	retry.Header.Set("Idempotency-Key", "retry-me")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, retry)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestIdemPassesThroughWithoutHeader(t *testing.T) {
	idem := common.Idem{R: newRedis(t)}
	calls := 0
	handler := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))
	}
	require.Equal(t, 2, calls)
}
