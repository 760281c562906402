package jobs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-stock/internal/jobs"
)

type fakeInspector struct {
	info     *asynq.QueueInfo
	archived []*asynq.TaskInfo
	ran      []string
}

func (f *fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	if f.info == nil {
		return nil, asynq.ErrQueueNotFound
	}
	return f.info, nil
}

func (f *fakeInspector) ListArchivedTasks(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return f.archived, nil
}

func (f *fakeInspector) RunTask(_, id string) error {
	for _, t := range f.archived {
		if t.ID == id {
			f.ran = append(f.ran, id)
			return nil
		}
	}
	return asynq.ErrTaskNotFound
}

func adminRouter(h *jobs.AdminHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/jobs/stats", h.Stats)
	r.Get("/jobs/archived", h.ListArchived)
	r.Post("/jobs/archived/{id}/retry", h.RetryArchived)
	return r
}

func TestAdminStats(t *testing.T) {
	insp := &fakeInspector{info: &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 3, Archived: 1}}
	router := adminRouter(&jobs.AdminHandler{Inspector: insp, Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"pending":3`)
	require.Contains(t, rec.Body.String(), `"archived":1`)
}

func TestAdminStatsEmptyQueue(t *testing.T) {
	router := adminRouter(&jobs.AdminHandler{Inspector: &fakeInspector{}, Logger: zerolog.Nop()})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"queue":"default"`)
}

func TestAdminRetryArchived(t *testing.T) {
	insp := &fakeInspector{archived: []*asynq.TaskInfo{{ID: "t-1", Type: jobs.TaskOrderReconcile, Payload: []byte(`{}`), LastErr: "timeout"}}}
	router := adminRouter(&jobs.AdminHandler{Inspector: insp, Logger: zerolog.Nop()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/archived", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"last_error":"timeout"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/archived/t-1/retry", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{"t-1"}, insp.ran)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/jobs/archived/missing/retry", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminWithoutQueue(t *testing.T) {
	router := adminRouter(&jobs.AdminHandler{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/stats", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
