package jobs

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-stock/internal/common"
)

// Inspector is the subset of asynq.Inspector the admin endpoints use.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListArchivedTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	RunTask(queue, id string) error
}

// AdminHandler exposes queue statistics and dead-task recovery.
type AdminHandler struct {
	Inspector Inspector
	PageSize  int
	Logger    zerolog.Logger
}

type queueStats struct {
	Queue     string `json:"queue"`
	Size      int    `json:"size"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Paused    bool   `json:"paused"`
}

type archivedTask struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Payload  string `json:"payload"`
	Retried  int    `json:"retried"`
	MaxRetry int    `json:"max_retry"`
	LastErr  string `json:"last_error,omitempty"`
}

// Stats handles GET /api/v1/admin/jobs/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Inspector == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "job queue is not configured", nil)
		return
	}
	info, err := h.Inspector.GetQueueInfo(QueueDefault)
	if err != nil {
		if errors.Is(err, asynq.ErrQueueNotFound) {
			common.JSON(w, http.StatusOK, map[string]any{"data": queueStats{Queue: QueueDefault}})
			return
		}
		h.Logger.Warn().Err(err).Msg("queue stats")
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "job queue is unreachable", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": queueStats{
		Queue:     info.Queue,
		Size:      info.Size,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
		Archived:  info.Archived,
		Processed: info.Processed,
		Failed:    info.Failed,
		Paused:    info.Paused,
	}})
}

// ListArchived handles GET /api/v1/admin/jobs/archived.
func (h *AdminHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Inspector == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "job queue is not configured", nil)
		return
	}
	perPageDefault := h.PageSize
	if perPageDefault <= 0 {
		perPageDefault = 20
	}
	page, perPage := common.ParsePagination(r, perPageDefault)
	tasks, err := h.Inspector.ListArchivedTasks(QueueDefault, asynq.Page(page), asynq.PageSize(perPage))
	if err != nil && !errors.Is(err, asynq.ErrQueueNotFound) {
		h.Logger.Warn().Err(err).Msg("list archived tasks")
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "job queue is unreachable", nil)
		return
	}
	items := make([]archivedTask, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, archivedTask{
			ID:       t.ID,
			Type:     t.Type,
			Payload:  string(t.Payload),
			Retried:  t.Retried,
			MaxRetry: t.MaxRetry,
			LastErr:  t.LastErr,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// RetryArchived handles POST /api/v1/admin/jobs/archived/{id}/retry.
func (h *AdminHandler) RetryArchived(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Inspector == nil {
		common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "job queue is not configured", nil)
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "task id is required", nil)
		return
	}
	if err := h.Inspector.RunTask(QueueDefault, id); err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "task not found", map[string]string{"id": id})
			return
		}
		h.Logger.Warn().Err(err).Str("task_id", id).Msg("retry archived task")
		common.JSONError(w, http.StatusConflict, "CONFLICT", err.Error(), nil)
		return
	}
	h.Logger.Info().Str("task_id", id).Msg("archived task requeued")
	common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]string{"id": id, "status": "requeued"}})
}
