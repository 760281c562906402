package order

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-stock/internal/common"
)

// ReconcileEnqueuer schedules an asynchronous reconciliation and returns the task id.
type ReconcileEnqueuer interface {
	EnqueueReconcile(ctx context.Context, orderID uuid.UUID) (string, error)
}

// Handler exposes order endpoints.
type Handler struct {
	Svc       *Service
	Validator *common.Validator
	Jobs      ReconcileEnqueuer
	PageSize  int
}

type itemsRequest struct {
	Items []ItemInput `json:"items" validate:"dive"`
}

type codeItemsRequest struct {
	Items []CodeLine `json:"items" validate:"required,min=1,max=500,dive"`
}

type shippingRequest struct {
	ShippingRate json.RawMessage `json:"shipping_rate"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type quoteRequest struct {
	Items        []ItemInput     `json:"items" validate:"dive"`
	ShippingRate decimal.Decimal `json:"shipping_rate" validate:"gte=0"`
}

// List handles GET /api/v1/orders?client_id=&status=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	size := h.PageSize
	if size <= 0 {
		size = 20
	}
	page, perPage := common.ParsePagination(r, size)
	filter := ListFilter{Limit: perPage, Offset: common.Offset(page, perPage)}
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("client_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.WriteError(w, common.BadRequest("invalid client_id", err))
			return
		}
		filter.ClientID = &id
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := ParseStatus(raw)
		if err != nil {
			common.WriteError(w, common.BadRequest(err.Error(), err))
			return
		}
		filter.Status = status
	}
	orders, total, err := h.Svc.List(r.Context(), filter)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteList(w, orders, page, perPage, total)
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInput
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Svc.Create(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": o})
}

// Get handles GET /api/v1/orders/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Delete handles DELETE /api/v1/orders/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceItems handles PUT /api/v1/orders/{id}/items.
func (h *Handler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req itemsRequest
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	o, written, err := h.Svc.ReplaceItems(r.Context(), id, req.Items)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o, "written": written})
}

// AddItemsByCode handles POST /api/v1/orders/{id}/items/by-code.
func (h *Handler) AddItemsByCode(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req codeItemsRequest
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	report, err := h.Svc.AddItemsByCode(r.Context(), id, req.Items)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}

// UpdateShipping handles PATCH /api/v1/orders/{id}/shipping. The rate may be
// sent as a JSON number or string.
func (h *Handler) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req shippingRequest
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	raw := strings.Trim(strings.TrimSpace(string(req.ShippingRate)), `"`)
	o, err := h.Svc.UpdateShipping(r.Context(), id, raw)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Transition handles PATCH /api/v1/orders/{id}/status.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req statusRequest
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	target, err := ParseStatus(req.Status)
	if err != nil {
		appErr := common.NewAppError("VALIDATION_FAILED", err.Error(), http.StatusUnprocessableEntity, err)
		appErr.Details = map[string]string{"status": "unknown"}
		common.WriteError(w, appErr)
		return
	}
	o, err := h.Svc.Transition(r.Context(), id, target)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": o})
}

// Reconcile handles POST /api/v1/orders/{id}/reconcile. With ?async=true the
// check is queued for the worker and 202 is returned.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if common.QueryBool(r, "async", false) {
		if h.Jobs == nil {
			common.JSONError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", "background jobs are not configured", nil)
			return
		}
		if _, err := h.Svc.Get(r.Context(), id); err != nil {
			common.WriteError(w, err)
			return
		}
		taskID, err := h.Jobs.EnqueueReconcile(r.Context(), id)
		if err != nil {
			common.WriteError(w, err)
			return
		}
		common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]string{"task_id": taskID, "order_id": id.String()}})
		return
	}
	report, err := h.Svc.Reconcile(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": report})
}

// Quote handles POST /api/v1/orders/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	q, err := h.Svc.Quote(r.Context(), req.Items, req.ShippingRate)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": q})
}
