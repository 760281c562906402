package catalog

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-stock/internal/common"
)

// Handler exposes product endpoints.
type Handler struct {
	Svc       *Service
	Validator *common.Validator
	PageSize  int
}

type stockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return false
	}
	return true
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	page, perPage := common.ParsePagination(r, h.pageSize())
	items, total, err := h.Svc.List(r.Context(), ListParams{
		Search:     r.URL.Query().Get("search"),
		ActiveOnly: common.QueryBool(r, "active", false),
		Limit:      perPage,
		Offset:     common.Offset(page, perPage),
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteList(w, items, page, perPage, total)
}

// Create handles POST /api/v1/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req ProductInput
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.Create(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": p})
}

// Upsert handles PUT /api/v1/products/by-code/{code}. It answers 201 when the
// product was created and 200 when an existing one was overwritten.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req ProductInput
	req.Code = strings.TrimSpace(chi.URLParam(r, "code"))
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	req.Code = strings.TrimSpace(chi.URLParam(r, "code"))
	p, inserted, err := h.Svc.Upsert(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	status := http.StatusOK
	if inserted {
		status = http.StatusCreated
	}
	common.JSON(w, status, map[string]any{"data": p, "inserted": inserted})
}

// Get handles GET /api/v1/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// Update handles PATCH /api/v1/products/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req ProductPatch
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

// AdjustStock handles POST /api/v1/products/{id}/stock.
func (h *Handler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req stockRequest
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": p})
}

func (h *Handler) pageSize() int {
	if h.PageSize <= 0 {
		return 20
	}
	return h.PageSize
}
