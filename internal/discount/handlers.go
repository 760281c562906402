package discount

import (
	"net/http"

	"github.com/noah-isme/backend-stock/internal/common"
)

// Handler exposes discount endpoints.
type Handler struct {
	Svc       *Service
	Validator *common.Validator
	PageSize  int
}

// List handles GET /api/v1/discounts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	perPageDefault := h.PageSize
	if perPageDefault <= 0 {
		perPageDefault = 20
	}
	page, perPage := common.ParsePagination(r, perPageDefault)
	items, total, err := h.Svc.List(r.Context(), common.QueryBool(r, "active", false), perPage, common.Offset(page, perPage))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteList(w, items, page, perPage, total)
}

// Create handles POST /api/v1/discounts.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Input
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	d, err := h.Svc.Create(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": d})
}

// Get handles GET /api/v1/discounts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	d, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}

// Update handles PATCH /api/v1/discounts/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req Patch
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	d, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": d})
}
