package client

import (
	"net/http"

	"github.com/noah-isme/backend-stock/internal/common"
)

// Handler exposes client endpoints.
type Handler struct {
	Svc       *Service
	Validator *common.Validator
	PageSize  int
}

// List handles GET /api/v1/clients?search=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	size := h.PageSize
	if size <= 0 {
		size = 20
	}
	page, perPage := common.ParsePagination(r, size)
	items, total, err := h.Svc.List(r.Context(), r.URL.Query().Get("search"), perPage, common.Offset(page, perPage))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteList(w, items, page, perPage, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req Input
	if err := h.Validator.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.Create(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": c})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLUUID(r, "id")
	if err != nil {
		common.WriteError(w, err)
		return
	}
	c, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

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
	c, err := h.Svc.Update(r.Context(), id, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": c})
}

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
