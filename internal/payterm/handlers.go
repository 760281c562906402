package payterm

import (
	"net/http"

	"github.com/noah-isme/backend-stock/internal/common"
)

// Handler exposes payment condition endpoints.
type Handler struct {
	Svc       *Service
	Validator *common.Validator
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 50)
	items, total, err := h.Svc.List(r.Context(), perPage, common.Offset(page, perPage))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteList(w, items, page, perPage, total)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req := Input{Installments: 1}
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
