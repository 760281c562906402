package catalog_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-stock/internal/catalog"
	"github.com/noah-isme/backend-stock/internal/common"
)

func newRouter(store *fakeStore) http.Handler {
	h := &catalog.Handler{
		Svc:       &catalog.Service{Store: store, Logger: zerolog.Nop()},
		Validator: common.NewValidator(),
	}
	r := chi.NewRouter()
	r.Get("/products", h.List)
	r.Post("/products", h.Create)
	r.Put("/products/by-code/{code}", h.Upsert)
	r.Get("/products/{id}", h.Get)
	r.Patch("/products/{id}", h.Update)
	r.Post("/products/{id}/stock", h.AdjustStock)
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUpsertReportsInsertThenUpdate(t *testing.T) {
	router := newRouter(newFakeStore())

	rec := do(t, router, http.MethodPut, "/products/by-code/SKU-1", `{"name":"Widget","base_price":"12.50","stock":4}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body struct {
		Data     catalog.Product `json:"data"`
		Inserted bool            `json:"inserted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Inserted)
	require.Equal(t, "SKU-1", body.Data.Code)

	rec = do(t, router, http.MethodPut, "/products/by-code/SKU-1", `{"name":"Widget v2","base_price":"13.00","stock":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.False(t, body.Inserted)
	require.Equal(t, "Widget v2", body.Data.Name)
}

func TestCreateValidatesPayload(t *testing.T) {
	router := newRouter(newFakeStore())

	rec := do(t, router, http.MethodPost, "/products", `{"code":"A","name":"A","base_price":"-1","stock":0}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "base_price")

	rec = do(t, router, http.MethodPost, "/products", `{"code":"A","name":"A","base_price":"1.00","stock":0,"colour":"red"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/products", `{"code":"A","name":"A","base_price":"1.00","stock":0}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, router, http.MethodPost, "/products", `{"code":"A","name":"Again","base_price":"1.00","stock":0}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetAndStockEndpoints(t *testing.T) {
	p := product("A-1", "10.00", 2, true)
	router := newRouter(newFakeStore(p))

	rec := do(t, router, http.MethodGet, "/products/not-a-uuid", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/products/"+p.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, "/products/"+p.ID.String()+"/stock", `{"delta":-5}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "INSUFFICIENT_STOCK")

	rec = do(t, router, http.MethodPost, "/products/"+p.ID.String()+"/stock", `{"delta":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"stock":5`)
}

func TestListPaginates(t *testing.T) {
	router := newRouter(newFakeStore(
		product("A-1", "1.00", 1, true),
		product("A-2", "1.00", 1, true),
		product("A-3", "1.00", 1, false),
	))

	rec := do(t, router, http.MethodGet, "/products?active=true&limit=1&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	var body struct {
		Data       []catalog.Product `json:"data"`
		Pagination common.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	require.Equal(t, "A-2", body.Data[0].Code)
	require.Equal(t, 2, body.Pagination.Page)
}
