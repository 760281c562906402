package payterm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/payterm"
)

type memStore map[uuid.UUID]payterm.Condition

func (m memStore) Insert(_ context.Context, c payterm.Condition) (payterm.Condition, error) {
	c.ID = uuid.New()
	m[c.ID] = c
	return c, nil
}

func (m memStore) Update(_ context.Context, c payterm.Condition) (payterm.Condition, error) {
	if _, ok := m[c.ID]; !ok {
		return payterm.Condition{}, common.ErrNotFound
	}
	m[c.ID] = c
	return c, nil
}

func (m memStore) Get(_ context.Context, id uuid.UUID) (payterm.Condition, error) {
	c, ok := m[id]
	if !ok {
		return payterm.Condition{}, common.ErrNotFound
	}
	return c, nil
}

func (m memStore) List(_ context.Context, _, _ int) ([]payterm.Condition, int, error) {
	out := make([]payterm.Condition, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out, len(out), nil
}

func router(svc *payterm.Service) http.Handler {
	h := &payterm.Handler{Svc: svc, Validator: common.NewValidator()}
	r := chi.NewRouter()
	r.Post("/payment-conditions", h.Create)
	r.Patch("/payment-conditions/{id}", h.Update)
	return r
}

func TestCreateDefaultsToSingleInstallment(t *testing.T) {
	svc := &payterm.Service{Store: memStore{}}
	rec := httptest.NewRecorder()
	router(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payment-conditions", strings.NewReader(`{"name":"Net 30","days":30}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Data payterm.Condition `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Data.Installments)
	require.Equal(t, 30, body.Data.Days)
	require.True(t, body.Data.Active)
}

func TestCreateRejectsInvalidTerms(t *testing.T) {
	svc := &payterm.Service{Store: memStore{}}
	rec := httptest.NewRecorder()
	router(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payment-conditions", strings.NewReader(`{"name":"Bad","days":-1,"installments":0}`)))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "days")
	require.Contains(t, rec.Body.String(), "installments")
}

func TestExists(t *testing.T) {
	svc := &payterm.Service{Store: memStore{}}
	c, err := svc.Create(context.Background(), payterm.Input{Name: "Cash", Installments: 1})
	require.NoError(t, err)

	ok, err := svc.Exists(context.Background(), c.ID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.Exists(context.Background(), uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdatePatchesFields(t *testing.T) {
	svc := &payterm.Service{Store: memStore{}}
	c, err := svc.Create(context.Background(), payterm.Input{Name: "Net 30", Days: 30, Installments: 1})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/payment-conditions/"+c.ID.String(), strings.NewReader(`{"installments":3}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, 3, got.Installments)
	require.Equal(t, 30, got.Days)
}
