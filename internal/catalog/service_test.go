package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-stock/internal/catalog"
	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/pricing"
)

func newCache(t *testing.T) *catalog.Cache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return catalog.NewCache(client, time.Minute)
}

func product(code string, price string, stock int, active bool) catalog.Product {
	return catalog.Product{ID: uuid.New(), Code: code, Name: "Product " + code, BasePrice: decimal.RequireFromString(price), Stock: stock, Active: active}
}

func TestGetReadsThroughCache(t *testing.T) {
	p := product("A-1", "10.00", 3, true)
	store := newFakeStore(p)
	svc := &catalog.Service{Store: store, Cache: newCache(t), Logger: zerolog.Nop()}
	ctx := context.Background()

	first, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	second, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, first.Code, second.Code)
	require.True(t, first.BasePrice.Equal(second.BasePrice))
	require.Equal(t, 1, store.gets)

	_, err = svc.AdjustStock(ctx, p.ID, 2)
	require.NoError(t, err)
	after, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 5, after.Stock)
	require.Equal(t, 2, store.gets)
}

func TestLookupTreatsInactiveAsNotFound(t *testing.T) {
	active := product("A-1", "10.00", 3, true)
	inactive := product("B-2", "5.00", 0, false)
	svc := &catalog.Service{Store: newFakeStore(active, inactive), Logger: zerolog.Nop()}
	ctx := context.Background()

	snap, err := svc.Lookup(ctx, active.ID)
	require.NoError(t, err)
	require.Equal(t, 3, snap.StockAvailable)
	require.Equal(t, "10.00", snap.BasePrice.StringFixed(2))

	_, err = svc.Lookup(ctx, inactive.ID)
	require.ErrorIs(t, err, pricing.ErrNotFound)
	_, err = svc.Lookup(ctx, uuid.New())
	require.ErrorIs(t, err, pricing.ErrNotFound)
}

func TestLookupCodesReportsMissing(t *testing.T) {
	svc := &catalog.Service{Store: newFakeStore(
		product("A-1", "10.00", 3, true),
		product("B-2", "5.00", 0, false),
	), Logger: zerolog.Nop()}
	found, missing, err := svc.LookupCodes(context.Background(), []string{"A-1", " A-1 ", "B-2", "Z-9", ""})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Contains(t, found, "A-1")
	require.Equal(t, []string{"B-2", "Z-9"}, missing)
}

func TestAdjustStockRejectsNegative(t *testing.T) {
	p := product("A-1", "10.00", 1, true)
	svc := &catalog.Service{Store: newFakeStore(p), Logger: zerolog.Nop()}
	_, err := svc.AdjustStock(context.Background(), p.ID, -2)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, http.StatusConflict, appErr.HTTPStatus)
}

func TestCreateRoundsPrice(t *testing.T) {
	svc := &catalog.Service{Store: newFakeStore(), Logger: zerolog.Nop()}
	p, err := svc.Create(context.Background(), catalog.ProductInput{Code: " X ", Name: "Thing", BasePrice: decimal.RequireFromString("1.005")})
	require.NoError(t, err)
	require.Equal(t, "X", p.Code)
	require.Equal(t, "1.01", p.BasePrice.StringFixed(2))
	require.True(t, p.Active)
}
