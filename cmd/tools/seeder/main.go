package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-stock/internal/app"
	"github.com/noah-isme/backend-stock/internal/catalog"
	"github.com/noah-isme/backend-stock/internal/client"
	"github.com/noah-isme/backend-stock/internal/config"
	"github.com/noah-isme/backend-stock/internal/db"
	"github.com/noah-isme/backend-stock/internal/discount"
	"github.com/noah-isme/backend-stock/internal/obs"
	"github.com/noah-isme/backend-stock/internal/payterm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger("console", cfg.Obs.LogLevel).With().Str("component", "seeder").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	deps, err := app.Open(ctx, cfg, logger, "backend-stock-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("open dependencies")
	}
	defer deps.Close()

	if err := seed(ctx, app.NewServices(deps), logger); err != nil {
		logger.Fatal().Err(err).Msg("seeding failed")
	}
	logger.Info().Msg("seeding completed")
}

func seed(ctx context.Context, svcs *app.Services, logger zerolog.Logger) error {
	terms, err := seedTerms(ctx, svcs.Terms)
	if err != nil {
		return fmt.Errorf("payment conditions: %w", err)
	}
	if err := seedDiscounts(ctx, svcs.Discounts); err != nil {
		return fmt.Errorf("discounts: %w", err)
	}
	created, err := seedProducts(ctx, svcs.Products)
	if err != nil {
		return fmt.Errorf("products: %w", err)
	}
	if err := seedClients(ctx, svcs.Clients, terms); err != nil {
		return fmt.Errorf("clients: %w", err)
	}
	logger.Info().Int("products_created", created).Int("payment_conditions", len(terms)).Msg("catalog seeded")
	return nil
}

func seedTerms(ctx context.Context, svc *payterm.Service) ([]payterm.Condition, error) {
	existing, total, err := svc.List(ctx, 100, 0)
	if err != nil || total > 0 {
		return existing, err
	}
	inputs := []payterm.Input{
		{Name: "Cash", Days: 0, Installments: 1},
		{Name: "Net 30", Days: 30, Installments: 1},
		{Name: "30/60/90", Days: 90, Installments: 3},
	}
	out := make([]payterm.Condition, 0, len(inputs))
	for _, in := range inputs {
		c, err := svc.Create(ctx, in)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func seedDiscounts(ctx context.Context, svc *discount.Service) error {
	if _, total, err := svc.List(ctx, false, 1, 0); err != nil || total > 0 {
		return err
	}
	inputs := []discount.Input{
		{Name: "Wholesale", DiscountPercentage: decimal.NewFromInt(10), CommissionPercentage: decimal.NewFromInt(3)},
		{Name: "Distributor", DiscountPercentage: decimal.NewFromInt(18), CommissionPercentage: decimal.RequireFromString("1.5")},
		{Name: "Clearance", DiscountPercentage: decimal.NewFromInt(35), CommissionPercentage: decimal.Zero},
	}
	for _, in := range inputs {
		if _, err := svc.Create(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func seedProducts(ctx context.Context, svc *catalog.Service) (int, error) {
	inputs := []catalog.ProductInput{
		{Code: "BOLT-M8", Name: "Hex bolt M8x40", BasePrice: decimal.RequireFromString("0.35"), Stock: 5000},
		{Code: "NUT-M8", Name: "Hex nut M8", BasePrice: decimal.RequireFromString("0.08"), Stock: 12000},
		{Code: "WASH-M8", Name: "Flat washer M8", BasePrice: decimal.RequireFromString("0.05"), Stock: 0},
		{Code: "DRILL-550", Name: "Cordless drill 550W", BasePrice: decimal.RequireFromString("89.90"), Stock: 12},
		{Code: "BIT-SET-19", Name: "HSS drill bit set (19 pcs)", BasePrice: decimal.RequireFromString("24.50"), Stock: 40},
		{Code: "GLOVE-L", Name: "Work gloves, size L", BasePrice: decimal.RequireFromString("3.99"), Stock: 300},
	}
	created := 0
	for _, in := range inputs {
		_, isNew, err := svc.Upsert(ctx, in)
		if err != nil {
			return created, fmt.Errorf("%s: %w", in.Code, err)
		}
		if isNew {
			created++
		}
	}
	return created, nil
}

func seedClients(ctx context.Context, svc *client.Service, terms []payterm.Condition) error {
	if _, total, err := svc.List(ctx, "", 1, 0); err != nil || total > 0 {
		return err
	}
	var net30 *payterm.Condition
	for i := range terms {
		if terms[i].Days == 30 {
			net30 = &terms[i]
		}
	}
	inputs := []client.Input{
		{Name: "Ferreteria Central", TaxID: "30-71234567-8", Email: "compras@central.example"},
		{Name: "Northside Builders", TaxID: "20-99887766-1", Email: "orders@northside.example", Phone: "+1 555 0100"},
	}
	if net30 != nil {
		inputs[1].PaymentConditionID = &net30.ID
	}
	for _, in := range inputs {
		if _, err := svc.Create(ctx, in); err != nil {
			return err
		}
	}
	return nil
}
