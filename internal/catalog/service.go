package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/obs"
	"github.com/noah-isme/backend-stock/internal/pricing"
)

// Service manages products and answers product lookups for order pricing.
type Service struct {
	Store  Store
	Cache  *Cache
	Logger zerolog.Logger
}

// Create adds a product. Prices are stored with two decimals.
func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	p := fromInput(in)
	return s.Store.Insert(ctx, p)
}

// Upsert writes a product keyed by its code and reports whether it was newly inserted.
func (s *Service) Upsert(ctx context.Context, in ProductInput) (Product, bool, error) {
	p, inserted, err := s.Store.Upsert(ctx, fromInput(in))
	if err != nil {
		return Product{}, false, err
	}
	s.invalidate(ctx, p.ID)
	return p, inserted, nil
}

// Update applies a partial change to a product.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch ProductPatch) (Product, error) {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if patch.Name != nil {
		current.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.BasePrice != nil {
		current.BasePrice = pricing.Round2(*patch.BasePrice)
	}
	if patch.Active != nil {
		current.Active = *patch.Active
	}
	updated, err := s.Store.Update(ctx, current)
	if err != nil {
		return Product{}, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

// AdjustStock changes the stock level by delta.
func (s *Service) AdjustStock(ctx context.Context, id uuid.UUID, delta int) (Product, error) {
	p, err := s.Store.AdjustStock(ctx, id, delta)
	if err != nil {
		if errors.Is(err, ErrStockExhausted) {
			return Product{}, common.NewAppError("INSUFFICIENT_STOCK", "stock cannot go below zero", http.StatusConflict, err)
		}
		return Product{}, err
	}
	s.invalidate(ctx, id)
	return p, nil
}

// Get returns one product, served from cache when possible.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Product, error) {
	key := productKey(id)
	var cached Product
	hit, err := s.Cache.GetJSON(ctx, key, &cached)
	switch {
	case err != nil:
		obs.CountProductCache("error")
		log := obs.ContextLogger(ctx, s.Logger)
		log.Warn().Err(err).Str("product_id", id.String()).Msg("product cache read failed")
	case hit:
		obs.CountProductCache("hit")
		return cached, nil
	default:
		obs.CountProductCache("miss")
	}
	p, err := s.Store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if err := s.Cache.SetJSON(ctx, key, p); err != nil {
		log := obs.ContextLogger(ctx, s.Logger)
		log.Warn().Err(err).Str("product_id", id.String()).Msg("product cache write failed")
	}
	return p, nil
}

// List returns a page of products and the total match count.
func (s *Service) List(ctx context.Context, params ListParams) ([]Product, int, error) {
	return s.Store.List(ctx, params)
}

// Lookup resolves an active product into the snapshot the pricing engine needs.
func (s *Service) Lookup(ctx context.Context, id uuid.UUID) (pricing.Product, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return pricing.Product{}, &pricing.NotFoundError{Entity: "product", Key: id.String()}
		}
		return pricing.Product{}, fmt.Errorf("lookup product: %w", err)
	}
	if !p.Active {
		return pricing.Product{}, &pricing.NotFoundError{Entity: "product", Key: id.String()}
	}
	return snapshot(p), nil
}

// LookupCodes resolves product codes in one query. Unknown or inactive codes
// are returned in missing, in request order and without duplicates.
func (s *Service) LookupCodes(ctx context.Context, codes []string) (map[string]pricing.Product, []string, error) {
	unique := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		unique = append(unique, code)
	}
	rows, err := s.Store.GetByCodes(ctx, unique)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup product codes: %w", err)
	}
	found := make(map[string]pricing.Product, len(rows))
	for _, p := range rows {
		if p.Active {
			found[p.Code] = snapshot(p)
		}
	}
	var missing []string
	for _, code := range unique {
		if _, ok := found[code]; !ok {
			missing = append(missing, code)
		}
	}
	return found, missing, nil
}

func (s *Service) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.Cache.Invalidate(ctx, id); err != nil {
		log := obs.ContextLogger(ctx, s.Logger)
		log.Warn().Err(err).Str("product_id", id.String()).Msg("product cache invalidation failed")
	}
}

func fromInput(in ProductInput) Product {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return Product{
		Code:      strings.TrimSpace(in.Code),
		Name:      strings.TrimSpace(in.Name),
		BasePrice: pricing.Round2(in.BasePrice),
		Stock:     in.Stock,
		Active:    active,
	}
}

func snapshot(p Product) pricing.Product {
	return pricing.Product{ID: p.ID, Code: p.Code, BasePrice: p.BasePrice, StockAvailable: p.Stock}
}
