package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/pricing"
)

// Service manages discounts and resolves them for order pricing.
type Service struct {
	Store Store
}

// Create stores a new discount. Percentages are clamped to [0,100] and kept with two decimals.
func (s *Service) Create(ctx context.Context, in Input) (Discount, error) {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return s.Store.Insert(ctx, Discount{
		Name:                 strings.TrimSpace(in.Name),
		DiscountPercentage:   normalize(in.DiscountPercentage),
		CommissionPercentage: normalize(in.CommissionPercentage),
		Active:               active,
	})
}

// Update applies a partial change.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) (Discount, error) {
	d, err := s.Store.Get(ctx, id)
	if err != nil {
		return Discount{}, err
	}
	if patch.Name != nil {
		d.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.DiscountPercentage != nil {
		d.DiscountPercentage = normalize(*patch.DiscountPercentage)
	}
	if patch.CommissionPercentage != nil {
		d.CommissionPercentage = normalize(*patch.CommissionPercentage)
	}
	if patch.Active != nil {
		d.Active = *patch.Active
	}
	return s.Store.Update(ctx, d)
}

// Get returns one discount.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Discount, error) {
	return s.Store.Get(ctx, id)
}

// List returns a page of discounts and the total count.
func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]Discount, int, error) {
	return s.Store.List(ctx, activeOnly, limit, offset)
}

// Lookup resolves an active discount for the pricing engine. Unknown and
// inactive discounts both yield a pricing.NotFoundError.
func (s *Service) Lookup(ctx context.Context, id uuid.UUID) (pricing.Discount, error) {
	d, err := s.Store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return pricing.Discount{}, &pricing.NotFoundError{Entity: "discount", Key: id.String()}
		}
		return pricing.Discount{}, fmt.Errorf("lookup discount: %w", err)
	}
	if !d.Active {
		return pricing.Discount{}, &pricing.NotFoundError{Entity: "discount", Key: id.String()}
	}
	return pricing.Discount{
		ID:                   d.ID,
		DiscountPercentage:   d.DiscountPercentage,
		CommissionPercentage: d.CommissionPercentage,
	}, nil
}

func normalize(pct decimal.Decimal) decimal.Decimal {
	return pricing.Round2(pricing.ClampPercentage(pct))
}
