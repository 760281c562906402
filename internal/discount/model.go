package discount

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Discount is a named percentage rule that order lines may reference.
type Discount struct {
	ID                   uuid.UUID       `json:"id"`
	Name                 string          `json:"name"`
	DiscountPercentage   decimal.Decimal `json:"discount_percentage"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	Active               bool            `json:"active"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// Input is the writable part of a discount. Percentages outside [0,100] are
// clamped rather than rejected.
type Input struct {
	Name                 string          `json:"name" validate:"required,max=120"`
	DiscountPercentage   decimal.Decimal `json:"discount_percentage"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	Active               *bool           `json:"active,omitempty"`
}

// Patch carries optional discount changes.
type Patch struct {
	Name                 *string          `json:"name,omitempty" validate:"omitempty,max=120"`
	DiscountPercentage   *decimal.Decimal `json:"discount_percentage,omitempty"`
	CommissionPercentage *decimal.Decimal `json:"commission_percentage,omitempty"`
	Active               *bool            `json:"active,omitempty"`
}
