package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable stock item.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base_price"`
	Stock     int             `json:"stock"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ProductInput is the writable part of a product.
type ProductInput struct {
	Code      string          `json:"code" validate:"required,max=64"`
	Name      string          `json:"name" validate:"required,max=200"`
	BasePrice decimal.Decimal `json:"base_price" validate:"gte=0"`
	Stock     int             `json:"stock" validate:"gte=0"`
	Active    *bool           `json:"active,omitempty"`
}

// ProductPatch carries optional product changes.
type ProductPatch struct {
	Name      *string          `json:"name,omitempty" validate:"omitempty,max=200"`
	BasePrice *decimal.Decimal `json:"base_price,omitempty" validate:"omitempty,gte=0"`
	Active    *bool            `json:"active,omitempty"`
}

// ListParams filters and paginates product listings.
type ListParams struct {
	Search     string
	ActiveOnly bool
	Limit      int
	Offset     int
}
