package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-stock/internal/pricing"
)

// Order is a client order with its persisted totals.
type Order struct {
	ID                 uuid.UUID       `json:"id"`
	Number             int64           `json:"number"`
	ClientID           uuid.UUID       `json:"client_id"`
	PaymentConditionID *uuid.UUID      `json:"payment_condition_id,omitempty"`
	Status             Status          `json:"status"`
	ShippingRate       decimal.Decimal `json:"shipping_rate"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	TotalDiscount      decimal.Decimal `json:"total_discount"`
	TotalCommission    decimal.Decimal `json:"total_commission"`
	Total              decimal.Decimal `json:"total"`
	HasPendingItems    bool            `json:"has_pending_items"`
	Notes              string          `json:"notes"`
	ReconciledAt       *time.Time      `json:"reconciled_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	Items              []Item          `json:"items"`
}

// Item is a persisted priced line.
type Item struct {
	ID       uuid.UUID `json:"id"`
	OrderID  uuid.UUID `json:"order_id"`
	Position int       `json:"position"`
	pricing.LineItemResult
}

// Lines returns the priced results of the order's items.
func (o Order) Lines() []pricing.LineItemResult {
	out := make([]pricing.LineItemResult, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, it.LineItemResult)
	}
	return out
}

// Stored returns the persisted totals compared during reconciliation.
func (o Order) Stored() pricing.StoredAggregate {
	return pricing.StoredAggregate{Subtotal: o.Subtotal, TotalDiscount: o.TotalDiscount, Total: o.Total}
}

// ItemInput requests one line by product id.
type ItemInput struct {
	ProductID       uuid.UUID  `json:"product_id" validate:"required"`
	Quantity        int        `json:"quantity" validate:"gte=1"`
	DiscountID      *uuid.UUID `json:"discount_id,omitempty"`
	ClientReference string     `json:"client_reference,omitempty" validate:"max=100"`
}

// CodeLine requests one line by product code.
type CodeLine struct {
	Code            string     `json:"code" validate:"required,max=64"`
	Quantity        int        `json:"quantity"`
	DiscountID      *uuid.UUID `json:"discount_id,omitempty"`
	ClientReference string     `json:"client_reference,omitempty" validate:"max=100"`
}

// CreateInput describes a new order.
type CreateInput struct {
	ClientID           uuid.UUID       `json:"client_id" validate:"required"`
	PaymentConditionID *uuid.UUID      `json:"payment_condition_id,omitempty"`
	ShippingRate       decimal.Decimal `json:"shipping_rate" validate:"gte=0"`
	Notes              string          `json:"notes,omitempty" validate:"max=2000"`
	Items              []ItemInput     `json:"items" validate:"dive"`
}

// ListFilter narrows order listings.
type ListFilter struct {
	ClientID *uuid.UUID
	Status   Status
	Limit    int
	Offset   int
}

// ItemsWritten reports how many item rows a write removed and added.
type ItemsWritten struct {
	Deleted  int `json:"deleted"`
	Inserted int `json:"inserted"`
}

// LineRejection explains why one requested line was left out.
type LineRejection struct {
	Index           int    `json:"index"`
	Code            string `json:"code,omitempty"`
	ClientReference string `json:"client_reference,omitempty"`
	Reason          string `json:"reason"`
}

// BatchReport is the outcome of adding lines by product code. NotFound and
// Failed index into the request lines.
type BatchReport struct {
	Order    Order           `json:"order"`
	Written  ItemsWritten    `json:"written"`
	Added    []Item          `json:"added"`
	NotFound []LineRejection `json:"not_found"`
	Failed   []LineRejection `json:"failed"`
}

// ReconcileReport describes one reconciliation check.
type ReconcileReport struct {
	OrderID  uuid.UUID               `json:"order_id"`
	Stored   pricing.StoredAggregate `json:"stored"`
	Computed pricing.OrderAggregate  `json:"computed"`
	Drift    pricing.Drift           `json:"drift"`
	Updated  bool                    `json:"updated"`
}

// Quote is a priced set of lines that was not persisted.
type Quote struct {
	Items     []pricing.LineItemResult `json:"items"`
	Aggregate pricing.OrderAggregate   `json:"aggregate"`
}
