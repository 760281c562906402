package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Discount is a named percentage rule applied to a line item.
type Discount struct {
	ID                   uuid.UUID       `json:"id"`
	DiscountPercentage   decimal.Decimal `json:"discount_percentage"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
}

// Product is the snapshot a product lookup hands to the engine.
type Product struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	BasePrice      decimal.Decimal `json:"base_price"`
	StockAvailable int             `json:"stock_available"`
}

// LineItemInput is one requested order line. Discount is optional; a nil
// discount prices the line with zero discount and zero commission.
type LineItemInput struct {
	ProductID       uuid.UUID
	Quantity        int
	BasePrice       decimal.Decimal
	Discount        *Discount
	ClientReference string
	StockAvailable  int
}

// LineItemResult is a priced line, ready to persist as an order item.
type LineItemResult struct {
	ProductID            uuid.UUID       `json:"product_id"`
	Quantity             int             `json:"quantity"`
	DiscountID           *uuid.UUID      `json:"discount_id,omitempty"`
	DiscountPercentage   decimal.Decimal `json:"discount_percentage"`
	CommissionPercentage decimal.Decimal `json:"commission_percentage"`
	ClientReference      string          `json:"client_reference,omitempty"`
	UnitPriceOriginal    decimal.Decimal `json:"unit_price_original"`
	UnitPriceFinal       decimal.Decimal `json:"unit_price_final"`
	LineSubtotal         decimal.Decimal `json:"line_subtotal"`
	DiscountAmount       decimal.Decimal `json:"discount_amount"`
	CommissionAmount     decimal.Decimal `json:"commission_amount"`
	PendingQuantity      int             `json:"pending_quantity"`
	HasPending           bool            `json:"has_pending"`
}

// PriceLineItem computes the discounted unit price, line subtotal, discount
// and commission amounts and the pending quantity of a single line.
func PriceLineItem(in LineItemInput) (LineItemResult, error) {
	if in.Quantity <= 0 {
		return LineItemResult{}, invalid("quantity", "must be greater than zero")
	}
	if in.BasePrice.IsNegative() {
		return LineItemResult{}, invalid("base_price", "must not be negative")
	}
	if in.BasePrice.Exponent() < -2 && !in.BasePrice.Equal(Round2(in.BasePrice)) {
		return LineItemResult{}, invalid("base_price", "must have at most two decimals")
	}
	if in.StockAvailable < 0 {
		return LineItemResult{}, invalid("stock_available", "must not be negative")
	}

	discountPct := decimal.Zero
	commissionPct := decimal.Zero
	var discountID *uuid.UUID
	if in.Discount != nil {
		discountPct = ClampPercentage(in.Discount.DiscountPercentage)
		commissionPct = ClampPercentage(in.Discount.CommissionPercentage)
		id := in.Discount.ID
		discountID = &id
	}

	qty := decimal.NewFromInt(int64(in.Quantity))
	discountPerUnit := ApplyPercentage(in.BasePrice, discountPct)
	unitFinal := Round2(in.BasePrice.Sub(discountPerUnit))
	lineSubtotal := Round2(qty.Mul(unitFinal))
	pending, hasPending := ResolvePending(in.Quantity, in.StockAvailable)

	return LineItemResult{
		ProductID:            in.ProductID,
		Quantity:             in.Quantity,
		DiscountID:           discountID,
		DiscountPercentage:   discountPct,
		CommissionPercentage: commissionPct,
		ClientReference:      in.ClientReference,
		UnitPriceOriginal:    in.BasePrice,
		UnitPriceFinal:       unitFinal,
		LineSubtotal:         lineSubtotal,
		DiscountAmount:       Round2(qty.Mul(discountPerUnit)),
		CommissionAmount:     Round2(ApplyPercentage(lineSubtotal, commissionPct)),
		PendingQuantity:      pending,
		HasPending:           hasPending,
	}, nil
}

// ResolvePending reports how much of quantity exceeds the available stock.
// Pending lines are recorded, never rejected.
func ResolvePending(quantity, stockAvailable int) (int, bool) {
	pending := quantity - stockAvailable
	if pending < 0 {
		pending = 0
	}
	return pending, pending > 0
}
