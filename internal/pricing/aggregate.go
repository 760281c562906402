package pricing

import "github.com/shopspring/decimal"

// OrderAggregate holds the order-level totals derived from priced lines.
type OrderAggregate struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	TotalDiscount   decimal.Decimal `json:"total_discount"`
	TotalCommission decimal.Decimal `json:"total_commission"`
	ShippingRate    decimal.Decimal `json:"shipping_rate"`
	Total           decimal.Decimal `json:"total"`
	HasPendingItems bool            `json:"has_pending_items"`
}

// AggregateOrder sums priced lines into order totals. The total is subtotal
// plus shipping: unit prices are already net of discount, so the discount is
// not subtracted a second time. An empty order totals its shipping rate.
func AggregateOrder(lines []LineItemResult, shippingRate decimal.Decimal) OrderAggregate {
	agg := OrderAggregate{
		Subtotal:        decimal.Zero,
		TotalDiscount:   decimal.Zero,
		TotalCommission: decimal.Zero,
		ShippingRate:    shippingRate,
	}
	for _, line := range lines {
		agg.Subtotal = agg.Subtotal.Add(line.LineSubtotal)
		agg.TotalDiscount = agg.TotalDiscount.Add(line.DiscountAmount)
		agg.TotalCommission = agg.TotalCommission.Add(line.CommissionAmount)
		if line.HasPending {
			agg.HasPendingItems = true
		}
	}
	agg.Subtotal = Round2(agg.Subtotal)
	agg.TotalDiscount = Round2(agg.TotalDiscount)
	agg.TotalCommission = Round2(agg.TotalCommission)
	agg.Total = Round2(agg.Subtotal.Add(shippingRate))
	return agg
}

// ValidateShippingRate rejects negative shipping rates before aggregation.
func ValidateShippingRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return invalid("shipping_rate", "must not be negative")
	}
	return nil
}
