package pricing

import "github.com/shopspring/decimal"

// ReconcileTolerance is the largest per-field difference still treated as in sync.
var ReconcileTolerance = decimal.RequireFromString("0.01")

// StoredAggregate is the persisted copy of an order's totals.
type StoredAggregate struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Total         decimal.Decimal `json:"total"`
}

// Drift lists the persisted fields that disagree with a fresh computation.
type Drift struct {
	Subtotal      bool `json:"subtotal"`
	TotalDiscount bool `json:"total_discount"`
	Total         bool `json:"total"`
}

// Any reports whether at least one field drifted.
func (d Drift) Any() bool {
	return d.Subtotal || d.TotalDiscount || d.Total
}

// CompareAggregates flags every field whose absolute difference is strictly
// greater than ReconcileTolerance.
func CompareAggregates(computed OrderAggregate, stored StoredAggregate) Drift {
	return Drift{
		Subtotal:      drifted(computed.Subtotal, stored.Subtotal),
		TotalDiscount: drifted(computed.TotalDiscount, stored.TotalDiscount),
		Total:         drifted(computed.Total, stored.Total),
	}
}

// NeedsReconciliation reports whether the stored totals should be rewritten.
// It never touches storage.
func NeedsReconciliation(computed OrderAggregate, stored StoredAggregate) bool {
	return CompareAggregates(computed, stored).Any()
}

// Stored projects the persisted subset of an aggregate.
func (a OrderAggregate) Stored() StoredAggregate {
	return StoredAggregate{Subtotal: a.Subtotal, TotalDiscount: a.TotalDiscount, Total: a.Total}
}

func drifted(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().GreaterThan(ReconcileTolerance)
}
