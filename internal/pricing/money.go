package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Round2 rounds x to two decimal places, half away from zero.
func Round2(x decimal.Decimal) decimal.Decimal {
	return x.Round(2)
}

// ApplyPercentage returns base * pct / 100 without rounding. Callers keep pct
// within [0,100]; rounding happens once on the final monetary output.
func ApplyPercentage(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// ParseAmount converts a textual amount into a decimal. NaN, infinities and
// malformed input are validation errors.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, invalid(field, "is required")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, invalid(field, "is not a number")
	}
	return d, nil
}

// ClampPercentage bounds pct to [0,100].
func ClampPercentage(pct decimal.Decimal) decimal.Decimal {
	if pct.IsNegative() {
		return decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
