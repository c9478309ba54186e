// Quantization of order quantities and prices to exchange-supplied
// increments. Everything runs in arbitrary-precision decimal: a
// float64 error at the last digit is enough to get an order rejected,
// or worse, accepted at the wrong price.
package precision

import "github.com/shopspring/decimal"

// intermediate division precision, comfortably above any venue's tick
// or step granularity
const divPrecision = 16

// QuantizeQty floors v to the nearest multiple of step. Flooring, not
// rounding: a quantity must never be bumped above what the account can
// afford. A zero or negative step means the increment is unknown and v
// is returned unchanged.
func QuantizeQty(v, step decimal.Decimal) decimal.Decimal {
	if step.Sign() <= 0 {
		return v
	}
	return v.DivRound(step, divPrecision).Floor().Mul(step)
}

// QuantizePrice rounds v to the nearest multiple of tick, half up. A
// zero or negative tick returns v unchanged.
func QuantizePrice(v, tick decimal.Decimal) decimal.Decimal {
	if tick.Sign() <= 0 {
		return v
	}
	return v.DivRound(tick, divPrecision).Round(0).Mul(tick)
}

// CapSignificantFigures rounds v to at most sig significant figures,
// half up. Some backends impose this on top of the tick size; it must
// be applied after tick rounding. Non-positive sig or zero v is a
// passthrough.
func CapSignificantFigures(v decimal.Decimal, sig int32) decimal.Decimal {
	if sig <= 0 || v.IsZero() {
		return v
	}
	coef := v.Coefficient().String()
	if coef[0] == '-' {
		coef = coef[1:]
	}
	// position of the most significant digit relative to the decimal
	// point: 95.00 -> 2, 0.052 -> -1
	msd := int32(len(coef)) + v.Exponent()
	return v.Round(sig - msd)
}
