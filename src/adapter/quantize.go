package adapter

import (
	"github.com/shopspring/decimal"

	"perpgate/src/model"
	"perpgate/src/precision"
)

// quantizeRequest returns a copy of the request with the quantity
// floored to the asset's step and every price field rounded half-up to
// its tick. sigFigs > 0 additionally caps price precision after tick
// rounding, for venues that impose a significant-figure limit. The
// caller's request is never mutated.
func quantizeRequest(req *model.OrderRequest, asset *model.Asset, sigFigs int32) (*model.OrderRequest, error) {
	q := *req

	q.Quantity = precision.QuantizeQty(req.Quantity, asset.StepSize)
	if !q.Quantity.IsPositive() {
		return nil, &model.ValidationError{Field: "quantity", Reason: "rounds to zero at the venue step size"}
	}
	if asset.MinQty.IsPositive() && q.Quantity.LessThan(asset.MinQty) {
		return nil, &model.ValidationError{Field: "quantity", Reason: "below the venue minimum after rounding"}
	}

	quantize := func(p *decimal.Decimal) *decimal.Decimal {
		if p == nil {
			return nil
		}
		v := precision.QuantizePrice(*p, asset.TickSize)
		if sigFigs > 0 {
			v = precision.CapSignificantFigures(v, sigFigs)
		}
		return &v
	}

	q.Price = quantize(req.Price)
	q.TriggerPrice = quantize(req.TriggerPrice)
	q.StopLimitPrice = quantize(req.StopLimitPrice)
	q.TakeProfit = quantize(req.TakeProfit)
	q.StopLoss = quantize(req.StopLoss)
	return &q, nil
}

// formatByIncrement renders a quantized value at the increment's
// scale, so "95" goes on the wire as "95.00" when the tick is 0.01.
// Zero or integer increments fall back to the plain representation.
func formatByIncrement(v, inc decimal.Decimal) string {
	if inc.IsPositive() && inc.Exponent() < 0 {
		return v.StringFixed(-inc.Exponent())
	}
	return v.String()
}
