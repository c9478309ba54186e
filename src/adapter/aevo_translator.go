package adapter

import (
	"github.com/shopspring/decimal"

	"perpgate/src/connectors"
	"perpgate/src/model"
	"perpgate/src/precision"
	"perpgate/src/symbol"
)

var oneHundred = decimal.NewFromInt(100)

// synthesizeMarketPrice computes the aggressive limit price used to
// emulate a market order on a limit-only venue: offsetPct beyond the
// mark price on the taker side, tick rounded and capped to the venue's
// significant-figure limit.
func synthesizeMarketPrice(side model.Side, markPrice, offsetPct decimal.Decimal, asset *model.Asset) decimal.Decimal {
	offset := markPrice.Mul(offsetPct).Div(oneHundred)
	raw := markPrice.Sub(offset)
	if side == model.SideBuy {
		raw = markPrice.Add(offset)
	}
	quantized := precision.QuantizePrice(raw, asset.TickSize)
	return precision.CapSignificantFigures(quantized, connectors.PriceSigFigs)
}

// aevoTranslate maps a validated, quantized request onto the aevo
// limit-only payload. markPrice is only consulted for market
// synthesis. Translation is structural; all request numerics must
// already be quantized by the caller.
func aevoTranslate(req *model.OrderRequest, asset *model.Asset, markPrice, offsetPct decimal.Decimal) (connectors.AevoOrderPayload, []string, error) {
	switch req.Type {
	case model.OrderTypeTrailingStopMarket:
		return connectors.AevoOrderPayload{}, nil, &model.UnsupportedFeatureError{
			Exchange: model.ExchangeAevo,
			Feature:  "trailing stop orders",
		}
	case model.OrderTypeOCO:
		return connectors.AevoOrderPayload{}, nil, &model.UnsupportedFeatureError{
			Exchange: model.ExchangeAevo,
			Feature:  "oco orders",
		}
	}

	payload := connectors.AevoOrderPayload{
		Instrument: symbol.ToAevo(req.Symbol),
		IsBuy:      req.Side == model.SideBuy,
		Amount:     formatByIncrement(req.Quantity, asset.StepSize),
		PostOnly:   req.PostOnly,
		ReduceOnly: req.ReduceOnly,
	}

	var warnings []string

	tif := string(req.EffectiveTIF())
	if req.EffectiveTIF() == model.TIFFillOrKill {
		tif = "IOC"
		warnings = append(warnings, "time-in-force FOK not supported on aevo, substituted IOC")
	}
	payload.TimeInForce = tif

	price := func() string {
		return formatByIncrement(*req.Price, asset.TickSize)
	}
	trigger := func() string {
		return formatByIncrement(*req.TriggerPrice, asset.TickSize)
	}
	// limit-execution price of a stop-limit leg; the dedicated field
	// wins over the plain price when both are set
	legLimit := func() string {
		if req.StopLimitPrice != nil {
			return formatByIncrement(*req.StopLimitPrice, asset.TickSize)
		}
		return price()
	}

	switch req.Type {
	case model.OrderTypeMarket:
		limit := synthesizeMarketPrice(req.Side, markPrice, offsetPct, asset)
		payload.LimitPrice = formatByIncrement(limit, asset.TickSize)
		payload.TimeInForce = "IOC"
		warnings = append(warnings, "market order synthesized as IOC limit at "+payload.LimitPrice)
	case model.OrderTypeLimit:
		payload.LimitPrice = price()
	case model.OrderTypeStopMarket:
		payload.LimitPrice = trigger()
		payload.Trigger = &connectors.AevoTrigger{TriggerPrice: trigger(), IsMarket: true, Type: "stop"}
	case model.OrderTypeStopLimit:
		payload.LimitPrice = legLimit()
		payload.Trigger = &connectors.AevoTrigger{TriggerPrice: trigger(), Type: "stop"}
	case model.OrderTypeTakeProfitMarket:
		payload.LimitPrice = trigger()
		payload.Trigger = &connectors.AevoTrigger{TriggerPrice: trigger(), IsMarket: true, Type: "take_profit"}
	case model.OrderTypeTakeProfitLimit:
		payload.LimitPrice = legLimit()
		payload.Trigger = &connectors.AevoTrigger{TriggerPrice: trigger(), Type: "take_profit"}
	default:
		return connectors.AevoOrderPayload{}, nil, &model.ValidationError{
			Field:  "type",
			Reason: "unknown order type " + string(req.Type),
		}
	}

	return payload, warnings, nil
}
