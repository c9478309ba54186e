package adapter

import (
	"perpgate/src/connectors"
	"perpgate/src/model"
	"perpgate/src/symbol"
)

// binanceTranslate maps a validated, quantized request onto the flat
// binance order params. Translation is structural only; all numerics
// must already be quantized by the caller.
func binanceTranslate(req *model.OrderRequest, asset *model.Asset) (connectors.BinanceOrderParams, []string, error) {
	if req.Type == model.OrderTypeOCO {
		return connectors.BinanceOrderParams{}, nil, &model.UnsupportedFeatureError{
			Exchange: model.ExchangeBinance,
			Feature:  "oco orders",
		}
	}

	params := connectors.BinanceOrderParams{
		Symbol:     symbol.ToBinance(req.Symbol),
		Side:       string(req.Side),
		Quantity:   formatByIncrement(req.Quantity, asset.StepSize),
		ReduceOnly: req.ReduceOnly,
	}

	price := func(p *model.OrderRequest) string {
		return formatByIncrement(*p.Price, asset.TickSize)
	}
	trigger := func(p *model.OrderRequest) string {
		return formatByIncrement(*p.TriggerPrice, asset.TickSize)
	}
	// limit-execution price of a stop-limit leg; the dedicated field
	// wins over the plain price when both are set
	legLimit := func(p *model.OrderRequest) string {
		if p.StopLimitPrice != nil {
			return formatByIncrement(*p.StopLimitPrice, asset.TickSize)
		}
		return price(p)
	}

	tif := string(req.EffectiveTIF())
	if req.PostOnly {
		// GTX is the venue spelling of post-only.
		tif = "GTX"
	}

	switch req.Type {
	case model.OrderTypeMarket:
		params.Type = "MARKET"
	case model.OrderTypeLimit:
		params.Type = "LIMIT"
		params.TimeInForce = tif
		params.Price = price(req)
	case model.OrderTypeStopMarket:
		params.Type = "STOP_MARKET"
		params.StopPrice = trigger(req)
	case model.OrderTypeStopLimit:
		params.Type = "STOP"
		params.TimeInForce = tif
		params.Price = legLimit(req)
		params.StopPrice = trigger(req)
	case model.OrderTypeTakeProfitMarket:
		params.Type = "TAKE_PROFIT_MARKET"
		params.StopPrice = trigger(req)
	case model.OrderTypeTakeProfitLimit:
		params.Type = "TAKE_PROFIT"
		params.TimeInForce = tif
		params.Price = legLimit(req)
		params.StopPrice = trigger(req)
	case model.OrderTypeTrailingStopMarket:
		params.Type = "TRAILING_STOP_MARKET"
		params.CallbackRate = req.TrailingDelta.String()
		if req.TriggerPrice != nil {
			// Optional activation price.
			params.StopPrice = trigger(req)
		}
	default:
		return connectors.BinanceOrderParams{}, nil, &model.ValidationError{
			Field:  "type",
			Reason: "unknown order type " + string(req.Type),
		}
	}

	return params, nil, nil
}
