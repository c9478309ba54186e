package adapter

import (
	"github.com/shopspring/decimal"

	"perpgate/src/model"
)

func positive(d *decimal.Decimal) bool {
	return d != nil && d.IsPositive()
}

// validateOrderRequest rejects structurally invalid requests before
// anything touches the network. All failures are *model.ValidationError.
func validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return &model.ValidationError{Field: "request", Reason: "is nil"}
	}
	if req.Symbol == "" {
		return &model.ValidationError{Field: "symbol", Reason: "is required"}
	}
	if !req.Side.Valid() {
		return &model.ValidationError{Field: "side", Reason: "must be BUY or SELL"}
	}
	if !req.Type.Valid() {
		return &model.ValidationError{Field: "type", Reason: "unknown order type"}
	}
	if !req.Quantity.IsPositive() {
		return &model.ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if req.TimeInForce != "" && !req.TimeInForce.Valid() {
		return &model.ValidationError{Field: "time_in_force", Reason: "must be GTC, IOC or FOK"}
	}
	if req.Leverage != nil && *req.Leverage <= 0 {
		return &model.ValidationError{Field: "leverage", Reason: "must be positive"}
	}

	switch req.Type {
	case model.OrderTypeMarket:
		if req.Price != nil {
			return &model.ValidationError{Field: "price", Reason: "must not be set for market orders"}
		}
	case model.OrderTypeLimit:
		if !positive(req.Price) {
			return &model.ValidationError{Field: "price", Reason: "is required for limit orders"}
		}
	case model.OrderTypeStopLimit, model.OrderTypeTakeProfitLimit:
		if !positive(req.Price) && !positive(req.StopLimitPrice) {
			return &model.ValidationError{Field: "price", Reason: "is required for stop-limit and take-profit-limit orders"}
		}
		if !positive(req.TriggerPrice) {
			return &model.ValidationError{Field: "trigger_price", Reason: "is required for triggered orders"}
		}
	case model.OrderTypeStopMarket, model.OrderTypeTakeProfitMarket:
		if !positive(req.TriggerPrice) {
			return &model.ValidationError{Field: "trigger_price", Reason: "is required for triggered orders"}
		}
	case model.OrderTypeTrailingStopMarket:
		if !positive(req.TrailingDelta) {
			return &model.ValidationError{Field: "trailing_delta", Reason: "is required for trailing stops"}
		}
	}

	if req.StopLimitPrice != nil &&
		req.Type != model.OrderTypeStopLimit && req.Type != model.OrderTypeTakeProfitLimit &&
		req.Type != model.OrderTypeOCO {
		return &model.ValidationError{Field: "stop_limit_price", Reason: "only applies to stop-limit legs"}
	}
	if req.StopLimitPrice != nil && !req.StopLimitPrice.IsPositive() {
		return &model.ValidationError{Field: "stop_limit_price", Reason: "must be positive"}
	}

	if req.TakeProfit != nil && !req.TakeProfit.IsPositive() {
		return &model.ValidationError{Field: "take_profit", Reason: "must be positive"}
	}
	if req.StopLoss != nil && !req.StopLoss.IsPositive() {
		return &model.ValidationError{Field: "stop_loss", Reason: "must be positive"}
	}
	return nil
}
