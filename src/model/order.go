package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the other side. Used when building exit and
// protective orders.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

type OrderType string

const (
	OrderTypeMarket             OrderType = "MARKET"
	OrderTypeLimit              OrderType = "LIMIT"
	OrderTypeStopMarket         OrderType = "STOP_MARKET"
	OrderTypeStopLimit          OrderType = "STOP_LIMIT"
	OrderTypeTakeProfitMarket   OrderType = "TAKE_PROFIT_MARKET"
	OrderTypeTakeProfitLimit    OrderType = "TAKE_PROFIT_LIMIT"
	OrderTypeTrailingStopMarket OrderType = "TRAILING_STOP_MARKET"
	OrderTypeOCO                OrderType = "OCO"
)

func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeStopMarket, OrderTypeStopLimit,
		OrderTypeTakeProfitMarket, OrderTypeTakeProfitLimit, OrderTypeTrailingStopMarket,
		OrderTypeOCO:
		return true
	}
	return false
}

// Triggered reports whether the type only activates once a trigger
// price is crossed.
func (t OrderType) Triggered() bool {
	switch t {
	case OrderTypeStopMarket, OrderTypeStopLimit, OrderTypeTakeProfitMarket, OrderTypeTakeProfitLimit:
		return true
	}
	return false
}

type TimeInForce string

const (
	TIFGoodTillCancel    TimeInForce = "GTC"
	TIFImmediateOrCancel TimeInForce = "IOC"
	TIFFillOrKill        TimeInForce = "FOK"
)

func (t TimeInForce) Valid() bool {
	return t == TIFGoodTillCancel || t == TIFImmediateOrCancel || t == TIFFillOrKill
}

type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusFailed          OrderStatus = "FAILED"
)

// OrderRequest is the canonical, exchange-agnostic order shape. It is
// created per call and never persisted. All numeric fields are decimal
// strings on the wire; nothing here goes through float64.
type OrderRequest struct {
	Symbol         string           `json:"symbol"` // canonical form, e.g. "SOL"
	Side           Side             `json:"side"`
	Type           OrderType        `json:"type"`
	Quantity       decimal.Decimal  `json:"quantity"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	TriggerPrice   *decimal.Decimal `json:"trigger_price,omitempty"`
	StopLimitPrice *decimal.Decimal `json:"stop_limit_price,omitempty"`
	TimeInForce    TimeInForce      `json:"time_in_force,omitempty"`
	PostOnly       bool             `json:"post_only,omitempty"`
	ReduceOnly     bool             `json:"reduce_only,omitempty"`
	Leverage       *int             `json:"leverage,omitempty"`
	TrailingDelta  *decimal.Decimal `json:"trailing_delta,omitempty"` // percent, e.g. 1.5
	TakeProfit     *decimal.Decimal `json:"take_profit,omitempty"`    // attached trigger price
	StopLoss       *decimal.Decimal `json:"stop_loss,omitempty"`      // attached trigger price
}

// EffectiveTIF returns the request's time-in-force, defaulting to GTC
// when the caller left it empty.
func (r *OrderRequest) EffectiveTIF() TimeInForce {
	if r.TimeInForce == "" {
		return TIFGoodTillCancel
	}
	return r.TimeInForce
}

// HasAttachments reports whether the request carries take-profit or
// stop-loss trigger prices for dependent protective orders.
func (r *OrderRequest) HasAttachments() bool {
	return r.TakeProfit != nil || r.StopLoss != nil
}

// AttachmentOutcome reports the result of one protective-order
// placement attempt fired after a parent order succeeded.
type AttachmentOutcome struct {
	Kind    string // "take_profit" or "stop_loss"
	OrderID string
	Err     error
}

// OrderResult is the canonical response shape for a placed or queried
// order. The OrderID is opaque and scoped to the backend that issued
// it; it is not comparable across backends.
type OrderResult struct {
	OrderID       string          `json:"order_id"`
	ClientOrderID string          `json:"client_order_id,omitempty"`
	Symbol        string          `json:"symbol"`
	Side          Side            `json:"side"`
	Type          OrderType       `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`

	// Warnings carries non-fatal translation notes, e.g. a TIF that was
	// substituted because the backend lacks it.
	Warnings []string `json:"warnings,omitempty"`

	// Attachments delivers the outcome of dependent take-profit /
	// stop-loss placements. It is nil when the request carried none.
	// The parent call returns without waiting on it; callers that care
	// may drain the channel, which is closed once every attempt has
	// been reported.
	Attachments <-chan AttachmentOutcome `json:"-"`
}

// CancelResult reports a single-order cancellation. Cancellation races
// are expected: a missing or already-final order yields StatusFailed
// with a reason, never an error.
type CancelResult struct {
	OrderID string      `json:"order_id"`
	Symbol  string      `json:"symbol"`
	Status  OrderStatus `json:"status"` // CANCELED or FAILED
	Reason  string      `json:"reason,omitempty"`
}

// CancelAllResult reports a best-effort bulk cancel. When the backend
// cannot say how many orders it actually canceled, CountKnown is false
// and Canceled must not be trusted.
type CancelAllResult struct {
	Symbol     string `json:"symbol,omitempty"`
	Requested  int    `json:"requested"`
	Canceled   int    `json:"canceled"`
	CountKnown bool   `json:"count_known"`
}
