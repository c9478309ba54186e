// Package adapter exposes one abstract trading contract over
// structurally different perpetual futures backends. Strategy code
// depends on this package only; everything venue specific lives behind
// it.
package adapter

import (
	"context"

	"github.com/shopspring/decimal"

	"perpgate/src/model"
)

// Capability names an operation outside the core contract. Callers
// query Capabilities before type-asserting the optional interface;
// absence means "this venue cannot do it", not an error.
type Capability string

const (
	CapSetLeverage          Capability = "set_leverage"
	CapMarginMode           Capability = "margin_mode"
	CapClosePosition        Capability = "close_position"
	CapPositionTPSL         Capability = "position_tpsl"
	CapPositionMarginUpdate Capability = "position_margin_update"
)

type CapabilitySet map[Capability]bool

func (s CapabilitySet) Has(c Capability) bool { return s[c] }

// Adapter is the unified exchange contract. Adapters are stateless
// between calls: every read is a fresh pass-through to the backend and
// every order id is opaque and scoped to the venue that issued it.
type Adapter interface {
	Name() string
	Capabilities() CapabilitySet

	GetAccount(ctx context.Context) (*model.Account, error)
	GetAssets(ctx context.Context) ([]model.Asset, error)
	GetTicker(ctx context.Context, symbol string) (*model.Ticker, error)
	GetOrderbook(ctx context.Context, symbol string, depth int) (*model.Orderbook, error)
	GetOHLCV(ctx context.Context, symbol, interval string, limit int) ([]model.Candle, error)
	GetPositions(ctx context.Context, symbol string) ([]model.Position, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]model.OrderResult, error)
	GetOrderHistory(ctx context.Context, symbol string, limit int) ([]model.OrderResult, error)
	GetFills(ctx context.Context, symbol string, limit int) ([]model.Fill, error)

	PlaceOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResult, error)
	CancelOrder(ctx context.Context, orderID, symbol string) (*model.CancelResult, error)
	CancelAllOrders(ctx context.Context, symbol string) (*model.CancelAllResult, error)
}

// LeverageSetter adjusts position leverage. Guarded by CapSetLeverage.
type LeverageSetter interface {
	SetLeverage(ctx context.Context, symbol string, leverage int) error
}

// MarginModeManager switches between cross and isolated margin and
// reports the mode currently in effect. Guarded by CapMarginMode.
type MarginModeManager interface {
	SetMarginMode(ctx context.Context, symbol, mode string) error
	GetMarginMode(ctx context.Context, symbol string) (string, error)
}

// PositionCloser flattens an open position with a reduce-only market
// order. Guarded by CapClosePosition.
type PositionCloser interface {
	ClosePosition(ctx context.Context, symbol string) (*model.OrderResult, error)
}

// PositionTPSLSetter attaches position-level take-profit and stop-loss
// triggers. Guarded by CapPositionTPSL.
type PositionTPSLSetter interface {
	SetPositionTPSL(ctx context.Context, symbol string, takeProfit, stopLoss *decimal.Decimal) error
}

// PositionMarginUpdater moves margin in or out of an isolated
// position. Guarded by CapPositionMarginUpdate.
type PositionMarginUpdater interface {
	UpdatePositionMargin(ctx context.Context, symbol string, amount decimal.Decimal, add bool) error
}
