package model

import "github.com/shopspring/decimal"

type Balance struct {
	Asset     string          `json:"asset"`
	Total     decimal.Decimal `json:"total"`
	Available decimal.Decimal `json:"available"`
}

// Position is a read-through projection of the backend's live state.
// It is recomputed on every read and never cached locally. The sign of
// Size encodes direction: positive is long, negative is short.
type Position struct {
	Symbol           string          `json:"symbol"` // canonical form
	Size             decimal.Decimal `json:"size"`
	EntryPrice       decimal.Decimal `json:"entry_price"`
	MarkPrice        decimal.Decimal `json:"mark_price"`
	UnrealizedPnL    decimal.Decimal `json:"unrealized_pnl"`
	Leverage         int             `json:"leverage"`
	LiquidationPrice decimal.Decimal `json:"liquidation_price"`
}

func (p *Position) IsLong() bool  { return p.Size.IsPositive() }
func (p *Position) IsShort() bool { return p.Size.IsNegative() }

// Account is a snapshot of balances and open positions.
type Account struct {
	Balances  []Balance  `json:"balances"`
	Positions []Position `json:"positions"`
}
