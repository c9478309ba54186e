package mapper

import (
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"perpgate/src/connectors"
	"perpgate/src/model"
	"perpgate/src/symbol"
)

// MapAevoStatus folds aevo order statuses onto the canonical set.
func MapAevoStatus(status string) model.OrderStatus {
	switch strings.ToLower(status) {
	case "opened", "open":
		return model.OrderStatusNew
	case "partial", "partially_filled":
		return model.OrderStatusPartiallyFilled
	case "filled":
		return model.OrderStatusFilled
	case "cancelled", "canceled", "expired":
		return model.OrderStatusCanceled
	case "rejected":
		return model.OrderStatusRejected
	}
	logger.WithField("status", status).Warn("Unknown aevo order status")
	return model.OrderStatusFailed
}

// mapAevoOrderType reconstructs the canonical order type from the
// venue shape. Everything on aevo is a limit order; the trigger object
// is what distinguishes conditional variants.
func mapAevoOrderType(trigger *connectors.AevoTrigger) model.OrderType {
	if trigger == nil {
		return model.OrderTypeLimit
	}
	switch trigger.Type {
	case "stop":
		if trigger.IsMarket {
			return model.OrderTypeStopMarket
		}
		return model.OrderTypeStopLimit
	case "take_profit":
		if trigger.IsMarket {
			return model.OrderTypeTakeProfitMarket
		}
		return model.OrderTypeTakeProfitLimit
	}
	logger.WithField("trigger_type", trigger.Type).Warn("Unknown aevo trigger type")
	return model.OrderTypeLimit
}

func mapAevoSide(side string) model.Side {
	if strings.EqualFold(side, "buy") {
		return model.SideBuy
	}
	return model.SideSell
}

// MapAevoOrderToResult converts an order response into the canonical
// result. The average fill price wins over the limit price once the
// order has executions.
func MapAevoOrderToResult(resp *connectors.AevoOrderResponse) *model.OrderResult {
	if resp == nil {
		logger.WithField("mapper", "MapAevoOrderToResult").Error("Nil AevoOrderResponse received")
		return nil
	}

	price := parseDecimalSafe("price", resp.Price)
	if avg := parseDecimalSafe("avg_price", resp.AvgPrice); avg.IsPositive() {
		price = avg
	}

	return &model.OrderResult{
		OrderID:   resp.OrderID,
		Symbol:    symbol.FromAevo(resp.InstrumentName),
		Side:      mapAevoSide(resp.Side),
		Type:      mapAevoOrderType(resp.Trigger),
		Quantity:  parseDecimalSafe("amount", resp.Amount),
		Price:     price,
		Status:    MapAevoStatus(resp.OrderStatus),
		CreatedAt: time.Unix(0, resp.CreatedAt),
	}
}

func MapAevoMarketToAsset(market *connectors.AevoMarket) *model.Asset {
	if market == nil {
		return nil
	}
	return &model.Asset{
		Symbol:     symbol.FromAevo(market.InstrumentName),
		BaseAsset:  market.UnderlyingAsset,
		QuoteAsset: market.QuoteAsset,
		MinQty:     parseDecimalSafe("min_amount", market.MinAmount),
		TickSize:   parseDecimalSafe("tick_size", market.TickSize),
		StepSize:   parseDecimalSafe("amount_step", market.AmountStep),
	}
}

func MapAevoTicker(tk *connectors.AevoTicker) *model.Ticker {
	if tk == nil {
		return nil
	}
	return &model.Ticker{
		Symbol:    symbol.FromAevo(tk.InstrumentName),
		LastPrice: parseDecimalSafe("last_price", tk.LastPrice),
		MarkPrice: parseDecimalSafe("mark_price", tk.MarkPrice),
		BidPrice:  parseDecimalSafe("best_bid", tk.BestBid),
		AskPrice:  parseDecimalSafe("best_ask", tk.BestAsk),
		Volume24h: parseDecimalSafe("volume_24h", tk.Volume24h),
		Timestamp: time.Unix(0, tk.Timestamp),
	}
}

func mapAevoLevels(raw [][]string) []model.OrderbookLevel {
	levels := make([]model.OrderbookLevel, 0, len(raw))
	for _, entry := range raw {
		if len(entry) < 2 {
			continue
		}
		levels = append(levels, model.OrderbookLevel{
			Price:    parseDecimalSafe("price", entry[0]),
			Quantity: parseDecimalSafe("quantity", entry[1]),
		})
	}
	return levels
}

func MapAevoOrderbook(book *connectors.AevoOrderbook) *model.Orderbook {
	if book == nil {
		return nil
	}
	return &model.Orderbook{
		Symbol:    symbol.FromAevo(book.InstrumentName),
		Bids:      mapAevoLevels(book.Bids),
		Asks:      mapAevoLevels(book.Asks),
		Timestamp: time.Unix(0, book.Timestamp),
	}
}

func MapAevoCandle(c *connectors.AevoCandle) model.Candle {
	return model.Candle{
		OpenTime: time.UnixMilli(c.Time),
		Open:     parseDecimalSafe("open", c.Open),
		High:     parseDecimalSafe("high", c.High),
		Low:      parseDecimalSafe("low", c.Low),
		Close:    parseDecimalSafe("close", c.Close),
		Volume:   parseDecimalSafe("volume", c.Volume),
	}
}

func MapAevoBalance(b *connectors.AevoBalance) model.Balance {
	return model.Balance{
		Asset:     b.Asset,
		Total:     parseDecimalSafe("balance", b.Balance),
		Available: parseDecimalSafe("available_balance", b.Available),
	}
}

// MapAevoPosition converts a venue position. Aevo reports unsigned
// amounts with a side string, so short positions are negated to match
// the signed-size convention. Flat positions are dropped by returning
// nil.
func MapAevoPosition(pos *connectors.AevoPosition) *model.Position {
	if pos == nil {
		return nil
	}
	size := parseDecimalSafe("amount", pos.Amount)
	if size.IsZero() {
		return nil
	}
	if mapAevoSide(pos.Side) == model.SideSell {
		size = size.Neg()
	}
	return &model.Position{
		Symbol:           symbol.FromAevo(pos.InstrumentName),
		Size:             size,
		EntryPrice:       parseDecimalSafe("avg_entry_price", pos.AvgEntryPrice),
		MarkPrice:        parseDecimalSafe("mark_price", pos.MarkPrice),
		UnrealizedPnL:    parseDecimalSafe("unrealized_pnl", pos.UnrealizedPnl),
		Leverage:         int(parseDecimalSafe("leverage", pos.Leverage).IntPart()),
		LiquidationPrice: parseDecimalSafe("liquidation_price", pos.LiquidationPrice),
	}
}

func MapAevoFillToModel(f *connectors.AevoFill) model.Fill {
	return model.Fill{
		OrderID:   f.OrderID,
		Symbol:    symbol.FromAevo(f.InstrumentName),
		Side:      mapAevoSide(f.Side),
		Price:     parseDecimalSafe("price", f.Price),
		Quantity:  parseDecimalSafe("filled", f.Amount),
		Fee:       parseDecimalSafe("fees", f.Fees),
		FeeAsset:  f.FeeAsset,
		Timestamp: time.Unix(0, f.CreatedAt),
	}
}
