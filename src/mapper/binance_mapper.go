// Package mapper converts raw exchange payloads into the canonical
// model types. Mapping is "safe": a numeric field that fails to parse
// is logged and defaulted to zero instead of aborting the whole
// response.
package mapper

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"perpgate/src/connectors"
	"perpgate/src/model"
	"perpgate/src/symbol"
)

// parseDecimalSafe parses a decimal field, logging and defaulting to
// zero on failure.
func parseDecimalSafe(field, v string) decimal.Decimal {
	if v == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		logger.WithFields(logger.Fields{
			"field": field,
			"value": v,
		}).WithError(err).Error("Failed to parse decimal field; defaulting to 0")
		return decimal.Zero
	}
	return d
}

func parseIntSafe(field, v string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.WithFields(logger.Fields{
			"field": field,
			"value": v,
		}).WithError(err).Error("Failed to parse integer field; defaulting to 0")
		return 0
	}
	return n
}

// MapBinanceStatus folds Binance order statuses onto the canonical
// set. EXPIRED and EXPIRED_IN_MATCH count as canceled: the order left
// the book without the caller asking, but nothing was rejected.
func MapBinanceStatus(status string) model.OrderStatus {
	switch status {
	case "NEW":
		return model.OrderStatusNew
	case "PARTIALLY_FILLED":
		return model.OrderStatusPartiallyFilled
	case "FILLED":
		return model.OrderStatusFilled
	case "CANCELED", "EXPIRED", "EXPIRED_IN_MATCH":
		return model.OrderStatusCanceled
	case "REJECTED":
		return model.OrderStatusRejected
	}
	logger.WithField("status", status).Warn("Unknown binance order status")
	return model.OrderStatusFailed
}

func MapBinanceOrderType(typ string) model.OrderType {
	switch typ {
	case "MARKET":
		return model.OrderTypeMarket
	case "LIMIT":
		return model.OrderTypeLimit
	case "STOP":
		return model.OrderTypeStopLimit
	case "STOP_MARKET":
		return model.OrderTypeStopMarket
	case "TAKE_PROFIT":
		return model.OrderTypeTakeProfitLimit
	case "TAKE_PROFIT_MARKET":
		return model.OrderTypeTakeProfitMarket
	case "TRAILING_STOP_MARKET":
		return model.OrderTypeTrailingStopMarket
	}
	logger.WithField("type", typ).Warn("Unknown binance order type")
	return model.OrderType(typ)
}

// MapBinanceOrderToResult converts an order response into the
// canonical result. The average fill price wins over the limit price
// once the order has executions.
func MapBinanceOrderToResult(resp *connectors.BinanceOrderResponse) *model.OrderResult {
	if resp == nil {
		logger.WithField("mapper", "MapBinanceOrderToResult").Error("Nil BinanceOrderResponse received")
		return nil
	}

	price := parseDecimalSafe("price", resp.Price)
	if avg := parseDecimalSafe("avgPrice", resp.AvgPrice); avg.IsPositive() {
		price = avg
	}

	created := resp.Time
	if created == 0 {
		created = resp.UpdateTime
	}

	return &model.OrderResult{
		OrderID:       strconv.FormatInt(resp.OrderID, 10),
		ClientOrderID: resp.ClientOrderID,
		Symbol:        symbol.FromBinance(resp.Symbol),
		Side:          model.Side(resp.Side),
		Type:          MapBinanceOrderType(resp.Type),
		Quantity:      parseDecimalSafe("origQty", resp.OrigQty),
		Price:         price,
		Status:        MapBinanceStatus(resp.Status),
		CreatedAt:     time.UnixMilli(created),
	}
}

// MapBinanceSymbolToAsset extracts instrument metadata from exchange
// info. Missing filters leave the corresponding field at zero, which
// downstream quantization treats as "unknown, pass through".
func MapBinanceSymbolToAsset(info *connectors.BinanceSymbolInfo) *model.Asset {
	if info == nil {
		return nil
	}
	asset := &model.Asset{
		Symbol:     symbol.FromBinance(info.Symbol),
		BaseAsset:  info.BaseAsset,
		QuoteAsset: info.QuoteAsset,
	}
	for _, f := range info.Filters {
		switch f.FilterType {
		case "PRICE_FILTER":
			asset.TickSize = parseDecimalSafe("tickSize", f.TickSize)
		case "LOT_SIZE":
			asset.StepSize = parseDecimalSafe("stepSize", f.StepSize)
			asset.MinQty = parseDecimalSafe("minQty", f.MinQty)
		}
	}
	return asset
}

// MapBinanceTicker fuses the 24h ticker, the book ticker and the
// premium index into one canonical snapshot.
func MapBinanceTicker(t24 *connectors.BinanceTicker24h, book *connectors.BinanceBookTicker, premium *connectors.BinancePremiumIndex) *model.Ticker {
	if t24 == nil {
		return nil
	}
	ticker := &model.Ticker{
		Symbol:    symbol.FromBinance(t24.Symbol),
		LastPrice: parseDecimalSafe("lastPrice", t24.LastPrice),
		Volume24h: parseDecimalSafe("volume", t24.Volume),
		Timestamp: time.UnixMilli(t24.CloseTime),
	}
	if book != nil {
		ticker.BidPrice = parseDecimalSafe("bidPrice", book.BidPrice)
		ticker.AskPrice = parseDecimalSafe("askPrice", book.AskPrice)
	}
	if premium != nil {
		ticker.MarkPrice = parseDecimalSafe("markPrice", premium.MarkPrice)
	}
	return ticker
}

func mapBinanceLevels(raw [][]string) []model.OrderbookLevel {
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

func MapBinanceDepth(canonical string, depth *connectors.BinanceDepth) *model.Orderbook {
	if depth == nil {
		return nil
	}
	return &model.Orderbook{
		Symbol:    canonical,
		Bids:      mapBinanceLevels(depth.Bids),
		Asks:      mapBinanceLevels(depth.Asks),
		Timestamp: time.UnixMilli(depth.Time),
	}
}

// MapBinanceKline converts one raw kline row. Binance serializes rows
// as mixed arrays: open time is a number, prices and volume are
// strings.
func MapBinanceKline(row []json.RawMessage) (model.Candle, bool) {
	if len(row) < 6 {
		logger.WithField("columns", len(row)).Warn("Short binance kline row, skipping")
		return model.Candle{}, false
	}

	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		logger.WithError(err).Warn("Unreadable kline open time, skipping row")
		return model.Candle{}, false
	}

	field := func(name string, raw json.RawMessage) decimal.Decimal {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			logger.WithField("field", name).WithError(err).Error("Unreadable kline field; defaulting to 0")
			return decimal.Zero
		}
		return parseDecimalSafe(name, s)
	}

	return model.Candle{
		OpenTime: time.UnixMilli(openTime),
		Open:     field("open", row[1]),
		High:     field("high", row[2]),
		Low:      field("low", row[3]),
		Close:    field("close", row[4]),
		Volume:   field("volume", row[5]),
	}, true
}

// MapBinancePosition converts a position-risk entry. Binance already
// signs positionAmt, so the sign convention carries straight through.
// Flat positions are dropped by returning nil.
func MapBinancePosition(risk *connectors.BinancePositionRisk) *model.Position {
	if risk == nil {
		return nil
	}
	size := parseDecimalSafe("positionAmt", risk.PositionAmt)
	if size.IsZero() {
		return nil
	}
	return &model.Position{
		Symbol:           symbol.FromBinance(risk.Symbol),
		Size:             size,
		EntryPrice:       parseDecimalSafe("entryPrice", risk.EntryPrice),
		MarkPrice:        parseDecimalSafe("markPrice", risk.MarkPrice),
		UnrealizedPnL:    parseDecimalSafe("unRealizedProfit", risk.UnRealizedProfit),
		Leverage:         parseIntSafe("leverage", risk.Leverage),
		LiquidationPrice: parseDecimalSafe("liquidationPrice", risk.LiquidationPrice),
	}
}

func MapBinanceBalance(asset *connectors.BinanceAccountAsset) model.Balance {
	return model.Balance{
		Asset:     asset.Asset,
		Total:     parseDecimalSafe("walletBalance", asset.WalletBalance),
		Available: parseDecimalSafe("availableBalance", asset.AvailableBalance),
	}
}

func MapBinanceTradeToFill(trade *connectors.BinanceUserTrade) model.Fill {
	return model.Fill{
		OrderID:   strconv.FormatInt(trade.OrderID, 10),
		Symbol:    symbol.FromBinance(trade.Symbol),
		Side:      model.Side(trade.Side),
		Price:     parseDecimalSafe("price", trade.Price),
		Quantity:  parseDecimalSafe("qty", trade.Qty),
		Fee:       parseDecimalSafe("commission", trade.Commission),
		FeeAsset:  trade.CommissionAsset,
		Timestamp: time.UnixMilli(trade.Time),
	}
}
