package adapter

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"perpgate/src/connectors"
	"perpgate/src/mapper"
	"perpgate/src/model"
	"perpgate/src/symbol"
)

// AevoAdapter implements the unified contract over the aevo perpetuals
// DEX. The venue only accepts limit orders, so market semantics are
// synthesized as aggressive IOC limits at a configurable offset from
// the mark price.
type AevoAdapter struct {
	client    *connectors.AevoClient
	offsetPct decimal.Decimal

	mu     sync.RWMutex
	assets map[string]model.Asset
}

func NewAevoAdapter(client *connectors.AevoClient, cfg connectors.Config) *AevoAdapter {
	offset := decimal.NewFromFloat(cfg.MarketOrderOffsetPercent)
	if !offset.IsPositive() {
		offset = decimal.NewFromInt(5)
	}
	return &AevoAdapter{
		client:    client,
		offsetPct: offset,
		assets:    make(map[string]model.Asset),
	}
}

func (a *AevoAdapter) Name() string { return model.ExchangeAevo }

func (a *AevoAdapter) Capabilities() CapabilitySet {
	return CapabilitySet{
		CapSetLeverage:   true,
		CapClosePosition: true,
	}
}

// -----------------------------
// MARKET DATA
// -----------------------------

func (a *AevoAdapter) GetAssets(ctx context.Context) ([]model.Asset, error) {
	markets, err := a.client.GetMarkets(ctx, "")
	if err != nil {
		return nil, err
	}

	assets := make([]model.Asset, 0, len(markets))
	fresh := make(map[string]model.Asset, len(markets))
	for i := range markets {
		if !markets[i].IsActive {
			continue
		}
		asset := mapper.MapAevoMarketToAsset(&markets[i])
		assets = append(assets, *asset)
		fresh[asset.Symbol] = *asset
	}

	a.mu.Lock()
	a.assets = fresh
	a.mu.Unlock()
	return assets, nil
}

func (a *AevoAdapter) assetFor(ctx context.Context, canonical string) (*model.Asset, error) {
	a.mu.RLock()
	asset, ok := a.assets[canonical]
	a.mu.RUnlock()
	if ok {
		return &asset, nil
	}

	markets, err := a.client.GetMarkets(ctx, symbol.ToAevo(canonical))
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, &model.ValidationError{Field: "symbol", Reason: "unknown instrument " + canonical}
	}

	mapped := mapper.MapAevoMarketToAsset(&markets[0])
	a.mu.Lock()
	a.assets[mapped.Symbol] = *mapped
	a.mu.Unlock()
	return mapped, nil
}

func (a *AevoAdapter) GetTicker(ctx context.Context, canonical string) (*model.Ticker, error) {
	tk, err := a.client.GetTicker(ctx, symbol.ToAevo(canonical))
	if err != nil {
		return nil, err
	}
	return mapper.MapAevoTicker(tk), nil
}

func (a *AevoAdapter) GetOrderbook(ctx context.Context, canonical string, depth int) (*model.Orderbook, error) {
	book, err := a.client.GetOrderbook(ctx, symbol.ToAevo(canonical), depth)
	if err != nil {
		return nil, err
	}
	return mapper.MapAevoOrderbook(book), nil
}

func (a *AevoAdapter) GetOHLCV(ctx context.Context, canonical, interval string, limit int) ([]model.Candle, error) {
	raw, err := a.client.GetKlines(ctx, symbol.ToAevo(canonical), interval, limit)
	if err != nil {
		return nil, err
	}
	candles := make([]model.Candle, 0, len(raw))
	for i := range raw {
		candles = append(candles, mapper.MapAevoCandle(&raw[i]))
	}
	return candles, nil
}

// -----------------------------
// ACCOUNT
// -----------------------------

func (a *AevoAdapter) GetAccount(ctx context.Context) (*model.Account, error) {
	raw, err := a.client.GetAccount(ctx)
	if err != nil {
		return nil, err
	}

	account := &model.Account{}
	for i := range raw.Balances {
		account.Balances = append(account.Balances, mapper.MapAevoBalance(&raw.Balances[i]))
	}
	for i := range raw.Positions {
		if p := mapper.MapAevoPosition(&raw.Positions[i]); p != nil {
			account.Positions = append(account.Positions, *p)
		}
	}
	return account, nil
}

func (a *AevoAdapter) GetPositions(ctx context.Context, canonical string) ([]model.Position, error) {
	raw, err := a.client.GetPositions(ctx)
	if err != nil {
		return nil, err
	}

	want := symbol.Canonical(canonical)
	positions := make([]model.Position, 0, len(raw))
	for i := range raw {
		p := mapper.MapAevoPosition(&raw[i])
		if p == nil {
			continue
		}
		if want != "" && p.Symbol != want {
			continue
		}
		positions = append(positions, *p)
	}
	return positions, nil
}

// -----------------------------
// ORDERS
// -----------------------------

func (a *AevoAdapter) GetOpenOrders(ctx context.Context, canonical string) ([]model.OrderResult, error) {
	native := ""
	if canonical != "" {
		native = symbol.ToAevo(canonical)
	}
	raw, err := a.client.GetOpenOrders(ctx, native)
	if err != nil {
		return nil, err
	}
	return mapAevoOrders(raw), nil
}

func (a *AevoAdapter) GetOrderHistory(ctx context.Context, canonical string, limit int) ([]model.OrderResult, error) {
	native := ""
	if canonical != "" {
		native = symbol.ToAevo(canonical)
	}
	raw, err := a.client.GetOrderHistory(ctx, native, limit)
	if err != nil {
		return nil, err
	}
	return mapAevoOrders(raw), nil
}

func mapAevoOrders(raw []connectors.AevoOrderResponse) []model.OrderResult {
	results := make([]model.OrderResult, 0, len(raw))
	for i := range raw {
		if r := mapper.MapAevoOrderToResult(&raw[i]); r != nil {
			results = append(results, *r)
		}
	}
	return results
}

func (a *AevoAdapter) GetFills(ctx context.Context, canonical string, limit int) ([]model.Fill, error) {
	native := ""
	if canonical != "" {
		native = symbol.ToAevo(canonical)
	}
	raw, err := a.client.GetFills(ctx, native, limit)
	if err != nil {
		return nil, err
	}
	fills := make([]model.Fill, 0, len(raw))
	for i := range raw {
		fills = append(fills, mapper.MapAevoFillToModel(&raw[i]))
	}
	return fills, nil
}

func (a *AevoAdapter) PlaceOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResult, error) {
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	// Feature checks come before any network traffic so an unsupported
	// request fails without touching the venue.
	switch req.Type {
	case model.OrderTypeTrailingStopMarket:
		return nil, &model.UnsupportedFeatureError{Exchange: model.ExchangeAevo, Feature: "trailing stop orders"}
	case model.OrderTypeOCO:
		return nil, &model.UnsupportedFeatureError{Exchange: model.ExchangeAevo, Feature: "oco orders"}
	}

	asset, err := a.assetFor(ctx, symbol.Canonical(req.Symbol))
	if err != nil {
		return nil, err
	}

	quantized, err := quantizeRequest(req, asset, connectors.PriceSigFigs)
	if err != nil {
		return nil, err
	}

	markPrice := decimal.Zero
	if req.Type == model.OrderTypeMarket {
		ticker, err := a.GetTicker(ctx, asset.Symbol)
		if err != nil {
			return nil, err
		}
		markPrice = ticker.MarkPrice
		if !markPrice.IsPositive() {
			markPrice = ticker.LastPrice
		}
		if !markPrice.IsPositive() {
			return nil, &model.ValidationError{Field: "symbol", Reason: "no reference price available for market synthesis"}
		}
	}

	payload, warnings, err := aevoTranslate(quantized, asset, markPrice, a.offsetPct)
	if err != nil {
		return nil, err
	}

	if quantized.Leverage != nil {
		if err := a.client.SetLeverage(ctx, payload.Instrument, *quantized.Leverage); err != nil {
			return nil, err
		}
	}

	resp, err := a.client.PlaceOrder(ctx, payload)
	if err != nil {
		return nil, err
	}

	result := mapper.MapAevoOrderToResult(resp)
	result.Warnings = warnings
	if quantized.HasAttachments() {
		result.Attachments = attachProtectiveOrders(a.Name(), result, quantized, a.protectivePlacer(asset, quantized))
	}
	return result, nil
}

// protectivePlacer builds reduce-only conditional orders on the exit
// side, triggered at the requested price and executing as market once
// crossed.
func (a *AevoAdapter) protectivePlacer(asset *model.Asset, parent *model.OrderRequest) attachmentPlacer {
	return func(ctx context.Context, kind string, trigger decimal.Decimal) (string, error) {
		triggerType := "take_profit"
		if kind == "stop_loss" {
			triggerType = "stop"
		}
		price := formatByIncrement(trigger, asset.TickSize)
		resp, err := a.client.PlaceOrder(ctx, connectors.AevoOrderPayload{
			Instrument:  symbol.ToAevo(parent.Symbol),
			IsBuy:       parent.Side.Opposite() == model.SideBuy,
			Amount:      formatByIncrement(parent.Quantity, asset.StepSize),
			LimitPrice:  price,
			TimeInForce: "GTC",
			ReduceOnly:  true,
			Trigger:     &connectors.AevoTrigger{TriggerPrice: price, IsMarket: true, Type: triggerType},
		})
		if err != nil {
			return "", err
		}
		return resp.OrderID, nil
	}
}

// CancelOrder treats venue rejections as an expected race: an unknown
// or already-final order comes back as a FAILED result with the venue
// reason, not an error.
func (a *AevoAdapter) CancelOrder(ctx context.Context, orderID, canonical string) (*model.CancelResult, error) {
	resp, err := a.client.CancelOrder(ctx, orderID)
	if err != nil {
		var rej *model.ExchangeRejectionError
		if errors.As(err, &rej) {
			return &model.CancelResult{
				OrderID: orderID,
				Symbol:  symbol.Canonical(canonical),
				Status:  model.OrderStatusFailed,
				Reason:  rej.Message,
			}, nil
		}
		return nil, err
	}
	return &model.CancelResult{
		OrderID: resp.OrderID,
		Symbol:  symbol.Canonical(canonical),
		Status:  model.OrderStatusCanceled,
	}, nil
}

// CancelAllOrders has no bulk endpoint on this venue: the open orders
// are listed and canceled individually, fanning out and collecting
// every outcome. The count is exact, so CountKnown is true.
func (a *AevoAdapter) CancelAllOrders(ctx context.Context, canonical string) (*model.CancelAllResult, error) {
	open, err := a.GetOpenOrders(ctx, canonical)
	if err != nil {
		return nil, err
	}

	result := &model.CancelAllResult{
		Symbol:     symbol.Canonical(canonical),
		Requested:  len(open),
		CountKnown: true,
	}
	if len(open) == 0 {
		return result, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		canceled int
	)
	for i := range open {
		wg.Add(1)
		go func(orderID string) {
			defer wg.Done()
			if _, err := a.client.CancelOrder(ctx, orderID); err != nil {
				logger.WithError(err).WithField("order_id", orderID).Error("Cancel failed during bulk cancel")
				return
			}
			mu.Lock()
			canceled++
			mu.Unlock()
		}(open[i].OrderID)
	}
	wg.Wait()

	result.Canceled = canceled
	return result, nil
}

// -----------------------------
// OPTIONAL CAPABILITIES
// -----------------------------

func (a *AevoAdapter) SetLeverage(ctx context.Context, canonical string, leverage int) error {
	if leverage <= 0 {
		return &model.ValidationError{Field: "leverage", Reason: "must be positive"}
	}
	return a.client.SetLeverage(ctx, symbol.ToAevo(canonical), leverage)
}

// ClosePosition flattens the live position with a synthesized market
// order on the exit side.
func (a *AevoAdapter) ClosePosition(ctx context.Context, canonical string) (*model.OrderResult, error) {
	positions, err := a.GetPositions(ctx, canonical)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, &model.ValidationError{Field: "symbol", Reason: "no open position for " + canonical}
	}

	pos := positions[0]
	side := model.SideSell
	if pos.IsShort() {
		side = model.SideBuy
	}
	return a.PlaceOrder(ctx, &model.OrderRequest{
		Symbol:     pos.Symbol,
		Side:       side,
		Type:       model.OrderTypeMarket,
		Quantity:   pos.Size.Abs(),
		ReduceOnly: true,
	})
}
