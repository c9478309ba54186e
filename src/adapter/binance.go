package adapter

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"perpgate/src/connectors"
	"perpgate/src/mapper"
	"perpgate/src/model"
	"perpgate/src/symbol"
)

// BinanceAdapter implements the unified contract over Binance USDT-M
// futures. Order and position state is always read through to the
// venue; only static instrument metadata is memoized.
type BinanceAdapter struct {
	client *connectors.BinanceClient

	mu     sync.RWMutex
	assets map[string]model.Asset
}

func NewBinanceAdapter(client *connectors.BinanceClient) *BinanceAdapter {
	return &BinanceAdapter{
		client: client,
		assets: make(map[string]model.Asset),
	}
}

func (a *BinanceAdapter) Name() string { return model.ExchangeBinance }

func (a *BinanceAdapter) Capabilities() CapabilitySet {
	return CapabilitySet{
		CapSetLeverage:          true,
		CapMarginMode:           true,
		CapClosePosition:        true,
		CapPositionTPSL:         true,
		CapPositionMarginUpdate: true,
	}
}

// -----------------------------
// MARKET DATA
// -----------------------------

func (a *BinanceAdapter) GetAssets(ctx context.Context) ([]model.Asset, error) {
	info, err := a.client.GetExchangeInfo(ctx)
	if err != nil {
		return nil, err
	}

	assets := make([]model.Asset, 0, len(info.Symbols))
	fresh := make(map[string]model.Asset, len(info.Symbols))
	for i := range info.Symbols {
		s := &info.Symbols[i]
		if s.Status != "TRADING" {
			continue
		}
		asset := mapper.MapBinanceSymbolToAsset(s)
		assets = append(assets, *asset)
		fresh[asset.Symbol] = *asset
	}

	a.mu.Lock()
	a.assets = fresh
	a.mu.Unlock()
	return assets, nil
}

// assetFor resolves instrument metadata for one canonical symbol,
// refreshing the memoized exchange info on a miss.
func (a *BinanceAdapter) assetFor(ctx context.Context, canonical string) (*model.Asset, error) {
	a.mu.RLock()
	asset, ok := a.assets[canonical]
	a.mu.RUnlock()
	if ok {
		return &asset, nil
	}

	if _, err := a.GetAssets(ctx); err != nil {
		return nil, err
	}

	a.mu.RLock()
	asset, ok = a.assets[canonical]
	a.mu.RUnlock()
	if !ok {
		return nil, &model.ValidationError{Field: "symbol", Reason: "unknown instrument " + canonical}
	}
	return &asset, nil
}

func (a *BinanceAdapter) GetTicker(ctx context.Context, canonical string) (*model.Ticker, error) {
	native := symbol.ToBinance(canonical)

	t24, err := a.client.GetTicker24h(ctx, native)
	if err != nil {
		return nil, err
	}
	book, err := a.client.GetBookTicker(ctx, native)
	if err != nil {
		return nil, err
	}
	premium, err := a.client.GetPremiumIndex(ctx, native)
	if err != nil {
		return nil, err
	}
	return mapper.MapBinanceTicker(t24, book, premium), nil
}

func (a *BinanceAdapter) GetOrderbook(ctx context.Context, canonical string, depth int) (*model.Orderbook, error) {
	raw, err := a.client.GetDepth(ctx, symbol.ToBinance(canonical), depth)
	if err != nil {
		return nil, err
	}
	return mapper.MapBinanceDepth(canonical, raw), nil
}

func (a *BinanceAdapter) GetOHLCV(ctx context.Context, canonical, interval string, limit int) ([]model.Candle, error) {
	rows, err := a.client.GetKlines(ctx, symbol.ToBinance(canonical), interval, limit)
	if err != nil {
		return nil, err
	}
	candles := make([]model.Candle, 0, len(rows))
	for _, row := range rows {
		if candle, ok := mapper.MapBinanceKline(row); ok {
			candles = append(candles, candle)
		}
	}
	return candles, nil
}

// -----------------------------
// ACCOUNT
// -----------------------------

func (a *BinanceAdapter) GetAccount(ctx context.Context) (*model.Account, error) {
	raw, err := a.client.GetAccount(ctx)
	if err != nil {
		return nil, err
	}

	account := &model.Account{}
	for i := range raw.Assets {
		account.Balances = append(account.Balances, mapper.MapBinanceBalance(&raw.Assets[i]))
	}

	positions, err := a.GetPositions(ctx, "")
	if err != nil {
		return nil, err
	}
	account.Positions = positions
	return account, nil
}

func (a *BinanceAdapter) GetPositions(ctx context.Context, canonical string) ([]model.Position, error) {
	native := ""
	if canonical != "" {
		native = symbol.ToBinance(canonical)
	}

	risks, err := a.client.GetPositionRisk(ctx, native)
	if err != nil {
		return nil, err
	}

	positions := make([]model.Position, 0, len(risks))
	for i := range risks {
		if p := mapper.MapBinancePosition(&risks[i]); p != nil {
			positions = append(positions, *p)
		}
	}
	return positions, nil
}

// -----------------------------
// ORDERS
// -----------------------------

func (a *BinanceAdapter) GetOpenOrders(ctx context.Context, canonical string) ([]model.OrderResult, error) {
	native := ""
	if canonical != "" {
		native = symbol.ToBinance(canonical)
	}
	raw, err := a.client.GetOpenOrders(ctx, native)
	if err != nil {
		return nil, err
	}
	return mapBinanceOrders(raw), nil
}

func (a *BinanceAdapter) GetOrderHistory(ctx context.Context, canonical string, limit int) ([]model.OrderResult, error) {
	if canonical == "" {
		return nil, &model.ValidationError{Field: "symbol", Reason: "is required for order history on binance"}
	}
	raw, err := a.client.GetAllOrders(ctx, symbol.ToBinance(canonical), limit)
	if err != nil {
		return nil, err
	}
	return mapBinanceOrders(raw), nil
}

func mapBinanceOrders(raw []connectors.BinanceOrderResponse) []model.OrderResult {
	results := make([]model.OrderResult, 0, len(raw))
	for i := range raw {
		if r := mapper.MapBinanceOrderToResult(&raw[i]); r != nil {
			results = append(results, *r)
		}
	}
	return results
}

func (a *BinanceAdapter) GetFills(ctx context.Context, canonical string, limit int) ([]model.Fill, error) {
	if canonical == "" {
		return nil, &model.ValidationError{Field: "symbol", Reason: "is required for fills on binance"}
	}
	trades, err := a.client.GetUserTrades(ctx, symbol.ToBinance(canonical), limit)
	if err != nil {
		return nil, err
	}
	fills := make([]model.Fill, 0, len(trades))
	for i := range trades {
		fills = append(fills, mapper.MapBinanceTradeToFill(&trades[i]))
	}
	return fills, nil
}

func (a *BinanceAdapter) PlaceOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResult, error) {
	if err := validateOrderRequest(req); err != nil {
		return nil, err
	}

	// Feature checks come before any network traffic so an unsupported
	// request fails without touching the venue.
	if req.Type == model.OrderTypeOCO {
		return nil, &model.UnsupportedFeatureError{Exchange: model.ExchangeBinance, Feature: "oco orders"}
	}

	asset, err := a.assetFor(ctx, symbol.Canonical(req.Symbol))
	if err != nil {
		return nil, err
	}

	quantized, err := quantizeRequest(req, asset, 0)
	if err != nil {
		return nil, err
	}

	params, warnings, err := binanceTranslate(quantized, asset)
	if err != nil {
		return nil, err
	}
	params.ClientOrderID = "pg-" + uuid.NewString()

	if quantized.Leverage != nil {
		if err := a.client.SetLeverage(ctx, params.Symbol, *quantized.Leverage); err != nil {
			return nil, err
		}
	}

	resp, err := a.client.PlaceOrder(ctx, params)
	if err != nil {
		return nil, err
	}

	result := mapper.MapBinanceOrderToResult(resp)
	result.Warnings = warnings
	if quantized.HasAttachments() {
		result.Attachments = attachProtectiveOrders(a.Name(), result, quantized, a.protectivePlacer(asset, quantized))
	}
	return result, nil
}

// protectivePlacer builds the reduce-only trigger orders fired after a
// parent order is accepted.
func (a *BinanceAdapter) protectivePlacer(asset *model.Asset, parent *model.OrderRequest) attachmentPlacer {
	return func(ctx context.Context, kind string, trigger decimal.Decimal) (string, error) {
		typ := "TAKE_PROFIT_MARKET"
		if kind == "stop_loss" {
			typ = "STOP_MARKET"
		}
		resp, err := a.client.PlaceOrder(ctx, connectors.BinanceOrderParams{
			Symbol:        symbol.ToBinance(parent.Symbol),
			Side:          string(parent.Side.Opposite()),
			Type:          typ,
			Quantity:      formatByIncrement(parent.Quantity, asset.StepSize),
			StopPrice:     formatByIncrement(trigger, asset.TickSize),
			ReduceOnly:    true,
			ClientOrderID: "pg-" + uuid.NewString(),
		})
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(resp.OrderID, 10), nil
	}
}

// CancelOrder treats venue rejections as an expected race: an unknown
// or already-final order comes back as a FAILED result with the venue
// reason, not an error.
func (a *BinanceAdapter) CancelOrder(ctx context.Context, orderID, canonical string) (*model.CancelResult, error) {
	resp, err := a.client.CancelOrder(ctx, symbol.ToBinance(canonical), orderID)
	if err != nil {
		var rej *model.ExchangeRejectionError
		if errors.As(err, &rej) {
			return &model.CancelResult{
				OrderID: orderID,
				Symbol:  canonical,
				Status:  model.OrderStatusFailed,
				Reason:  rej.Message,
			}, nil
		}
		return nil, err
	}
	return &model.CancelResult{
		OrderID: strconv.FormatInt(resp.OrderID, 10),
		Symbol:  canonical,
		Status:  model.OrderStatusCanceled,
	}, nil
}

// CancelAllOrders uses the venue's bulk endpoint, which acknowledges
// without a count, so CountKnown is false. With no symbol the open
// orders are listed first and the bulk cancel fans out per symbol,
// collecting every outcome.
func (a *BinanceAdapter) CancelAllOrders(ctx context.Context, canonical string) (*model.CancelAllResult, error) {
	native := ""
	if canonical != "" {
		native = symbol.ToBinance(canonical)
	}

	open, err := a.client.GetOpenOrders(ctx, native)
	if err != nil {
		return nil, err
	}

	result := &model.CancelAllResult{
		Symbol:     canonical,
		Requested:  len(open),
		CountKnown: len(open) == 0,
	}
	if len(open) == 0 {
		return result, nil
	}

	targets := make(map[string]struct{})
	for i := range open {
		targets[open[i].Symbol] = struct{}{}
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures []error
	)
	for target := range targets {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			if err := a.client.CancelAllOrders(ctx, sym); err != nil {
				logger.WithError(err).WithField("symbol", sym).Error("Bulk cancel failed")
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
			}
		}(target)
	}
	wg.Wait()

	if len(failures) == len(targets) {
		return nil, failures[0]
	}
	return result, nil
}

// -----------------------------
// OPTIONAL CAPABILITIES
// -----------------------------

func (a *BinanceAdapter) SetLeverage(ctx context.Context, canonical string, leverage int) error {
	if leverage <= 0 {
		return &model.ValidationError{Field: "leverage", Reason: "must be positive"}
	}
	return a.client.SetLeverage(ctx, symbol.ToBinance(canonical), leverage)
}

func (a *BinanceAdapter) SetMarginMode(ctx context.Context, canonical, mode string) error {
	if mode != "ISOLATED" && mode != "CROSSED" {
		return &model.ValidationError{Field: "mode", Reason: "must be ISOLATED or CROSSED"}
	}
	return a.client.SetMarginType(ctx, symbol.ToBinance(canonical), mode)
}

// GetMarginMode reports the mode configured for the symbol, ISOLATED
// or CROSSED. The position risk endpoint carries marginType even when
// the position is flat.
func (a *BinanceAdapter) GetMarginMode(ctx context.Context, canonical string) (string, error) {
	risks, err := a.client.GetPositionRisk(ctx, symbol.ToBinance(canonical))
	if err != nil {
		return "", err
	}
	if len(risks) == 0 {
		return "", &model.ValidationError{Field: "symbol", Reason: "no margin data for " + canonical}
	}
	if strings.EqualFold(risks[0].MarginType, "isolated") {
		return "ISOLATED", nil
	}
	return "CROSSED", nil
}

// ClosePosition flattens the live position with a reduce-only market
// order sized to the full position.
func (a *BinanceAdapter) ClosePosition(ctx context.Context, canonical string) (*model.OrderResult, error) {
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
		Symbol:     canonical,
		Side:       side,
		Type:       model.OrderTypeMarket,
		Quantity:   pos.Size.Abs(),
		ReduceOnly: true,
	})
}

// SetPositionTPSL attaches position-level protective triggers using
// close-position orders, which track the whole position instead of a
// fixed quantity.
func (a *BinanceAdapter) SetPositionTPSL(ctx context.Context, canonical string, takeProfit, stopLoss *decimal.Decimal) error {
	if takeProfit == nil && stopLoss == nil {
		return &model.ValidationError{Field: "take_profit", Reason: "at least one of take_profit or stop_loss is required"}
	}

	positions, err := a.GetPositions(ctx, canonical)
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return &model.ValidationError{Field: "symbol", Reason: "no open position for " + canonical}
	}

	asset, err := a.assetFor(ctx, canonical)
	if err != nil {
		return err
	}

	pos := positions[0]
	exitSide := model.SideSell
	if pos.IsShort() {
		exitSide = model.SideBuy
	}

	place := func(typ string, trigger decimal.Decimal) error {
		_, err := a.client.PlaceOrder(ctx, connectors.BinanceOrderParams{
			Symbol:        symbol.ToBinance(canonical),
			Side:          string(exitSide),
			Type:          typ,
			StopPrice:     formatByIncrement(trigger, asset.TickSize),
			ClosePosition: true,
			ClientOrderID: "pg-" + uuid.NewString(),
		})
		return err
	}

	if takeProfit != nil {
		if err := place("TAKE_PROFIT_MARKET", *takeProfit); err != nil {
			return err
		}
	}
	if stopLoss != nil {
		if err := place("STOP_MARKET", *stopLoss); err != nil {
			return err
		}
	}
	return nil
}

func (a *BinanceAdapter) UpdatePositionMargin(ctx context.Context, canonical string, amount decimal.Decimal, add bool) error {
	if !amount.IsPositive() {
		return &model.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	typ := 2
	if add {
		typ = 1
	}
	return a.client.UpdatePositionMargin(ctx, symbol.ToBinance(canonical), amount.String(), typ)
}
