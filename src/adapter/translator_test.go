package adapter

// Test index:
// 1. TestBinanceTranslateTable covers the canonical-to-binance order mapping.
// 2. TestBinanceTranslateRejectsOCO ensures OCO never reaches the wire shape.
// 3. TestAevoTranslateMarketSynthesis checks market orders become aggressive
//    IOC limits at the configured offset from mark.
// 4. TestAevoTranslateFOKSubstitution checks the IOC substitution and warning.
// 5. TestAevoTranslateTriggers covers the conditional trigger object shapes.
// 6. TestAevoTranslateUnsupportedTypes covers trailing stops and OCO.
// 7. TestQuantizeRequest covers step flooring, minimum quantity rejection and
//    the significant-figure cap.
// 8. TestTranslateStopLimitLeg checks the dedicated leg price field on both
//    venues.
// 9. TestValidateRejectsMarketWithPrice and TestValidateRejectsStrayStopLimitPrice
//    cover field combinations that must fail validation.

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"perpgate/src/model"
)

func dec(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return &d
}

func testAsset() *model.Asset {
	return &model.Asset{
		Symbol:     "SOL",
		BaseAsset:  "SOL",
		QuoteAsset: "USDT",
		MinQty:     decimal.RequireFromString("0.1"),
		TickSize:   decimal.RequireFromString("0.01"),
		StepSize:   decimal.RequireFromString("0.1"),
	}
}

func TestBinanceTranslateTable(t *testing.T) {
	asset := testAsset()
	qty := decimal.RequireFromString("1.5")

	cases := []struct {
		name    string
		req     model.OrderRequest
		expType string
		expTIF  string
		expCb   string
		expStop string
		expPx   string
	}{
		{
			name:    "market",
			req:     model.OrderRequest{Symbol: "SOL", Side: model.SideBuy, Type: model.OrderTypeMarket, Quantity: qty},
			expType: "MARKET",
		},
		{
			name:    "limit gtc",
			req:     model.OrderRequest{Symbol: "SOL", Side: model.SideBuy, Type: model.OrderTypeLimit, Quantity: qty, Price: dec(t, "95")},
			expType: "LIMIT",
			expTIF:  "GTC",
			expPx:   "95.00",
		},
		{
			name: "limit post only",
			req: model.OrderRequest{Symbol: "SOL", Side: model.SideSell, Type: model.OrderTypeLimit, Quantity: qty,
				Price: dec(t, "101.5"), PostOnly: true},
			expType: "LIMIT",
			expTIF:  "GTX",
			expPx:   "101.50",
		},
		{
			name: "stop limit",
			req: model.OrderRequest{Symbol: "SOL", Side: model.SideSell, Type: model.OrderTypeStopLimit, Quantity: qty,
				Price: dec(t, "89.5"), TriggerPrice: dec(t, "90")},
			expType: "STOP",
			expTIF:  "GTC",
			expPx:   "89.50",
			expStop: "90.00",
		},
		{
			name: "stop market",
			req: model.OrderRequest{Symbol: "SOL", Side: model.SideSell, Type: model.OrderTypeStopMarket, Quantity: qty,
				TriggerPrice: dec(t, "90")},
			expType: "STOP_MARKET",
			expStop: "90.00",
		},
		{
			name: "take profit limit",
			req: model.OrderRequest{Symbol: "SOL", Side: model.SideSell, Type: model.OrderTypeTakeProfitLimit, Quantity: qty,
				Price: dec(t, "110"), TriggerPrice: dec(t, "109.5")},
			expType: "TAKE_PROFIT",
			expTIF:  "GTC",
			expPx:   "110.00",
			expStop: "109.50",
		},
		{
			name: "take profit market",
			req: model.OrderRequest{Symbol: "SOL", Side: model.SideSell, Type: model.OrderTypeTakeProfitMarket, Quantity: qty,
				TriggerPrice: dec(t, "110")},
			expType: "TAKE_PROFIT_MARKET",
			expStop: "110.00",
		},
		{
			name: "trailing stop",
			req: model.OrderRequest{Symbol: "SOL", Side: model.SideSell, Type: model.OrderTypeTrailingStopMarket, Quantity: qty,
				TrailingDelta: dec(t, "1.5")},
			expType: "TRAILING_STOP_MARKET",
			expCb:   "1.5",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params, warnings, err := binanceTranslate(&tc.req, asset)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(warnings) != 0 {
				t.Fatalf("unexpected warnings: %v", warnings)
			}
			if params.Symbol != "SOLUSDT" {
				t.Fatalf("expected native symbol SOLUSDT, got %s", params.Symbol)
			}
			if params.Type != tc.expType {
				t.Fatalf("expected type %s, got %s", tc.expType, params.Type)
			}
			if params.TimeInForce != tc.expTIF {
				t.Fatalf("expected tif %q, got %q", tc.expTIF, params.TimeInForce)
			}
			if params.Price != tc.expPx {
				t.Fatalf("expected price %q, got %q", tc.expPx, params.Price)
			}
			if params.StopPrice != tc.expStop {
				t.Fatalf("expected stop price %q, got %q", tc.expStop, params.StopPrice)
			}
			if params.CallbackRate != tc.expCb {
				t.Fatalf("expected callback rate %q, got %q", tc.expCb, params.CallbackRate)
			}
			if params.Quantity != "1.5" {
				t.Fatalf("expected quantity 1.5, got %s", params.Quantity)
			}
		})
	}
}

func TestBinanceTranslateRejectsOCO(t *testing.T) {
	req := model.OrderRequest{Symbol: "SOL", Side: model.SideBuy, Type: model.OrderTypeOCO,
		Quantity: decimal.RequireFromString("1")}

	_, _, err := binanceTranslate(&req, testAsset())
	var unsup *model.UnsupportedFeatureError
	if !errors.As(err, &unsup) {
		t.Fatalf("expected UnsupportedFeatureError, got %v", err)
	}
}

func TestAevoTranslateMarketSynthesis(t *testing.T) {
	asset := testAsset()
	mark := decimal.RequireFromString("100")
	offset := decimal.RequireFromString("5")

	sell := model.OrderRequest{Symbol: "SOL", Side: model.SideSell, Type: model.OrderTypeMarket,
		Quantity: decimal.RequireFromString("1.5")}
	payload, warnings, err := aevoTranslate(&sell, asset, mark, offset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.LimitPrice != "95.00" {
		t.Fatalf("expected sell synthesis at 95.00, got %s", payload.LimitPrice)
	}
	if payload.TimeInForce != "IOC" {
		t.Fatalf("expected IOC, got %s", payload.TimeInForce)
	}
	if payload.IsBuy {
		t.Fatalf("expected a sell payload")
	}
	if len(warnings) == 0 {
		t.Fatalf("expected a synthesis warning")
	}

	buy := sell
	buy.Side = model.SideBuy
	payload, _, err = aevoTranslate(&buy, asset, mark, offset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.LimitPrice != "105.00" {
		t.Fatalf("expected buy synthesis at 105.00, got %s", payload.LimitPrice)
	}
}

func TestAevoTranslateFOKSubstitution(t *testing.T) {
	req := model.OrderRequest{Symbol: "SOL", Side: model.SideBuy, Type: model.OrderTypeLimit,
		Quantity: decimal.RequireFromString("1"), Price: dec(t, "95"), TimeInForce: model.TIFFillOrKill}

	payload, warnings, err := aevoTranslate(&req, testAsset(), decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.TimeInForce != "IOC" {
		t.Fatalf("expected FOK to be substituted with IOC, got %s", payload.TimeInForce)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one substitution warning, got %v", warnings)
	}
}

func TestAevoTranslateTriggers(t *testing.T) {
	asset := testAsset()
	qty := decimal.RequireFromString("1")

	stopMarket := model.OrderRequest{Symbol: "SOL", Side: model.SideSell, Type: model.OrderTypeStopMarket,
		Quantity: qty, TriggerPrice: dec(t, "90")}
	payload, _, err := aevoTranslate(&stopMarket, asset, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Trigger == nil || payload.Trigger.Type != "stop" || !payload.Trigger.IsMarket {
		t.Fatalf("unexpected trigger shape: %+v", payload.Trigger)
	}
	if payload.Trigger.TriggerPrice != "90.00" {
		t.Fatalf("expected trigger at 90.00, got %s", payload.Trigger.TriggerPrice)
	}

	tpLimit := model.OrderRequest{Symbol: "SOL", Side: model.SideSell, Type: model.OrderTypeTakeProfitLimit,
		Quantity: qty, Price: dec(t, "110"), TriggerPrice: dec(t, "109.5")}
	payload, _, err = aevoTranslate(&tpLimit, asset, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Trigger == nil || payload.Trigger.Type != "take_profit" || payload.Trigger.IsMarket {
		t.Fatalf("unexpected trigger shape: %+v", payload.Trigger)
	}
	if payload.LimitPrice != "110.00" {
		t.Fatalf("expected limit price 110.00, got %s", payload.LimitPrice)
	}
}

func TestAevoTranslateUnsupportedTypes(t *testing.T) {
	for _, typ := range []model.OrderType{model.OrderTypeTrailingStopMarket, model.OrderTypeOCO} {
		req := model.OrderRequest{Symbol: "SOL", Side: model.SideSell, Type: typ,
			Quantity: decimal.RequireFromString("1"), TrailingDelta: dec(t, "1")}

		_, _, err := aevoTranslate(&req, testAsset(), decimal.Zero, decimal.Zero)
		var unsup *model.UnsupportedFeatureError
		if !errors.As(err, &unsup) {
			t.Fatalf("expected UnsupportedFeatureError for %s, got %v", typ, err)
		}
		if unsup.Exchange != model.ExchangeAevo {
			t.Fatalf("expected aevo in error, got %s", unsup.Exchange)
		}
	}
}

func TestQuantizeRequest(t *testing.T) {
	asset := testAsset()

	t.Run("floors quantity and rounds prices", func(t *testing.T) {
		req := model.OrderRequest{Symbol: "SOL", Side: model.SideBuy, Type: model.OrderTypeLimit,
			Quantity: decimal.RequireFromString("1.2345"), Price: dec(t, "94.996")}

		q, err := quantizeRequest(&req, asset, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if q.Quantity.String() != "1.2" {
			t.Fatalf("expected quantity floored to 1.2, got %s", q.Quantity)
		}
		if !q.Price.Equal(decimal.RequireFromString("95")) {
			t.Fatalf("expected price rounded to 95, got %s", q.Price)
		}
		if req.Quantity.String() != "1.2345" {
			t.Fatalf("caller request was mutated")
		}
	})

	t.Run("rejects quantity below minimum", func(t *testing.T) {
		req := model.OrderRequest{Symbol: "SOL", Side: model.SideBuy, Type: model.OrderTypeMarket,
			Quantity: decimal.RequireFromString("0.05")}

		_, err := quantizeRequest(&req, asset, 0)
		var v *model.ValidationError
		if !errors.As(err, &v) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("caps significant figures after tick rounding", func(t *testing.T) {
		req := model.OrderRequest{Symbol: "SOL", Side: model.SideBuy, Type: model.OrderTypeLimit,
			Quantity: decimal.RequireFromString("1"), Price: dec(t, "123456.789")}

		q, err := quantizeRequest(&req, asset, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !q.Price.Equal(decimal.RequireFromString("123460")) {
			t.Fatalf("expected 5 significant figures, got %s", q.Price)
		}
	})
}

// TestTranslateStopLimitLeg verifies the dedicated leg price reaches the
// wire on both venues and wins over the plain price when both are set.
func TestTranslateStopLimitLeg(t *testing.T) {
	asset := testAsset()
	req := model.OrderRequest{
		Symbol:         "SOL",
		Side:           model.SideSell,
		Type:           model.OrderTypeStopLimit,
		Quantity:       decimal.RequireFromString("1.5"),
		Price:          dec(t, "95"),
		TriggerPrice:   dec(t, "94"),
		StopLimitPrice: dec(t, "93.5"),
	}
	if err := validateOrderRequest(&req); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}

	params, _, err := binanceTranslate(&req, asset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Price != "93.50" {
		t.Fatalf("expected leg price 93.50 on the wire, got %s", params.Price)
	}
	if params.StopPrice != "94.00" {
		t.Fatalf("expected stop price 94.00, got %s", params.StopPrice)
	}

	payload, _, err := aevoTranslate(&req, asset, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.LimitPrice != "93.50" {
		t.Fatalf("expected leg price 93.50 on the wire, got %s", payload.LimitPrice)
	}
	if payload.Trigger == nil || payload.Trigger.TriggerPrice != "94.00" {
		t.Fatalf("unexpected trigger: %+v", payload.Trigger)
	}

	tp := req
	tp.Type = model.OrderTypeTakeProfitLimit
	tp.Price = nil
	params, _, err = binanceTranslate(&tp, asset)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Price != "93.50" {
		t.Fatalf("expected leg price without a plain price, got %s", params.Price)
	}
}

// TestValidateRejectsMarketWithPrice ensures a market request carrying an
// explicit price fails validation instead of silently dropping the price.
func TestValidateRejectsMarketWithPrice(t *testing.T) {
	req := model.OrderRequest{
		Symbol:   "SOL",
		Side:     model.SideBuy,
		Type:     model.OrderTypeMarket,
		Quantity: decimal.RequireFromString("1"),
		Price:    dec(t, "100"),
	}

	err := validateOrderRequest(&req)
	var vErr *model.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "price" {
		t.Fatalf("expected price validation error, got %v", err)
	}

	req.Price = nil
	if err := validateOrderRequest(&req); err != nil {
		t.Fatalf("unexpected error without a price: %v", err)
	}
}

// TestValidateRejectsStrayStopLimitPrice ensures the leg price is refused
// on order types that have no stop-limit leg.
func TestValidateRejectsStrayStopLimitPrice(t *testing.T) {
	req := model.OrderRequest{
		Symbol:         "SOL",
		Side:           model.SideBuy,
		Type:           model.OrderTypeLimit,
		Quantity:       decimal.RequireFromString("1"),
		Price:          dec(t, "100"),
		StopLimitPrice: dec(t, "99"),
	}

	err := validateOrderRequest(&req)
	var vErr *model.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "stop_limit_price" {
		t.Fatalf("expected stop_limit_price validation error, got %v", err)
	}
}
