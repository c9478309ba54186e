// REST client for Binance USDT-M futures. Signed endpoints carry an
// HMAC-SHA256 signature over the canonicalized query string plus a
// timestamp; public market-data endpoints work without credentials.
package connectors

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"perpgate/src/model"
)

type BinanceClient struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	recvWindow int64
	http       *resty.Client
	limiter    *rate.Limiter
}

// NewBinanceClient builds a client. Empty credentials yield a public
// client: market-data calls work, signed calls fail with an AuthError.
func NewBinanceClient(apiKey, apiSecret string, cfg Config) *BinanceClient {
	baseURL := cfg.BinanceBaseURL
	if baseURL == "" {
		baseURL = "https://fapi.binance.com"
		logger.WithField("baseURL", baseURL).Warn("No Binance base URL provided, using default")
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.HTTPTimeout)

	rps := cfg.BinanceRateLimit
	if rps <= 0 {
		rps = 10
	}
	burst := int(rps)
	if burst < 1 {
		// fractional rates truncate to a zero burst, which rejects every Wait
		burst = 1
	}

	return &BinanceClient{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		baseURL:    baseURL,
		recvWindow: cfg.BinanceRecvWindow,
		http:       httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Authenticated reports whether the client was built with credentials.
func (c *BinanceClient) Authenticated() bool {
	return c.apiKey != "" && c.apiSecret != ""
}

func signQuery(query, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

// doPublic performs an unsigned request and decodes the body into out.
func (c *BinanceClient) doPublic(ctx context.Context, method, path string, params url.Values, out interface{}) error {
	endpoint := path
	if len(params) > 0 {
		endpoint = path + "?" + params.Encode()
	}
	return c.execute(ctx, method, endpoint, "", out)
}

// doSigned canonicalizes params, appends timestamp and recvWindow,
// signs the resulting query string and performs the request.
func (c *BinanceClient) doSigned(ctx context.Context, method, path string, params url.Values, out interface{}) error {
	if !c.Authenticated() {
		return &model.AuthError{Exchange: model.ExchangeBinance, Reason: "client constructed without credentials"}
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	if c.recvWindow > 0 {
		params.Set("recvWindow", strconv.FormatInt(c.recvWindow, 10))
	}

	query := params.Encode()
	endpoint := path + "?" + query + "&signature=" + signQuery(query, c.apiSecret)

	return c.execute(ctx, method, endpoint, c.apiKey, out)
}

type binanceAPIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (c *BinanceClient) execute(ctx context.Context, method, endpoint, apiKey string, out interface{}) error {
	op := method + " " + endpoint

	if err := c.limiter.Wait(ctx); err != nil {
		return &model.NetworkError{Exchange: model.ExchangeBinance, Op: op, Err: err}
	}

	req := c.http.R().SetContext(ctx)
	if apiKey != "" {
		req.SetHeader("X-MBX-APIKEY", apiKey)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		logger.WithError(err).WithField("op", op).Error("Binance HTTP request failed")
		return &model.NetworkError{Exchange: model.ExchangeBinance, Op: op, Err: err}
	}

	raw := resp.Body()

	logger.WithFields(logger.Fields{
		"op":     op,
		"status": resp.StatusCode(),
	}).Debug("Binance HTTP response")

	if resp.IsError() {
		var apiErr binanceAPIError
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr != nil || apiErr.Code == 0 {
			return &model.NetworkError{
				Exchange: model.ExchangeBinance,
				Op:       op,
				Err:      fmt.Errorf("http status %d: %s", resp.StatusCode(), string(raw)),
			}
		}

		logger.WithFields(logger.Fields{
			"op":   op,
			"code": apiErr.Code,
			"name": BinanceErrorName(apiErr.Code),
			"msg":  apiErr.Msg,
		}).Error("Binance API returned error")

		if binanceAuthCode(apiErr.Code) {
			return &model.AuthError{Exchange: model.ExchangeBinance, Reason: apiErr.Msg}
		}
		return &model.ExchangeRejectionError{
			Exchange: model.ExchangeBinance,
			Code:     apiErr.Code,
			Message:  apiErr.Msg,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.WithError(err).WithField("op", op).Error("Failed to unmarshal Binance response")
		return &model.NetworkError{
			Exchange: model.ExchangeBinance,
			Op:       op,
			Err:      fmt.Errorf("unmarshal response: %w", err),
		}
	}
	return nil
}

// -----------------------------
// EXCHANGE METADATA
// -----------------------------

type BinanceFilter struct {
	FilterType string `json:"filterType"`
	TickSize   string `json:"tickSize,omitempty"`
	StepSize   string `json:"stepSize,omitempty"`
	MinQty     string `json:"minQty,omitempty"`
}

type BinanceSymbolInfo struct {
	Symbol     string          `json:"symbol"`
	BaseAsset  string          `json:"baseAsset"`
	QuoteAsset string          `json:"quoteAsset"`
	Status     string          `json:"status"`
	Filters    []BinanceFilter `json:"filters"`
}

type BinanceExchangeInfo struct {
	Symbols []BinanceSymbolInfo `json:"symbols"`
}

func (c *BinanceClient) GetExchangeInfo(ctx context.Context) (*BinanceExchangeInfo, error) {
	var info BinanceExchangeInfo
	if err := c.doPublic(ctx, "GET", "/fapi/v1/exchangeInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// -----------------------------
// MARKET DATA
// -----------------------------

type BinancePremiumIndex struct {
	Symbol    string `json:"symbol"`
	MarkPrice string `json:"markPrice"`
	Time      int64  `json:"time"`
}

func (c *BinanceClient) GetPremiumIndex(ctx context.Context, symbol string) (*BinancePremiumIndex, error) {
	params := url.Values{"symbol": {symbol}}
	var idx BinancePremiumIndex
	if err := c.doPublic(ctx, "GET", "/fapi/v1/premiumIndex", params, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

type BinanceTicker24h struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	Volume    string `json:"volume"`
	CloseTime int64  `json:"closeTime"`
}

func (c *BinanceClient) GetTicker24h(ctx context.Context, symbol string) (*BinanceTicker24h, error) {
	params := url.Values{"symbol": {symbol}}
	var tk BinanceTicker24h
	if err := c.doPublic(ctx, "GET", "/fapi/v1/ticker/24hr", params, &tk); err != nil {
		return nil, err
	}
	return &tk, nil
}

type BinanceBookTicker struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	AskPrice string `json:"askPrice"`
}

func (c *BinanceClient) GetBookTicker(ctx context.Context, symbol string) (*BinanceBookTicker, error) {
	params := url.Values{"symbol": {symbol}}
	var tk BinanceBookTicker
	if err := c.doPublic(ctx, "GET", "/fapi/v1/ticker/bookTicker", params, &tk); err != nil {
		return nil, err
	}
	return &tk, nil
}

type BinanceDepth struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
	Time int64      `json:"E"`
}

func (c *BinanceClient) GetDepth(ctx context.Context, symbol string, limit int) (*BinanceDepth, error) {
	params := url.Values{"symbol": {symbol}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var depth BinanceDepth
	if err := c.doPublic(ctx, "GET", "/fapi/v1/depth", params, &depth); err != nil {
		return nil, err
	}
	return &depth, nil
}

// GetKlines returns raw kline rows:
// [openTime, open, high, low, close, volume, closeTime, ...]
func (c *BinanceClient) GetKlines(ctx context.Context, symbol, interval string, limit int) ([][]json.RawMessage, error) {
	params := url.Values{"symbol": {symbol}, "interval": {interval}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var rows [][]json.RawMessage
	if err := c.doPublic(ctx, "GET", "/fapi/v1/klines", params, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// -----------------------------
// ACCOUNT & POSITIONS
// -----------------------------

type BinanceAccountAsset struct {
	Asset            string `json:"asset"`
	WalletBalance    string `json:"walletBalance"`
	AvailableBalance string `json:"availableBalance"`
}

type BinanceAccount struct {
	Assets []BinanceAccountAsset `json:"assets"`
}

func (c *BinanceClient) GetAccount(ctx context.Context) (*BinanceAccount, error) {
	var acc BinanceAccount
	if err := c.doSigned(ctx, "GET", "/fapi/v2/account", nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

type BinancePositionRisk struct {
	Symbol           string `json:"symbol"`
	PositionAmt      string `json:"positionAmt"`
	EntryPrice       string `json:"entryPrice"`
	MarkPrice        string `json:"markPrice"`
	UnRealizedProfit string `json:"unRealizedProfit"`
	LiquidationPrice string `json:"liquidationPrice"`
	Leverage         string `json:"leverage"`
	MarginType       string `json:"marginType"`
}

func (c *BinanceClient) GetPositionRisk(ctx context.Context, symbol string) ([]BinancePositionRisk, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	var positions []BinancePositionRisk
	if err := c.doSigned(ctx, "GET", "/fapi/v2/positionRisk", params, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// -----------------------------
// TRADING
// -----------------------------

// BinanceOrderParams is the translated, already-quantized payload for
// POST /fapi/v1/order. String numerics go on the wire exactly as the
// quantizer produced them.
type BinanceOrderParams struct {
	Symbol        string
	Side          string // BUY / SELL
	Type          string // MARKET, LIMIT, STOP, STOP_MARKET, TAKE_PROFIT, TAKE_PROFIT_MARKET, TRAILING_STOP_MARKET
	TimeInForce   string // GTC / IOC / FOK / GTX
	Quantity      string
	Price         string
	StopPrice     string
	CallbackRate  string // trailing stop, percent
	ReduceOnly    bool
	ClosePosition bool
	ClientOrderID string
}

func (p BinanceOrderParams) values() url.Values {
	v := url.Values{}
	v.Set("symbol", p.Symbol)
	v.Set("side", p.Side)
	v.Set("type", p.Type)
	if p.TimeInForce != "" {
		v.Set("timeInForce", p.TimeInForce)
	}
	if p.Quantity != "" {
		v.Set("quantity", p.Quantity)
	}
	if p.Price != "" {
		v.Set("price", p.Price)
	}
	if p.StopPrice != "" {
		v.Set("stopPrice", p.StopPrice)
	}
	if p.CallbackRate != "" {
		v.Set("callbackRate", p.CallbackRate)
	}
	if p.ReduceOnly {
		v.Set("reduceOnly", "true")
	}
	if p.ClosePosition {
		v.Set("closePosition", "true")
	}
	if p.ClientOrderID != "" {
		v.Set("newClientOrderId", p.ClientOrderID)
	}
	return v
}

type BinanceOrderResponse struct {
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Symbol        string `json:"symbol"`
	Status        string `json:"status"`
	Price         string `json:"price"`
	AvgPrice      string `json:"avgPrice"`
	OrigQty       string `json:"origQty"`
	ExecutedQty   string `json:"executedQty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"timeInForce"`
	ReduceOnly    bool   `json:"reduceOnly"`
	StopPrice     string `json:"stopPrice"`
	UpdateTime    int64  `json:"updateTime"`
	Time          int64  `json:"time"`
}

func (c *BinanceClient) PlaceOrder(ctx context.Context, params BinanceOrderParams) (*BinanceOrderResponse, error) {
	logger.WithFields(logger.Fields{
		"symbol": params.Symbol,
		"side":   params.Side,
		"type":   params.Type,
		"qty":    params.Quantity,
	}).Info("Placing Binance futures order")

	var resp BinanceOrderResponse
	if err := c.doSigned(ctx, "POST", "/fapi/v1/order", params.values(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *BinanceClient) CancelOrder(ctx context.Context, symbol, orderID string) (*BinanceOrderResponse, error) {
	params := url.Values{"symbol": {symbol}, "orderId": {orderID}}
	var resp BinanceOrderResponse
	if err := c.doSigned(ctx, "DELETE", "/fapi/v1/order", params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CancelAllOrders hits the bulk-cancel endpoint. Binance acknowledges
// with a bare code/msg pair and does not say how many orders died.
func (c *BinanceClient) CancelAllOrders(ctx context.Context, symbol string) error {
	params := url.Values{"symbol": {symbol}}
	return c.doSigned(ctx, "DELETE", "/fapi/v1/allOpenOrders", params, nil)
}

func (c *BinanceClient) GetOpenOrders(ctx context.Context, symbol string) ([]BinanceOrderResponse, error) {
	params := url.Values{}
	if symbol != "" {
		params.Set("symbol", symbol)
	}
	var orders []BinanceOrderResponse
	if err := c.doSigned(ctx, "GET", "/fapi/v1/openOrders", params, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *BinanceClient) GetAllOrders(ctx context.Context, symbol string, limit int) ([]BinanceOrderResponse, error) {
	params := url.Values{"symbol": {symbol}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var orders []BinanceOrderResponse
	if err := c.doSigned(ctx, "GET", "/fapi/v1/allOrders", params, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

type BinanceUserTrade struct {
	OrderID         int64  `json:"orderId"`
	Symbol          string `json:"symbol"`
	Side            string `json:"side"`
	Price           string `json:"price"`
	Qty             string `json:"qty"`
	Commission      string `json:"commission"`
	CommissionAsset string `json:"commissionAsset"`
	Time            int64  `json:"time"`
}

func (c *BinanceClient) GetUserTrades(ctx context.Context, symbol string, limit int) ([]BinanceUserTrade, error) {
	params := url.Values{"symbol": {symbol}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var trades []BinanceUserTrade
	if err := c.doSigned(ctx, "GET", "/fapi/v1/userTrades", params, &trades); err != nil {
		return nil, err
	}
	return trades, nil
}

// -----------------------------
// LEVERAGE & MARGIN
// -----------------------------

func (c *BinanceClient) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	params := url.Values{
		"symbol":   {symbol},
		"leverage": {strconv.Itoa(leverage)},
	}
	logger.WithFields(logger.Fields{
		"symbol":   symbol,
		"leverage": leverage,
	}).Info("Setting Binance futures leverage")

	return c.doSigned(ctx, "POST", "/fapi/v1/leverage", params, nil)
}

func (c *BinanceClient) SetMarginType(ctx context.Context, symbol, marginType string) error {
	params := url.Values{
		"symbol":     {symbol},
		"marginType": {marginType}, // ISOLATED / CROSSED
	}
	return c.doSigned(ctx, "POST", "/fapi/v1/marginType", params, nil)
}

// UpdatePositionMargin adds (typ=1) or removes (typ=2) isolated margin.
func (c *BinanceClient) UpdatePositionMargin(ctx context.Context, symbol, amount string, typ int) error {
	params := url.Values{
		"symbol": {symbol},
		"amount": {amount},
		"type":   {strconv.Itoa(typ)},
	}
	return c.doSigned(ctx, "POST", "/fapi/v1/positionMargin", params, nil)
}
