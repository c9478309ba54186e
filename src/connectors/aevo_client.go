// REST client for the aevo perpetuals DEX. Write operations carry an
// EIP-712 style typed-message signature produced with the account's
// private key; the key never leaves this client. Reads on private
// endpoints use a signed header triple, public market data is unsigned.
package connectors

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/sha3"
	"golang.org/x/time/rate"

	"perpgate/src/model"
)

// PriceSigFigs is the significant-figure cap aevo imposes on prices,
// applied by the adapter after tick rounding.
const PriceSigFigs = 5

type AevoClient struct {
	address string
	privKey *secp256k1.PrivateKey
	baseURL string
	http    *resty.Client
	limiter *rate.Limiter
}

// NewAevoClient builds a client from a wallet address and a hex
// private key. Empty credentials yield a public, market-data-only
// client. A malformed private key is rejected up front so it cannot
// surface mid-trade.
func NewAevoClient(address, privateKeyHex string, cfg Config) (*AevoClient, error) {
	baseURL := cfg.AevoBaseURL
	if baseURL == "" {
		baseURL = "https://api.aevo.xyz"
		logger.WithField("baseURL", baseURL).Warn("No aevo base URL provided, using default")
	}

	var privKey *secp256k1.PrivateKey
	if privateKeyHex != "" {
		raw, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
		if err != nil {
			return nil, &model.AuthError{Exchange: model.ExchangeAevo, Reason: "private key is not valid hex"}
		}
		if len(raw) != 32 {
			return nil, &model.AuthError{Exchange: model.ExchangeAevo, Reason: "private key must be 32 bytes"}
		}
		privKey = secp256k1.PrivKeyFromBytes(raw)
	}

	rps := cfg.AevoRateLimit
	if rps <= 0 {
		rps = 10
	}
	burst := int(rps)
	if burst < 1 {
		// fractional rates truncate to a zero burst, which rejects every Wait
		burst = 1
	}

	return &AevoClient{
		address: strings.ToLower(strings.TrimSpace(address)),
		privKey: privKey,
		baseURL: baseURL,
		http:    resty.New().SetBaseURL(baseURL).SetTimeout(cfg.HTTPTimeout),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}, nil
}

func (c *AevoClient) Authenticated() bool {
	return c.privKey != nil && c.address != ""
}

// -----------------------------
// SIGNING
// -----------------------------

func keccak256(chunks ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, chunk := range chunks {
		h.Write(chunk)
	}
	return h.Sum(nil)
}

var aevoDomainSeparator = keccak256(
	[]byte("EIP712Domain(string name,string version,uint256 chainId)"),
	[]byte("aevo"),
	[]byte("1"),
	[]byte{1},
)

const aevoOrderTypeDef = "Order(string instrument,bool isBuy,string amount,string limitPrice,string salt,string timestamp)"

// signOrderDigest hashes the typed order message and signs it with the
// wallet key, returning a 0x-prefixed compact signature.
func (c *AevoClient) signOrderDigest(instrument string, isBuy bool, amount, limitPrice, salt, timestamp string) string {
	side := []byte{0}
	if isBuy {
		side = []byte{1}
	}
	structHash := keccak256(
		[]byte(aevoOrderTypeDef),
		[]byte(instrument),
		side,
		[]byte(amount),
		[]byte(limitPrice),
		[]byte(salt),
		[]byte(timestamp),
	)
	digest := keccak256([]byte{0x19, 0x01}, aevoDomainSeparator, structHash)
	sig := secpecdsa.SignCompact(c.privKey, digest, false)
	return "0x" + hex.EncodeToString(sig)
}

// signReadDigest authenticates private reads: a signature over
// address, timestamp, method and path.
func (c *AevoClient) signReadDigest(timestamp, method, path string) string {
	digest := keccak256([]byte(c.address), []byte(timestamp), []byte(method), []byte(path))
	sig := secpecdsa.SignCompact(c.privKey, digest, false)
	return "0x" + hex.EncodeToString(sig)
}

// -----------------------------
// TRANSPORT
// -----------------------------

type aevoAPIError struct {
	Error string `json:"error"`
}

// do performs one request. signed selects the authenticated header
// triple for private endpoints.
func (c *AevoClient) do(ctx context.Context, method, path string, signed bool, body, out interface{}) error {
	op := method + " " + path

	if signed && !c.Authenticated() {
		return &model.AuthError{Exchange: model.ExchangeAevo, Reason: "client constructed without credentials"}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &model.NetworkError{Exchange: model.ExchangeAevo, Op: op, Err: err}
	}

	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if signed {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		req.SetHeader("X-AEVO-ADDRESS", c.address).
			SetHeader("X-AEVO-TIMESTAMP", timestamp).
			SetHeader("X-AEVO-SIGNATURE", c.signReadDigest(timestamp, method, path))
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		logger.WithError(err).WithField("op", op).Error("aevo HTTP request failed")
		return &model.NetworkError{Exchange: model.ExchangeAevo, Op: op, Err: err}
	}

	raw := resp.Body()

	logger.WithFields(logger.Fields{
		"op":     op,
		"status": resp.StatusCode(),
	}).Debug("aevo HTTP response")

	if resp.IsError() {
		var apiErr aevoAPIError
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr != nil || apiErr.Error == "" {
			return &model.NetworkError{
				Exchange: model.ExchangeAevo,
				Op:       op,
				Err:      fmt.Errorf("http status %d: %s", resp.StatusCode(), string(raw)),
			}
		}

		logger.WithFields(logger.Fields{
			"op":     op,
			"status": resp.StatusCode(),
			"error":  apiErr.Error,
		}).Error("aevo API returned error")

		if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
			return &model.AuthError{Exchange: model.ExchangeAevo, Reason: apiErr.Error}
		}
		return &model.ExchangeRejectionError{
			Exchange: model.ExchangeAevo,
			Code:     resp.StatusCode(),
			Message:  apiErr.Error,
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		logger.WithError(err).WithField("op", op).Error("Failed to unmarshal aevo response")
		return &model.NetworkError{
			Exchange: model.ExchangeAevo,
			Op:       op,
			Err:      fmt.Errorf("unmarshal response: %w", err),
		}
	}
	return nil
}

// -----------------------------
// MARKET DATA
// -----------------------------

type AevoMarket struct {
	InstrumentName  string `json:"instrument_name"`
	UnderlyingAsset string `json:"underlying_asset"`
	QuoteAsset      string `json:"quote_asset"`
	TickSize        string `json:"tick_size"`
	AmountStep      string `json:"amount_step"`
	MinAmount       string `json:"min_amount"`
	IsActive        bool   `json:"is_active"`
}

func (c *AevoClient) GetMarkets(ctx context.Context, instrument string) ([]AevoMarket, error) {
	path := "/markets"
	if instrument != "" {
		path += "?instrument_name=" + instrument
	}
	var markets []AevoMarket
	if err := c.do(ctx, "GET", path, false, nil, &markets); err != nil {
		return nil, err
	}
	return markets, nil
}

type AevoTicker struct {
	InstrumentName string `json:"instrument_name"`
	LastPrice      string `json:"last_price"`
	MarkPrice      string `json:"mark_price"`
	BestBid        string `json:"best_bid"`
	BestAsk        string `json:"best_ask"`
	Volume24h      string `json:"volume_24h"`
	Timestamp      int64  `json:"timestamp"`
}

func (c *AevoClient) GetTicker(ctx context.Context, instrument string) (*AevoTicker, error) {
	var tk AevoTicker
	if err := c.do(ctx, "GET", "/ticker?instrument_name="+instrument, false, nil, &tk); err != nil {
		return nil, err
	}
	return &tk, nil
}

type AevoOrderbook struct {
	InstrumentName string     `json:"instrument_name"`
	Bids           [][]string `json:"bids"`
	Asks           [][]string `json:"asks"`
	Timestamp      int64      `json:"timestamp"`
}

func (c *AevoClient) GetOrderbook(ctx context.Context, instrument string, depth int) (*AevoOrderbook, error) {
	path := "/orderbook?instrument_name=" + instrument
	if depth > 0 {
		path += "&depth=" + strconv.Itoa(depth)
	}
	var book AevoOrderbook
	if err := c.do(ctx, "GET", path, false, nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

type AevoCandle struct {
	Time   int64  `json:"time"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume string `json:"volume"`
}

func (c *AevoClient) GetKlines(ctx context.Context, instrument, resolution string, limit int) ([]AevoCandle, error) {
	path := "/klines?instrument_name=" + instrument + "&resolution=" + resolution
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	var candles []AevoCandle
	if err := c.do(ctx, "GET", path, false, nil, &candles); err != nil {
		return nil, err
	}
	return candles, nil
}

// -----------------------------
// ACCOUNT & POSITIONS
// -----------------------------

type AevoBalance struct {
	Asset     string `json:"asset"`
	Balance   string `json:"balance"`
	Available string `json:"available_balance"`
}

type AevoPosition struct {
	InstrumentName   string `json:"instrument_name"`
	Side             string `json:"side"` // buy / sell
	Amount           string `json:"amount"`
	AvgEntryPrice    string `json:"avg_entry_price"`
	MarkPrice        string `json:"mark_price"`
	UnrealizedPnl    string `json:"unrealized_pnl"`
	LiquidationPrice string `json:"liquidation_price"`
	Leverage         string `json:"leverage"`
}

type AevoAccount struct {
	Balances  []AevoBalance  `json:"balances"`
	Positions []AevoPosition `json:"positions"`
}

func (c *AevoClient) GetAccount(ctx context.Context) (*AevoAccount, error) {
	var acc AevoAccount
	if err := c.do(ctx, "GET", "/account", true, nil, &acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (c *AevoClient) GetPositions(ctx context.Context) ([]AevoPosition, error) {
	var out struct {
		Positions []AevoPosition `json:"positions"`
	}
	if err := c.do(ctx, "GET", "/positions", true, nil, &out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

// -----------------------------
// TRADING
// -----------------------------

// AevoTrigger describes a conditional order. IsMarket selects market
// execution once the trigger price is crossed; Type is "stop" or
// "take_profit".
type AevoTrigger struct {
	TriggerPrice string `json:"trigger_price"`
	IsMarket     bool   `json:"is_market"`
	Type         string `json:"type"`
}

// AevoOrderPayload is the translated, already-quantized order body.
// The venue only accepts limit orders; market semantics are always
// synthesized upstream as an aggressive IOC limit.
type AevoOrderPayload struct {
	Instrument  string       `json:"instrument"`
	IsBuy       bool         `json:"is_buy"`
	Amount      string       `json:"amount"`
	LimitPrice  string       `json:"limit_price"`
	TimeInForce string       `json:"time_in_force"` // GTC / IOC
	PostOnly    bool         `json:"post_only,omitempty"`
	ReduceOnly  bool         `json:"reduce_only,omitempty"`
	Trigger     *AevoTrigger `json:"trigger,omitempty"`
}

type aevoSignedOrder struct {
	AevoOrderPayload
	Maker     string `json:"maker"`
	Salt      string `json:"salt"`
	Timestamp string `json:"timestamp"`
	Signature string `json:"signature"`
}

type AevoOrderResponse struct {
	OrderID        string       `json:"order_id"`
	InstrumentName string       `json:"instrument_name"`
	Side           string       `json:"side"`
	OrderType      string       `json:"order_type"`
	OrderStatus    string       `json:"order_status"`
	Amount         string       `json:"amount"`
	FilledAmount   string       `json:"filled"`
	Price          string       `json:"price"`
	AvgPrice       string       `json:"avg_price"`
	Trigger        *AevoTrigger `json:"trigger,omitempty"`
	CreatedAt      int64        `json:"created_timestamp"`
}

func (c *AevoClient) PlaceOrder(ctx context.Context, payload AevoOrderPayload) (*AevoOrderResponse, error) {
	if !c.Authenticated() {
		return nil, &model.AuthError{Exchange: model.ExchangeAevo, Reason: "client constructed without credentials"}
	}

	signed := aevoSignedOrder{
		AevoOrderPayload: payload,
		Maker:            c.address,
		Salt:             strconv.FormatUint(uint64(uuid.New().ID()), 10),
		Timestamp:        strconv.FormatInt(time.Now().Unix(), 10),
	}
	signed.Signature = c.signOrderDigest(
		payload.Instrument,
		payload.IsBuy,
		payload.Amount,
		payload.LimitPrice,
		signed.Salt,
		signed.Timestamp,
	)

	logger.WithFields(logger.Fields{
		"instrument": payload.Instrument,
		"is_buy":     payload.IsBuy,
		"amount":     payload.Amount,
		"price":      payload.LimitPrice,
		"tif":        payload.TimeInForce,
	}).Info("Placing aevo order")

	var resp AevoOrderResponse
	if err := c.do(ctx, "POST", "/orders", true, signed, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *AevoClient) CancelOrder(ctx context.Context, orderID string) (*AevoOrderResponse, error) {
	var resp AevoOrderResponse
	if err := c.do(ctx, "DELETE", "/orders/"+orderID, true, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *AevoClient) GetOpenOrders(ctx context.Context, instrument string) ([]AevoOrderResponse, error) {
	path := "/orders"
	if instrument != "" {
		path += "?instrument_name=" + instrument
	}
	var orders []AevoOrderResponse
	if err := c.do(ctx, "GET", path, true, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *AevoClient) GetOrderHistory(ctx context.Context, instrument string, limit int) ([]AevoOrderResponse, error) {
	path := "/order-history"
	sep := "?"
	if instrument != "" {
		path += sep + "instrument_name=" + instrument
		sep = "&"
	}
	if limit > 0 {
		path += sep + "limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Orders []AevoOrderResponse `json:"order_history"`
	}
	if err := c.do(ctx, "GET", path, true, nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

type AevoFill struct {
	OrderID        string `json:"order_id"`
	InstrumentName string `json:"instrument_name"`
	Side           string `json:"side"`
	Price          string `json:"price"`
	Amount         string `json:"filled"`
	Fees           string `json:"fees"`
	FeeAsset       string `json:"fee_asset"`
	CreatedAt      int64  `json:"created_timestamp"`
}

func (c *AevoClient) GetFills(ctx context.Context, instrument string, limit int) ([]AevoFill, error) {
	path := "/trade-history"
	sep := "?"
	if instrument != "" {
		path += sep + "instrument_name=" + instrument
		sep = "&"
	}
	if limit > 0 {
		path += sep + "limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Trades []AevoFill `json:"trade_history"`
	}
	if err := c.do(ctx, "GET", path, true, nil, &out); err != nil {
		return nil, err
	}
	return out.Trades, nil
}

func (c *AevoClient) SetLeverage(ctx context.Context, instrument string, leverage int) error {
	body := map[string]interface{}{
		"instrument": instrument,
		"leverage":   leverage,
	}
	logger.WithFields(logger.Fields{
		"instrument": instrument,
		"leverage":   leverage,
	}).Info("Setting aevo leverage")

	return c.do(ctx, "POST", "/account/leverage", true, body, nil)
}
