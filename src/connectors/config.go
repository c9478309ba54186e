package connectors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BinanceBaseURL string `envconfig:"BINANCE_BASE_URL" default:"https://fapi.binance.com"`
	AevoBaseURL    string `envconfig:"AEVO_BASE_URL" default:"https://api.aevo.xyz"`

	HTTPTimeout time.Duration `envconfig:"EXCHANGE_HTTP_TIMEOUT" default:"10s"`

	// Requests per second allowed against each venue. Bulk operations
	// fan out many independent calls; the limiter keeps them inside the
	// venue's weight budget.
	BinanceRateLimit float64 `envconfig:"BINANCE_RATE_LIMIT" default:"10"`
	AevoRateLimit    float64 `envconfig:"AEVO_RATE_LIMIT" default:"10"`

	// MarketOrderOffsetPercent is the safety offset used to synthesize
	// market orders on venues that only accept limit orders: buy at
	// mark*(1+offset), sell at mark*(1-offset), immediate-or-cancel.
	MarketOrderOffsetPercent float64 `envconfig:"MARKET_ORDER_OFFSET_PERCENT" default:"5"`

	// RecvWindow for Binance signed requests, milliseconds.
	BinanceRecvWindow int64 `envconfig:"BINANCE_RECV_WINDOW" default:"5000"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
