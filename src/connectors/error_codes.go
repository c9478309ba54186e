package connectors

import "fmt"

// BinanceErrorCodes maps Binance futures API error codes to their
// symbolic names. The remote message is always preserved verbatim in
// the returned error; this table only adds the name for logs.
var BinanceErrorCodes = map[int]string{
	-1000: "UNKNOWN",
	-1003: "TOO_MANY_REQUESTS",
	-1013: "INVALID_MESSAGE",         // filter failure (price/qty filters)
	-1021: "INVALID_TIMESTAMP",       // timestamp outside recvWindow
	-1022: "INVALID_SIGNATURE",       // signature for this request is not valid
	-1102: "MANDATORY_PARAM_EMPTY_OR_MALFORMED",
	-1106: "PARAM_NOT_REQUIRED",      // parameter sent when not required
	-1111: "BAD_PRECISION",           // precision over the maximum for this asset
	-1121: "BAD_SYMBOL",              // invalid symbol
	-2010: "NEW_ORDER_REJECTED",
	-2011: "CANCEL_REJECTED",
	-2013: "NO_SUCH_ORDER",           // order does not exist
	-2014: "BAD_API_KEY_FMT",         // API-key format invalid
	-2015: "REJECTED_MBX_KEY",        // invalid API-key, IP, or permissions
	-2018: "BALANCE_NOT_SUFFICIENT",
	-2019: "MARGIN_NOT_SUFFICIENT",
	-2020: "UNABLE_TO_FILL",
	-2021: "ORDER_WOULD_IMMEDIATELY_TRIGGER",
	-2022: "REDUCE_ONLY_REJECT",
	-2027: "MAX_LEVERAGE_RATIO",
	-4003: "QUANTITY_LESS_THAN_ZERO",
	-4014: "PRICE_NOT_INCREASED_BY_TICK_SIZE",
	-4015: "INVALID_CL_ORD_ID_LEN",
	-4061: "ORDER_POSITION_SIDE_MISMATCH",
	-4131: "MARKET_ORDER_REJECT",     // counterparty's best price does not meet PERCENT_PRICE
	-5021: "FOK_ORDER_REJECT",
	-5022: "GTX_ORDER_REJECT",        // post-only order would have taken
}

// BinanceErrorName returns the symbolic name for a Binance error code,
// or a generic label for unknown codes.
func BinanceErrorName(code int) string {
	if name, ok := BinanceErrorCodes[code]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN_BINANCE_ERROR_%d", code)
}

// binanceAuthCode reports whether a Binance error code indicates a
// credential or signing problem rather than a rejected request.
func binanceAuthCode(code int) bool {
	switch code {
	case -1021, -1022, -2014, -2015:
		return true
	}
	return false
}
