// Bidirectional mapping between the canonical symbol form (the bare
// base asset, e.g. "SOL") and each backend's native spelling. Binance
// USDT-M appends the quote asset ("SOLUSDT"); aevo appends a contract
// type ("SOL-PERP"). The mappings are total and deterministic: unknown
// or malformed input degrades to an upper-cased passthrough so a
// market-data call can still go out and surface the venue's own "not
// found" instead of failing locally.
package symbol

import "strings"

const (
	binanceQuoteSuffix = "USDT"
	aevoContractSuffix = "-PERP"
)

func clean(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Canonical normalizes caller input to the canonical spelling without
// attaching any venue suffix.
func Canonical(s string) string {
	return clean(s)
}

// ToBinance maps a canonical symbol to the Binance USDT-M spelling.
//
//	SOL  -> SOLUSDT
//	sol  -> SOLUSDT
//	SOLUSDT -> SOLUSDT
func ToBinance(canonical string) string {
	s := clean(canonical)
	if s == "" || strings.HasSuffix(s, binanceQuoteSuffix) {
		return s
	}
	return s + binanceQuoteSuffix
}

// FromBinance maps a Binance USDT-M symbol back to canonical form.
func FromBinance(native string) string {
	s := clean(native)
	return strings.TrimSuffix(s, binanceQuoteSuffix)
}

// ToAevo maps a canonical symbol to the aevo perpetual spelling.
//
//	SOL -> SOL-PERP
func ToAevo(canonical string) string {
	s := clean(canonical)
	if s == "" || strings.HasSuffix(s, aevoContractSuffix) {
		return s
	}
	return s + aevoContractSuffix
}

// FromAevo maps an aevo instrument name back to canonical form.
func FromAevo(native string) string {
	s := clean(native)
	return strings.TrimSuffix(s, aevoContractSuffix)
}
