package precision

// Test index:
// 1. TestQuantizeQtyFloors verifies quantities are floored, never rounded up.
// 2. TestQuantizeQtyIdempotent checks quantize(quantize(x)) == quantize(x) and result <= x.
// 3. TestQuantizeQtyUnknownStep asserts zero step is a passthrough.
// 4. TestQuantizePriceHalfUp verifies half-up rounding to the tick.
// 5. TestQuantizePriceErrorBound checks the rounding error never exceeds half a tick.
// 6. TestCapSignificantFigures covers the significant-figure cap for large and sub-unit prices.

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// TestQuantizeQtyFloors verifies quantities are floored to the step, never rounded up.
func TestQuantizeQtyFloors(t *testing.T) {
	cases := []struct {
		v, step, want string
	}{
		{"1.2399", "0.001", "1.239"},
		{"1.2391", "0.001", "1.239"},
		{"0.0009", "0.001", "0"},
		{"10", "1", "10"},
		{"10.999999", "0.5", "10.5"},
		{"0.3", "0.1", "0.3"},
	}
	for _, tc := range cases {
		got := QuantizeQty(dec(tc.v), dec(tc.step))
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("QuantizeQty(%s, %s) = %s, want %s", tc.v, tc.step, got, tc.want)
		}
	}
}

// TestQuantizeQtyIdempotent checks quantization is idempotent and never exceeds the input.
func TestQuantizeQtyIdempotent(t *testing.T) {
	inputs := []string{"1.23456789", "0.000123", "99999.5", "0.1"}
	steps := []string{"0.001", "0.0001", "0.5", "1"}

	for _, in := range inputs {
		for _, st := range steps {
			v, step := dec(in), dec(st)
			once := QuantizeQty(v, step)
			twice := QuantizeQty(once, step)
			if !once.Equal(twice) {
				t.Fatalf("not idempotent: quantize(%s, %s) = %s, re-quantized = %s", in, st, once, twice)
			}
			if once.GreaterThan(v) {
				t.Fatalf("quantize(%s, %s) = %s exceeds the input", in, st, once)
			}
		}
	}
}

// TestQuantizeQtyUnknownStep asserts an unknown step size returns the input unmodified.
func TestQuantizeQtyUnknownStep(t *testing.T) {
	v := dec("1.23456789")
	if got := QuantizeQty(v, decimal.Zero); !got.Equal(v) {
		t.Fatalf("expected passthrough for zero step, got %s", got)
	}
	if got := QuantizePrice(v, decimal.Zero); !got.Equal(v) {
		t.Fatalf("expected passthrough for zero tick, got %s", got)
	}
}

// TestQuantizePriceHalfUp verifies half-up rounding to the nearest tick.
func TestQuantizePriceHalfUp(t *testing.T) {
	cases := []struct {
		v, tick, want string
	}{
		{"95.004", "0.01", "95"},
		{"95.005", "0.01", "95.01"},
		{"95.006", "0.01", "95.01"},
		{"95", "0.01", "95"},
		{"100.25", "0.5", "100.5"},
		{"100.24", "0.5", "100"},
	}
	for _, tc := range cases {
		got := QuantizePrice(dec(tc.v), dec(tc.tick))
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("QuantizePrice(%s, %s) = %s, want %s", tc.v, tc.tick, got, tc.want)
		}
	}
}

// TestQuantizePriceErrorBound checks |quantized - input| <= tick/2.
func TestQuantizePriceErrorBound(t *testing.T) {
	ticks := []string{"0.01", "0.5", "0.0001"}
	prices := []string{"95.0049", "123.456789", "0.00015", "7", "0.33333"}

	two := decimal.NewFromInt(2)
	for _, tk := range ticks {
		tick := dec(tk)
		halfTick := tick.Div(two)
		for _, p := range prices {
			v := dec(p)
			got := QuantizePrice(v, tick)
			if got.Sub(v).Abs().GreaterThan(halfTick) {
				t.Fatalf("QuantizePrice(%s, %s) = %s drifts more than half a tick", p, tk, got)
			}
		}
	}
}

// TestCapSignificantFigures covers the significant-figure cap applied after tick rounding.
func TestCapSignificantFigures(t *testing.T) {
	cases := []struct {
		v    string
		sig  int32
		want string
	}{
		{"12345.6", 5, "12346"},
		{"95.00", 5, "95"},
		{"0.0523456", 5, "0.052346"},
		{"123456789", 5, "123460000"},
		{"1.00005", 5, "1.0001"}, // half up on the 6th figure
		{"0", 5, "0"},
		{"12.3", 0, "12.3"}, // non-positive cap is a passthrough
	}
	for _, tc := range cases {
		got := CapSignificantFigures(dec(tc.v), tc.sig)
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("CapSignificantFigures(%s, %d) = %s, want %s", tc.v, tc.sig, got, tc.want)
		}
	}
}
