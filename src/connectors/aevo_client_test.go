package connectors

// Test index:
// 1. TestNewAevoClientRejectsBadKey covers malformed private keys at construction.
// 2. TestSignOrderDigestDeterministic checks the typed-message signature is stable
//    and sensitive to its inputs.
// 3. TestAevoPlaceOrderSendsSignedPayload decodes the wire body and verifies the
//    maker, salt, timestamp and signature fields.
// 4. TestAevoPrivateReadHeaders asserts the signed header triple on account reads.
// 5. TestAevoErrorClassification covers rejection, auth and transport error mapping.
// 6. TestPublicAevoClientRejectsPrivateCalls verifies credential-free clients can
//    read market data but never reach private endpoints.
// 7. TestAevoFractionalRateLimit checks sub-1 rps configs keep a usable burst.

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"perpgate/src/model"
)

const (
	testAevoAddress = "0x3cd0a705a2dc65e5b1e1205896baa2be8a07c6e0"
	testAevoKey     = "2e0834786285daccd064ca17f1654f67b4aef298acbb82cef9ec422fb4975622"
)

func testAevoConfig(baseURL string) Config {
	return Config{
		AevoBaseURL:   baseURL,
		HTTPTimeout:   5 * time.Second,
		AevoRateLimit: 1000,
	}
}

func newTestAevoClient(t *testing.T, baseURL string) *AevoClient {
	t.Helper()
	client, err := NewAevoClient(testAevoAddress, testAevoKey, testAevoConfig(baseURL))
	if err != nil {
		t.Fatalf("unexpected error building client: %v", err)
	}
	return client
}

// TestNewAevoClientRejectsBadKey ensures malformed keys fail fast as auth errors.
func TestNewAevoClientRejectsBadKey(t *testing.T) {
	cases := []struct {
		name string
		key  string
	}{
		{"not hex", "zzzz"},
		{"wrong length", "deadbeef"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewAevoClient(testAevoAddress, tc.key, testAevoConfig("http://localhost"))
			var authErr *model.AuthError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthError, got %v", err)
			}
			if authErr.Exchange != model.ExchangeAevo {
				t.Fatalf("expected exchange %s, got %s", model.ExchangeAevo, authErr.Exchange)
			}
		})
	}
}

// TestSignOrderDigestDeterministic checks signature stability and input sensitivity.
func TestSignOrderDigestDeterministic(t *testing.T) {
	client := newTestAevoClient(t, "http://localhost")

	sig1 := client.signOrderDigest("SOL-PERP", true, "1.5", "95.00", "42", "1700000000")
	sig2 := client.signOrderDigest("SOL-PERP", true, "1.5", "95.00", "42", "1700000000")
	if sig1 != sig2 {
		t.Fatalf("same inputs produced different signatures: %s vs %s", sig1, sig2)
	}
	if !strings.HasPrefix(sig1, "0x") || len(sig1) != 2+65*2 {
		t.Fatalf("unexpected signature shape: %s", sig1)
	}

	sig3 := client.signOrderDigest("SOL-PERP", true, "2.5", "95.00", "42", "1700000000")
	if sig3 == sig1 {
		t.Fatalf("different amount produced identical signature")
	}
	sig4 := client.signOrderDigest("SOL-PERP", false, "1.5", "95.00", "42", "1700000000")
	if sig4 == sig1 {
		t.Fatalf("different side produced identical signature")
	}
}

// TestAevoPlaceOrderSendsSignedPayload decodes the posted body and checks signing fields.
func TestAevoPlaceOrderSendsSignedPayload(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/orders" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode order body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(AevoOrderResponse{OrderID: "ord-1", OrderStatus: "opened"})
	}))
	defer server.Close()

	client := newTestAevoClient(t, server.URL)
	resp, err := client.PlaceOrder(context.Background(), AevoOrderPayload{
		Instrument:  "SOL-PERP",
		IsBuy:       true,
		Amount:      "1.5",
		LimitPrice:  "95.00",
		TimeInForce: "IOC",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.OrderID != "ord-1" {
		t.Fatalf("expected order id ord-1, got %s", resp.OrderID)
	}

	if gotBody["maker"] != testAevoAddress {
		t.Fatalf("expected maker %s, got %v", testAevoAddress, gotBody["maker"])
	}
	for _, field := range []string{"salt", "timestamp"} {
		if s, ok := gotBody[field].(string); !ok || s == "" {
			t.Fatalf("expected non-empty %s, got %v", field, gotBody[field])
		}
	}
	sig, _ := gotBody["signature"].(string)
	if !strings.HasPrefix(sig, "0x") || len(sig) != 2+65*2 {
		t.Fatalf("unexpected signature on wire: %q", sig)
	}
	if gotBody["limit_price"] != "95.00" {
		t.Fatalf("expected limit_price 95.00, got %v", gotBody["limit_price"])
	}
}

// TestAevoPrivateReadHeaders asserts the authenticated header triple.
func TestAevoPrivateReadHeaders(t *testing.T) {
	var gotAddress, gotTimestamp, gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAddress = r.Header.Get("X-AEVO-ADDRESS")
		gotTimestamp = r.Header.Get("X-AEVO-TIMESTAMP")
		gotSignature = r.Header.Get("X-AEVO-SIGNATURE")
		_ = json.NewEncoder(w).Encode(AevoAccount{})
	}))
	defer server.Close()

	client := newTestAevoClient(t, server.URL)
	if _, err := client.GetAccount(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAddress != testAevoAddress {
		t.Fatalf("expected address header %s, got %s", testAevoAddress, gotAddress)
	}
	if gotTimestamp == "" {
		t.Fatalf("expected timestamp header")
	}
	expected := client.signReadDigest(gotTimestamp, "GET", "/account")
	if gotSignature != expected {
		t.Fatalf("expected signature %s, got %s", expected, gotSignature)
	}
}

// TestAevoErrorClassification covers rejection, auth and transport error mapping.
func TestAevoErrorClassification(t *testing.T) {
	t.Run("rejection carries venue message verbatim", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"ORDER_PRICE_OUT_OF_BAND"}`))
		}))
		defer server.Close()

		client := newTestAevoClient(t, server.URL)
		_, err := client.PlaceOrder(context.Background(), AevoOrderPayload{Instrument: "SOL-PERP"})
		var rejErr *model.ExchangeRejectionError
		if !errors.As(err, &rejErr) {
			t.Fatalf("expected ExchangeRejectionError, got %v", err)
		}
		if rejErr.Message != "ORDER_PRICE_OUT_OF_BAND" {
			t.Fatalf("expected verbatim venue message, got %q", rejErr.Message)
		}
		if rejErr.Code != http.StatusBadRequest {
			t.Fatalf("expected code 400, got %d", rejErr.Code)
		}
	})

	t.Run("401 maps to auth error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"signature expired"}`))
		}))
		defer server.Close()

		client := newTestAevoClient(t, server.URL)
		_, err := client.GetAccount(context.Background())
		var authErr *model.AuthError
		if !errors.As(err, &authErr) {
			t.Fatalf("expected AuthError, got %v", err)
		}
		if authErr.Reason != "signature expired" {
			t.Fatalf("expected venue reason, got %q", authErr.Reason)
		}
	})

	t.Run("unparseable error body is a network error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("<html>bad gateway</html>"))
		}))
		defer server.Close()

		client := newTestAevoClient(t, server.URL)
		_, err := client.GetTicker(context.Background(), "SOL-PERP")
		var netErr *model.NetworkError
		if !errors.As(err, &netErr) {
			t.Fatalf("expected NetworkError, got %v", err)
		}
	})
}

// TestPublicAevoClientRejectsPrivateCalls verifies the credential-free client path.
func TestPublicAevoClientRejectsPrivateCalls(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_ = json.NewEncoder(w).Encode([]AevoMarket{{InstrumentName: "SOL-PERP"}})
	}))
	defer server.Close()

	client, err := NewAevoClient("", "", testAevoConfig(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	markets, err := client.GetMarkets(context.Background(), "SOL-PERP")
	if err != nil {
		t.Fatalf("unexpected market data error: %v", err)
	}
	if len(markets) != 1 || markets[0].InstrumentName != "SOL-PERP" {
		t.Fatalf("unexpected markets payload: %+v", markets)
	}

	_, err = client.GetAccount(context.Background())
	var authErr *model.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if requests != 1 {
		t.Fatalf("expected private call to stay off the wire, saw %d requests", requests)
	}
}

// TestAevoFractionalRateLimit ensures a configured rate below 1 rps
// still leaves the limiter a burst of one.
func TestAevoFractionalRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]AevoMarket{{InstrumentName: "SOL-PERP"}})
	}))
	defer server.Close()

	cfg := testAevoConfig(server.URL)
	cfg.AevoRateLimit = 0.25
	client, err := NewAevoClient(testAevoAddress, testAevoKey, cfg)
	if err != nil {
		t.Fatalf("unexpected error building client: %v", err)
	}

	if _, err := client.GetMarkets(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error with fractional rate limit: %v", err)
	}
}
