package pollers

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/coinfolio/backend/src/models"
)

const bittrexHistoryReply = `{
  "success": true,
  "message": "",
  "result": [
    {
      "OrderUuid": "uuid-1",
      "Exchange": "BTC-LTC",
      "OrderType": "LIMIT_BUY",
      "Quantity": 2.0,
      "Limit": 0.019,
      "Price": 0.03800001,
      "Commission": 0.0001,
      "Closed": "2017-06-01T10:30:00"
    },
    {
      "OrderUuid": "uuid-2",
      "Exchange": "USDT-BTC",
      "OrderType": "LIMIT_SELL",
      "Quantity": 0.1,
      "Limit": 2500.0,
      "Price": 250.0,
      "Commission": 0.625,
      "Closed": "2017-06-02T11:00:00"
    }
  ]
}`

func TestBittrexGetOrders(t *testing.T) {
	var gotSign, gotURI string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSign = r.Header.Get("apisign")
		gotURI = "http://" + r.Host + r.URL.String()
		w.Write([]byte(bittrexHistoryReply))
	}))
	defer server.Close()

	poller := NewBittrexPoller("test-key", "test-secret")
	poller.baseURL = server.URL
	poller.now = func() time.Time { return time.Unix(1496312400, 0) }

	orders, err := poller.GetOrders(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetOrders: %v", err)
	}

	// the apisign header is the HMAC-SHA512 of the full request URI
	mac := hmac.New(sha512.New, []byte("test-secret"))
	mac.Write([]byte(gotURI))
	if want := hex.EncodeToString(mac.Sum(nil)); gotSign != want {
		t.Errorf("apisign = %s, want %s", gotSign, want)
	}

	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}

	var buy *models.Order
	for _, order := range orders {
		if order.ID == "uuid-1" {
			buy = order
		}
	}
	if buy == nil {
		t.Fatal("order uuid-1 missing")
	}
	if buy.Exchange != "Bittrex" || buy.OrderType != models.OrderTypeBuy {
		t.Errorf("order = %s %s", buy.Exchange, buy.OrderType)
	}
	if buy.Currency != "LTC" || buy.BaseCurrency != "BTC" {
		t.Errorf("market = %s/%s, want LTC/BTC", buy.Currency, buy.BaseCurrency)
	}
	// JSON numbers arrive through json.Number, never float64
	if !buy.Subtotal.Equal(decimal.RequireFromString("0.03800001")) {
		t.Errorf("Subtotal = %s, want exact 0.03800001", buy.Subtotal)
	}
	if !buy.NetBase.Equal(decimal.RequireFromString("-0.03810001")) {
		t.Errorf("NetBase = %s, want -0.03810001", buy.NetBase)
	}
}

func TestBittrexGetOrdersRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "message": "APIKEY_INVALID", "result": null}`))
	}))
	defer server.Close()

	poller := NewBittrexPoller("bad-key", "bad-secret")
	poller.baseURL = server.URL

	if _, err := poller.GetOrders(context.Background(), nil); err == nil {
		t.Fatal("expected error for refused request")
	}
}

func TestBittrexGetOrdersBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	poller := NewBittrexPoller("key", "secret")
	poller.baseURL = server.URL

	if _, err := poller.GetOrders(context.Background(), nil); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
