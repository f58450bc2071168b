package bittrex

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/coinfolio/backend/src/models"
)

const sampleHistory = `OrderUuid,Exchange,Type,Quantity,Limit,CommissionPaid,Price,Opened,Closed
uuid-1,BTC-LTC,LIMIT_BUY,2.0,0.019,0.0001,0.038,2017-06-01 09:00:00,2017-06-01 10:30:00
uuid-2,BTC-LTC,LIMIT_SELL,1.0,0.021,0.00005,0.021,2017-06-02 09:00:00,2017-06-02 11:00:00
`

func TestParseBittrexHistory(t *testing.T) {
	orders, err := NewParser().Parse(strings.NewReader(sampleHistory), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("got %d orders, want 2", len(orders))
	}

	buy := orders[0]
	if buy.ID != "uuid-1" || buy.OrderType != models.OrderTypeBuy {
		t.Errorf("first order = %s %s", buy.ID, buy.OrderType)
	}
	if buy.Currency != "LTC" || buy.BaseCurrency != "BTC" {
		t.Errorf("market = %s/%s", buy.Currency, buy.BaseCurrency)
	}
	if !buy.ClosedDate.Equal(time.Date(2017, 6, 1, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("ClosedDate = %s", buy.ClosedDate)
	}
	// price is derived from subtotal/quantity
	avg, err := buy.AveragePrice()
	if err != nil {
		t.Fatalf("AveragePrice: %v", err)
	}
	if !avg.Equal(decimal.RequireFromString("0.019")) {
		t.Errorf("average price = %s, want 0.019", avg)
	}
	// fee lives entirely on the base side
	if !buy.CurrencyFee.IsZero() {
		t.Errorf("CurrencyFee = %s, want 0", buy.CurrencyFee)
	}
	if !buy.BaseFee.Equal(decimal.RequireFromString("0.0001")) {
		t.Errorf("BaseFee = %s", buy.BaseFee)
	}
	if !buy.NetCurrency.Equal(decimal.RequireFromString("2.0")) {
		t.Errorf("NetCurrency = %s, want 2.0", buy.NetCurrency)
	}
	if !buy.NetBase.Equal(decimal.RequireFromString("-0.0381")) {
		t.Errorf("NetBase = %s, want -0.0381", buy.NetBase)
	}

	sell := orders[1]
	if sell.OrderType != models.OrderTypeSell {
		t.Errorf("second order type = %s", sell.OrderType)
	}
	if !sell.NetBase.Equal(decimal.RequireFromString("0.02095")) {
		t.Errorf("sell NetBase = %s, want 0.02095", sell.NetBase)
	}
}

func TestParseSkipsZeroQuantityRows(t *testing.T) {
	history := "OrderUuid,Exchange,Type,Quantity,Limit,CommissionPaid,Price,Opened,Closed\n" +
		"uuid-1,BTC-LTC,LIMIT_BUY,0,0.019,0,0,2017-06-01 09:00:00,2017-06-01 10:30:00\n"
	orders, err := NewParser().Parse(strings.NewReader(history), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("got %d orders, want zero-quantity row skipped", len(orders))
	}
}

func TestParseStripsUTF16Noise(t *testing.T) {
	var b strings.Builder
	b.WriteString("\uFEFF")
	for _, r := range sampleHistory {
		b.WriteRune(r)
		b.WriteByte(0)
	}
	orders, err := NewParser().Parse(strings.NewReader(b.String()), nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("got %d orders, want 2", len(orders))
	}
}

func TestParseEmptyFile(t *testing.T) {
	if _, err := NewParser().Parse(strings.NewReader(""), nil); err == nil {
		t.Fatal("expected error for empty file")
	}
}
