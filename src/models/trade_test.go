package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRecalculateNetAmountsBuy(t *testing.T) {
	trade := &Trade{
		OrderType:   OrderTypeBuy,
		Quantity:    dec("1.0"),
		Subtotal:    dec("50.0"),
		CurrencyFee: dec("0.01"),
		BaseFee:     dec("0.5"),
	}
	trade.RecalculateNetAmounts()

	if !trade.NetCurrency.Equal(dec("0.99")) {
		t.Errorf("NetCurrency = %s, want 0.99", trade.NetCurrency)
	}
	if !trade.NetBase.Equal(dec("-50.5")) {
		t.Errorf("NetBase = %s, want -50.5", trade.NetBase)
	}
}

func TestRecalculateNetAmountsSell(t *testing.T) {
	trade := &Trade{
		OrderType:   OrderTypeSell,
		Quantity:    dec("1.0"),
		Subtotal:    dec("50.0"),
		CurrencyFee: dec("0.01"),
		BaseFee:     dec("0.5"),
	}
	trade.RecalculateNetAmounts()

	if !trade.NetCurrency.Equal(dec("-1.01")) {
		t.Errorf("NetCurrency = %s, want -1.01", trade.NetCurrency)
	}
	if !trade.NetBase.Equal(dec("49.5")) {
		t.Errorf("NetBase = %s, want 49.5", trade.NetBase)
	}
}

func TestRecalculateNetAmountsUnknownLeavesNetsUntouched(t *testing.T) {
	trade := &Trade{
		OrderType:   OrderTypeUnknown,
		Quantity:    dec("1.0"),
		Subtotal:    dec("50.0"),
		NetCurrency: dec("0.7"),
		NetBase:     dec("-33.0"),
	}
	trade.RecalculateNetAmounts()

	if !trade.NetCurrency.Equal(dec("0.7")) || !trade.NetBase.Equal(dec("-33.0")) {
		t.Errorf("unknown order type changed net amounts: %s / %s", trade.NetCurrency, trade.NetBase)
	}
}

func tradeAt(orderID string, ts time.Time, quantity, subtotal string) *Trade {
	return &Trade{
		OrderID:      orderID,
		Exchange:     "bittrex",
		OrderType:    OrderTypeBuy,
		Currency:     "LTC",
		BaseCurrency: "BTC",
		ClosedDate:   ts,
		Quantity:     dec(quantity),
		Subtotal:     dec(subtotal),
	}
}

func TestOrderAggregatesTrades(t *testing.T) {
	base := time.Date(2017, 6, 1, 10, 0, 0, 0, time.UTC)
	first := tradeAt("ord-1", base, "1.0", "50.0")
	second := tradeAt("ord-1", base.Add(time.Hour), "2.2", "105.0")
	first.RecalculateNetAmounts()
	second.RecalculateNetAmounts()

	order := NewOrder(first)
	order.AddTrade(second)

	if !order.Quantity.Equal(dec("3.2")) {
		t.Errorf("Quantity = %s, want 3.2", order.Quantity)
	}
	if !order.Subtotal.Equal(dec("155.0")) {
		t.Errorf("Subtotal = %s, want 155.0", order.Subtotal)
	}
	if !order.ClosedDate.Equal(base.Add(time.Hour)) {
		t.Errorf("ClosedDate = %s, want latest trade's", order.ClosedDate)
	}

	avg, err := order.AveragePrice()
	if err != nil {
		t.Fatalf("AveragePrice: %v", err)
	}
	if !avg.Equal(dec("48.4375")) {
		t.Errorf("AveragePrice = %s, want 48.4375", avg)
	}
}

func TestOrderClosedDateIndependentOfTradeOrder(t *testing.T) {
	base := time.Date(2017, 6, 1, 10, 0, 0, 0, time.UTC)
	early := tradeAt("ord-1", base, "1.0", "50.0")
	late := tradeAt("ord-1", base.Add(2*time.Hour), "1.0", "51.0")

	forward := NewOrder(early)
	forward.AddTrade(late)

	backward := NewOrder(late)
	backward.AddTrade(early)

	if !forward.ClosedDate.Equal(backward.ClosedDate) {
		t.Errorf("ClosedDate depends on trade order: %s vs %s", forward.ClosedDate, backward.ClosedDate)
	}
	if !forward.Equal(backward) {
		t.Errorf("aggregates differ by trade order:\n%s\n%s", forward, backward)
	}
}

func TestAveragePriceZeroQuantity(t *testing.T) {
	order := &Order{ID: "ord-1"}
	if _, err := order.AveragePrice(); err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func TestReplaceTotalsPreservesIdentity(t *testing.T) {
	base := time.Date(2017, 6, 1, 10, 0, 0, 0, time.UTC)
	order := NewOrder(tradeAt("ord-1", base, "1.0", "50.0"))

	newer := NewOrder(tradeAt("ord-1", base, "1.0", "50.0"))
	newer.AddTrade(tradeAt("ord-1", base.Add(time.Hour), "0.5", "26.0"))

	order.ReplaceTotals(newer)

	if order.ID != "ord-1" || order.Exchange != "bittrex" || order.Currency != "LTC" {
		t.Errorf("identity fields changed: %+v", order)
	}
	if !order.Quantity.Equal(dec("1.5")) {
		t.Errorf("Quantity = %s, want 1.5", order.Quantity)
	}
	if !order.ClosedDate.Equal(base.Add(time.Hour)) {
		t.Errorf("ClosedDate = %s, want newer's", order.ClosedDate)
	}
}
