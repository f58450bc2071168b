package trading

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/coinfolio/backend/src/models"
)

var testEpoch = time.Date(2017, 6, 1, 10, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// testOrder builds an aggregated order from one synthetic fill.
func testOrder(id string, orderType models.OrderType, offset time.Duration, quantity, subtotal, currencyFee, baseFee string) *models.Order {
	trade := &models.Trade{
		OrderID:      id,
		Exchange:     "bittrex",
		OrderType:    orderType,
		Currency:     "LTC",
		BaseCurrency: "BTC",
		ClosedDate:   testEpoch.Add(offset),
		Quantity:     dec(quantity),
		Subtotal:     dec(subtotal),
		CurrencyFee:  dec(currencyFee),
		BaseFee:      dec(baseFee),
	}
	trade.RecalculateNetAmounts()
	return models.NewOrder(trade)
}

func TestPositionKeepsOrdersSortedByDate(t *testing.T) {
	position := NewPosition(1, "bittrex", "LTC", "BTC")

	late := testOrder("b", models.OrderTypeBuy, 2*time.Hour, "1", "10", "0", "0")
	early := testOrder("a", models.OrderTypeBuy, time.Hour, "1", "10", "0", "0")
	for _, order := range []*models.Order{late, early} {
		if err := position.AddOrder(order); err != nil {
			t.Fatalf("AddOrder: %v", err)
		}
	}

	ids := position.OrderIDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("order ids = %v, want [a b]", ids)
	}
}

func TestPositionProfitLoss(t *testing.T) {
	position := NewPosition(1, "bittrex", "LTC", "BTC")
	buy := testOrder("buy", models.OrderTypeBuy, time.Hour, "2", "0.04", "0", "0")
	sell := testOrder("sell", models.OrderTypeSell, 2*time.Hour, "2", "0.05", "0", "0.0001")
	for _, order := range []*models.Order{buy, sell} {
		if err := position.AddOrder(order); err != nil {
			t.Fatalf("AddOrder: %v", err)
		}
	}

	if !position.CurrencyProfitLoss().IsZero() {
		t.Errorf("CurrencyProfitLoss = %s, want 0", position.CurrencyProfitLoss())
	}
	// -0.04 spent, 0.0499 received
	if !position.BaseProfitLoss().Equal(dec("0.0099")) {
		t.Errorf("BaseProfitLoss = %s, want 0.0099", position.BaseProfitLoss())
	}
	// 0.0499/0.04 - 1 = 24.75%
	if !position.BaseProfitPercent().Equal(dec("24.75")) {
		t.Errorf("BaseProfitPercent = %s, want 24.75", position.BaseProfitPercent())
	}
}

func TestPositionProfitPercentOneSided(t *testing.T) {
	position := NewPosition(1, "bittrex", "LTC", "BTC")
	if err := position.AddOrder(testOrder("buy", models.OrderTypeBuy, time.Hour, "2", "0.04", "0", "0")); err != nil {
		t.Fatalf("AddOrder: %v", err)
	}
	if !position.BaseProfitPercent().IsZero() {
		t.Errorf("one-sided BaseProfitPercent = %s, want 0", position.BaseProfitPercent())
	}
}

func TestCloseEmptyPosition(t *testing.T) {
	position := NewPosition(1, "bittrex", "LTC", "BTC")
	if err := position.Close(); !errors.Is(err, ErrEmptyPosition) {
		t.Fatalf("err = %v, want ErrEmptyPosition", err)
	}
}

func TestCloseSetsDateFromLastOrder(t *testing.T) {
	position := NewPosition(1, "bittrex", "LTC", "BTC")
	position.AddOrder(testOrder("a", models.OrderTypeBuy, time.Hour, "1", "10", "0", "0"))
	position.AddOrder(testOrder("b", models.OrderTypeSell, 3*time.Hour, "1", "11", "0", "0"))

	if err := position.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if position.IsOpen {
		t.Error("position still open after Close")
	}
	if !position.ClosedDate.Equal(testEpoch.Add(3 * time.Hour)) {
		t.Errorf("ClosedDate = %s, want last order's", position.ClosedDate)
	}

	if err := position.Close(); !errors.Is(err, ErrPositionClosed) {
		t.Errorf("second Close err = %v, want ErrPositionClosed", err)
	}
	if err := position.AddOrder(testOrder("c", models.OrderTypeBuy, 4*time.Hour, "1", "10", "0", "0")); !errors.Is(err, ErrPositionClosed) {
		t.Errorf("AddOrder on closed err = %v, want ErrPositionClosed", err)
	}
}
