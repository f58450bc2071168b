package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrZeroQuantity is returned when an average price is requested for an
// order whose aggregated quantity is zero. Such an order is invalid input
// and should be skipped by callers.
var ErrZeroQuantity = errors.New("order quantity is zero")

// Order aggregates every trade sharing one exchange order id. The market
// identity fields (Exchange, OrderType, Currency, BaseCurrency) are fixed
// by the first contributing trade; all numeric fields are additive sums
// and ClosedDate is the latest contributing trade's date.
type Order struct {
	ID           string          `json:"id"`
	Exchange     string          `json:"exchange"`
	OrderType    OrderType       `json:"order_type"`
	Currency     string          `json:"currency"`
	BaseCurrency string          `json:"base_currency"`
	ClosedDate   time.Time       `json:"closed_date"`
	Quantity     decimal.Decimal `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	CurrencyFee  decimal.Decimal `json:"currency_fee"`
	BaseFee      decimal.Decimal `json:"base_fee"`
	NetCurrency  decimal.Decimal `json:"net_currency"`
	NetBase      decimal.Decimal `json:"net_base"`
}

// NewOrder seeds an order from the first trade seen for its order id.
func NewOrder(trade *Trade) *Order {
	order := &Order{
		ID:           trade.OrderID,
		Exchange:     trade.Exchange,
		OrderType:    trade.OrderType,
		Currency:     trade.Currency,
		BaseCurrency: trade.BaseCurrency,
	}
	order.AddTrade(trade)
	return order
}

// AddTrade folds one more fill into the aggregate. Addition is commutative
// and max-date is associative, so the result does not depend on the order
// in which trades arrive.
func (o *Order) AddTrade(trade *Trade) {
	if trade.ClosedDate.After(o.ClosedDate) {
		o.ClosedDate = trade.ClosedDate
	}
	o.Quantity = o.Quantity.Add(trade.Quantity)
	o.Subtotal = o.Subtotal.Add(trade.Subtotal)
	o.CurrencyFee = o.CurrencyFee.Add(trade.CurrencyFee)
	o.BaseFee = o.BaseFee.Add(trade.BaseFee)
	o.NetCurrency = o.NetCurrency.Add(trade.NetCurrency)
	o.NetBase = o.NetBase.Add(trade.NetBase)
}

// ReplaceTotals overwrites this order's mutable totals with those of a
// newer aggregate for the same order id, e.g. when a re-imported history
// file contains additional fills for an order that was only partially
// known before. The identity and market fields are left untouched so
// wallet and position membership are preserved.
func (o *Order) ReplaceTotals(newer *Order) {
	o.ClosedDate = newer.ClosedDate
	o.Quantity = newer.Quantity
	o.Subtotal = newer.Subtotal
	o.CurrencyFee = newer.CurrencyFee
	o.BaseFee = newer.BaseFee
	o.NetCurrency = newer.NetCurrency
	o.NetBase = newer.NetBase
}

// Equal reports whether two orders agree on every field. It decides
// whether a re-imported order needs its totals replaced.
func (o *Order) Equal(other *Order) bool {
	return o.ID == other.ID &&
		o.Exchange == other.Exchange &&
		o.OrderType == other.OrderType &&
		o.Currency == other.Currency &&
		o.BaseCurrency == other.BaseCurrency &&
		o.ClosedDate.Equal(other.ClosedDate) &&
		o.Quantity.Equal(other.Quantity) &&
		o.Subtotal.Equal(other.Subtotal) &&
		o.CurrencyFee.Equal(other.CurrencyFee) &&
		o.BaseFee.Equal(other.BaseFee) &&
		o.NetCurrency.Equal(other.NetCurrency) &&
		o.NetBase.Equal(other.NetBase)
}

// AveragePrice returns subtotal divided by quantity.
func (o *Order) AveragePrice() (decimal.Decimal, error) {
	if o.Quantity.IsZero() {
		return decimal.Decimal{}, fmt.Errorf("%w: order %s", ErrZeroQuantity, o.ID)
	}
	return o.Subtotal.Div(o.Quantity), nil
}

func (o *Order) String() string {
	avg, err := o.AveragePrice()
	if err != nil {
		avg = decimal.Decimal{}
	}
	return fmt.Sprintf("%s %s %s %s at %s %s/%s for %s %s on %s",
		o.ClosedDate.Format(time.RFC3339), o.OrderType, o.Quantity, o.Currency,
		avg, o.BaseCurrency, o.Currency, o.NetBase.Abs(), o.BaseCurrency, o.Exchange)
}
