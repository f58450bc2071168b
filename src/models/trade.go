package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType classifies the direction of a trade or order.
type OrderType string

const (
	OrderTypeBuy     OrderType = "BUY"
	OrderTypeSell    OrderType = "SELL"
	OrderTypeUnknown OrderType = "UNKNOWN"
)

// Trade is the canonical representation of a single exchange fill. Every
// parser and poller maps its vendor-specific record shape into this one
// struct; it is consumed immediately by the order aggregator and never
// persisted on its own.
type Trade struct {
	ID           string          `json:"id"`       // exchange-assigned fill id, may be empty
	OrderID      string          `json:"order_id"` // groups fills into one order
	ClosedDate   time.Time       `json:"closed_date"`
	Exchange     string          `json:"exchange"`
	OrderType    OrderType       `json:"order_type"`
	Currency     string          `json:"currency"`      // the traded asset
	BaseCurrency string          `json:"base_currency"` // the asset it is priced in
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	CurrencyFee  decimal.Decimal `json:"currency_fee"`
	BaseFee      decimal.Decimal `json:"base_fee"`
	NetCurrency  decimal.Decimal `json:"net_currency"` // signed ledger delta of Currency
	NetBase      decimal.Decimal `json:"net_base"`     // signed ledger delta of BaseCurrency
}

// RecalculateNetAmounts derives the signed ledger deltas from the gross
// amounts and fees. A buy acquires the asset net of fee and spends the base
// amount plus fee; a sell is the mirror image. For an unknown order type the
// net amounts are left untouched, which is a defined degraded state rather
// than an error.
func (t *Trade) RecalculateNetAmounts() {
	switch t.OrderType {
	case OrderTypeBuy:
		t.NetCurrency = t.Quantity.Sub(t.CurrencyFee)
		t.NetBase = t.Subtotal.Neg().Sub(t.BaseFee)
	case OrderTypeSell:
		t.NetCurrency = t.Quantity.Neg().Sub(t.CurrencyFee)
		t.NetBase = t.Subtotal.Sub(t.BaseFee)
	}
}
