package models

import "github.com/shopspring/decimal"

// ClosedPositionOffer proposes a run of orders, taken from the start of an
// open position in closed-date order, whose currency side nets to exactly
// zero. Accepting it realizes the NetBase figure by closing the whole
// position or splitting the listed orders into a new closed one.
type ClosedPositionOffer struct {
	PositionID int64           `json:"position_id"`
	OrderIDs   []string        `json:"order_ids"`
	NetBase    decimal.Decimal `json:"net_base"`
}
