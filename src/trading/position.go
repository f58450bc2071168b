// Package trading holds the ledger aggregates: positions grouping orders
// per market, wallets routing orders into positions, and the portfolio
// rolling up all wallets.
package trading

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/coinfolio/backend/src/models"
)

// Position is a continuous holding period in one (exchange, currency,
// baseCurrency) market. It starts open, accumulates orders in closed-date
// order, and is closed exactly once. At most one open position may exist
// per market; wallet routing enforces this.
type Position struct {
	ID           int64     `json:"id"`
	Exchange     string    `json:"exchange"`
	Currency     string    `json:"currency"`
	BaseCurrency string    `json:"base_currency"`
	IsOpen       bool      `json:"is_open"`
	ClosedDate   time.Time `json:"closed_date,omitempty"`

	// ascending by closed date, insertion order breaks ties
	orders []*models.Order
}

// NewPosition creates an open position for one market.
func NewPosition(id int64, exchange, currency, baseCurrency string) *Position {
	return &Position{
		ID:           id,
		Exchange:     exchange,
		Currency:     currency,
		BaseCurrency: baseCurrency,
		IsOpen:       true,
	}
}

// RestoreOrders attaches persisted orders to a freshly loaded position,
// re-establishing the closed-date ordering.
func (p *Position) RestoreOrders(orders []*models.Order) {
	p.orders = append([]*models.Order(nil), orders...)
	sort.SliceStable(p.orders, func(i, j int) bool {
		return p.orders[i].ClosedDate.Before(p.orders[j].ClosedDate)
	})
}

// Orders returns the position's orders in closed-date order.
func (p *Position) Orders() []*models.Order {
	return append([]*models.Order(nil), p.orders...)
}

// OrderIDs returns the ids of the position's orders in closed-date order.
func (p *Position) OrderIDs() []string {
	ids := make([]string, len(p.orders))
	for i, order := range p.orders {
		ids[i] = order.ID
	}
	return ids
}

// AddOrder appends an order, keeping the collection sorted by closed date.
// An order inserted with the same date as an existing one sorts after it.
func (p *Position) AddOrder(order *models.Order) error {
	if !p.IsOpen {
		return fmt.Errorf("%w: position %d", ErrPositionClosed, p.ID)
	}
	i := sort.Search(len(p.orders), func(i int) bool {
		return p.orders[i].ClosedDate.After(order.ClosedDate)
	})
	p.orders = append(p.orders, nil)
	copy(p.orders[i+1:], p.orders[i:])
	p.orders[i] = order
	return nil
}

// RemoveOrder detaches an order as part of a split; it is not a standalone
// user action.
func (p *Position) RemoveOrder(order *models.Order) error {
	if !p.IsOpen {
		return fmt.Errorf("%w: position %d", ErrPositionClosed, p.ID)
	}
	for i, o := range p.orders {
		if o.ID == order.ID {
			p.orders = append(p.orders[:i], p.orders[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: order %s in position %d", ErrOrderNotFound, order.ID, p.ID)
}

// CurrencyProfitLoss is the sum of net currency deltas over all orders.
func (p *Position) CurrencyProfitLoss() decimal.Decimal {
	var sum decimal.Decimal
	for _, order := range p.orders {
		sum = sum.Add(order.NetCurrency)
	}
	return sum
}

// BaseProfitLoss is the sum of net base deltas over all orders.
func (p *Position) BaseProfitLoss() decimal.Decimal {
	var sum decimal.Decimal
	for _, order := range p.orders {
		sum = sum.Add(order.NetBase)
	}
	return sum
}

// BaseProfitPercent is the percent return of sells over buys in base
// terms. A position with trades on only one side reports 0: it has no
// realized return yet. This deliberately conflates "no return yet" with
// "0% return"; changing it would alter user-visible numbers.
func (p *Position) BaseProfitPercent() decimal.Decimal {
	var absoluteBuys, absoluteSells decimal.Decimal
	for _, order := range p.orders {
		switch order.OrderType {
		case models.OrderTypeBuy:
			absoluteBuys = absoluteBuys.Add(order.NetBase.Abs())
		case models.OrderTypeSell:
			absoluteSells = absoluteSells.Add(order.NetBase.Abs())
		}
	}
	if absoluteBuys.IsZero() || absoluteSells.IsZero() {
		return decimal.Decimal{}
	}
	one := decimal.NewFromInt(1)
	hundred := decimal.NewFromInt(100)
	return absoluteSells.Div(absoluteBuys).Sub(one).Mul(hundred)
}

// Close transitions the position to its terminal state. The closed date
// is the latest contributing order's; a position with no orders cannot be
// closed.
func (p *Position) Close() error {
	if !p.IsOpen {
		return fmt.Errorf("%w: position %d", ErrPositionClosed, p.ID)
	}
	if len(p.orders) == 0 {
		return fmt.Errorf("%w: position %d", ErrEmptyPosition, p.ID)
	}
	p.IsOpen = false
	p.ClosedDate = p.orders[len(p.orders)-1].ClosedDate
	return nil
}

// ordersByIDs resolves a subset of the position's orders by id, in the
// position's own ordering.
func (p *Position) ordersByIDs(ids []string) ([]*models.Order, error) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var subset []*models.Order
	for _, order := range p.orders {
		if wanted[order.ID] {
			subset = append(subset, order)
			delete(wanted, order.ID)
		}
	}
	for id := range wanted {
		return nil, fmt.Errorf("%w: order %s in position %d", ErrOrderNotFound, id, p.ID)
	}
	return subset, nil
}

func (p *Position) String() string {
	state := "open"
	if !p.IsOpen {
		state = "closed"
	}
	return fmt.Sprintf("%s %s/%s %s, %d orders, net currency %s, net base %s",
		p.Exchange, p.BaseCurrency, p.Currency, state, len(p.orders),
		p.CurrencyProfitLoss(), p.BaseProfitLoss())
}
