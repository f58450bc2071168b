package trading

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/username/coinfolio/backend/src/logger"
	"github.com/username/coinfolio/backend/src/models"
)

// Wallet is one exchange account: its positions plus advisory per-currency
// running balances. Balances sum every net amount ever routed through the
// wallet; they are informational and not required to reconcile against the
// positions.
type Wallet struct {
	Name string

	balances      map[string]decimal.Decimal
	positions     []*Position
	newPositionID func() int64
}

// NewWallet creates an empty wallet named after its exchange. Position ids
// are allocated locally unless the wallet is owned by a portfolio, which
// installs its own allocator.
func NewWallet(name string) *Wallet {
	var counter int64
	w := &Wallet{
		Name:     name,
		balances: make(map[string]decimal.Decimal),
	}
	w.newPositionID = func() int64 {
		counter++
		return counter
	}
	return w
}

// RestorePosition attaches a persisted position to the wallet.
func (w *Wallet) RestorePosition(position *Position) {
	w.positions = append(w.positions, position)
}

// RestoreBalance sets one persisted balance entry.
func (w *Wallet) RestoreBalance(currency string, amount decimal.Decimal) {
	w.balances[currency] = amount
}

// AddOrder routes an order into the single open position for its market,
// creating one if none exists, then applies the order's net amounts to the
// wallet balances. Finding more than one open position for the market is a
// data-integrity error and aborts the routing.
func (w *Wallet) AddOrder(order *models.Order) error {
	var open []*Position
	for _, position := range w.positions {
		if position.IsOpen &&
			position.Exchange == order.Exchange &&
			position.Currency == order.Currency &&
			position.BaseCurrency == order.BaseCurrency {
			open = append(open, position)
		}
	}

	var position *Position
	switch len(open) {
	case 0:
		position = NewPosition(w.newPositionID(), order.Exchange, order.Currency, order.BaseCurrency)
		w.positions = append(w.positions, position)
	case 1:
		position = open[0]
	default:
		if logger.L != nil {
			logger.L.Error("multiple open positions in same market",
				"exchange", order.Exchange,
				"baseCurrency", order.BaseCurrency,
				"currency", order.Currency)
		}
		return fmt.Errorf("%w: %s %s/%s", ErrIntegrityViolation,
			order.Exchange, order.BaseCurrency, order.Currency)
	}

	if err := position.AddOrder(order); err != nil {
		return err
	}

	w.balances[order.Currency] = w.balances[order.Currency].Add(order.NetCurrency)
	w.balances[order.BaseCurrency] = w.balances[order.BaseCurrency].Add(order.NetBase)
	return nil
}

// Balances returns a copy of the per-currency balance map.
func (w *Wallet) Balances() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(w.balances))
	for currency, amount := range w.balances {
		out[currency] = amount
	}
	return out
}

// Orders returns every order in the wallet, ascending by closed date.
func (w *Wallet) Orders() []*models.Order {
	var orders []*models.Order
	for _, position := range w.positions {
		orders = append(orders, position.Orders()...)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].ClosedDate.Before(orders[j].ClosedDate)
	})
	return orders
}

// OpenPositions returns the wallet's open positions.
func (w *Wallet) OpenPositions() []*Position {
	var open []*Position
	for _, position := range w.positions {
		if position.IsOpen {
			open = append(open, position)
		}
	}
	return open
}

// ClosedPositions returns the wallet's closed positions.
func (w *Wallet) ClosedPositions() []*Position {
	var closed []*Position
	for _, position := range w.positions {
		if !position.IsOpen {
			closed = append(closed, position)
		}
	}
	return closed
}

// Positions returns all positions in the wallet.
func (w *Wallet) Positions() []*Position {
	return append([]*Position(nil), w.positions...)
}

// ClosePosition closes the given position.
func (w *Wallet) ClosePosition(position *Position) error {
	return position.Close()
}

// MoveOrdersToNewClosedPosition splits a position: the given orders are
// moved into a brand-new position for the same market, which is closed
// immediately. The original position stays open with its remaining orders;
// an emptied-but-open position is valid and awaits future orders. An empty
// subset fails because the new position cannot be closed.
func (w *Wallet) MoveOrdersToNewClosedPosition(position *Position, orders []*models.Order) (*Position, error) {
	moved := NewPosition(w.newPositionID(), position.Exchange, position.Currency, position.BaseCurrency)
	for _, order := range orders {
		if err := position.RemoveOrder(order); err != nil {
			return nil, err
		}
		if err := moved.AddOrder(order); err != nil {
			return nil, err
		}
	}
	if err := moved.Close(); err != nil {
		return nil, err
	}
	w.positions = append(w.positions, moved)
	return moved, nil
}

// CreateClosedPositionOffers scans every open position's orders in
// closed-date order, accumulating net amounts. Each time the running net
// currency returns to exactly zero - exact decimal equality, never an
// epsilon - the orders accumulated since the last reset form one offer and
// the accumulators restart. Trailing orders that never reach zero yield no
// offer.
func (w *Wallet) CreateClosedPositionOffers() []models.ClosedPositionOffer {
	var offers []models.ClosedPositionOffer
	for _, position := range w.OpenPositions() {
		var orderIDs []string
		var netCurrency, netBase decimal.Decimal
		for _, order := range position.Orders() {
			orderIDs = append(orderIDs, order.ID)
			netCurrency = netCurrency.Add(order.NetCurrency)
			netBase = netBase.Add(order.NetBase)
			if netCurrency.IsZero() {
				offers = append(offers, models.ClosedPositionOffer{
					PositionID: position.ID,
					OrderIDs:   orderIDs,
					NetBase:    netBase,
				})
				orderIDs = nil
				netCurrency = decimal.Decimal{}
				netBase = decimal.Decimal{}
			}
		}
	}
	return offers
}
